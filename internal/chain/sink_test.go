package chain

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLocalSink_ReturnsUniqueTxIDs(t *testing.T) {
	s := NewLocalSink(slog.New(slog.NewTextHandler(io.Discard, nil)))
	var commitment [32]byte

	a, err := s.Submit(context.Background(), commitment, 1)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	b, err := s.Submit(context.Background(), commitment, 2)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty tx ids, got %q and %q", a, b)
	}
}

func TestHTTPSink_Submit(t *testing.T) {
	var got submitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(submitResponse{TxID: "0xabc123"})
	}))
	defer srv.Close()

	s := NewHTTPSink(srv.URL)
	commitment := [32]byte{0xde, 0xad, 0xbe, 0xef}

	txID, err := s.Submit(context.Background(), commitment, 500)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if txID != "0xabc123" {
		t.Errorf("txID = %q, want 0xabc123", txID)
	}
	if got.Evolution != 500 {
		t.Errorf("submitted evolution = %d, want 500", got.Evolution)
	}
	if len(got.Commitment) != 2+64 || got.Commitment[:10] != "0xdeadbeef" {
		t.Errorf("submitted commitment = %q", got.Commitment)
	}
}

func TestHTTPSink_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relay offline", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewHTTPSink(srv.URL)
	if _, err := s.Submit(context.Background(), [32]byte{}, 1); err == nil {
		t.Error("expected error on server failure")
	}
}

func TestHTTPSink_MissingTxID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := NewHTTPSink(srv.URL)
	if _, err := s.Submit(context.Background(), [32]byte{}, 1); err == nil {
		t.Error("expected error when response lacks tx_id")
	}
}
