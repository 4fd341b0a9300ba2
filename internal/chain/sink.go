// Package chain provides write-only sinks for state commitments. A sink
// accepts a commitment hash and the evolution count it was taken at;
// submission failures are reported to the caller but never abort the
// evolution loop.
package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Sink accepts commitments for external anchoring.
type Sink interface {
	Submit(ctx context.Context, commitment [32]byte, evo uint64) (txID string, err error)
}

// LocalSink logs commitments and hands back synthetic transaction ids. It
// is the default when no anchoring endpoint is configured.
type LocalSink struct {
	logger *slog.Logger
}

// NewLocalSink creates a sink that only logs.
func NewLocalSink(logger *slog.Logger) *LocalSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalSink{logger: logger}
}

// Submit records the commitment in the log and returns a uuid as the
// transaction id.
func (s *LocalSink) Submit(_ context.Context, commitment [32]byte, evo uint64) (string, error) {
	txID := uuid.NewString()
	s.logger.Info("commitment recorded locally",
		"evo", evo,
		"commitment", hex.EncodeToString(commitment[:]),
		"tx_id", txID)
	return txID, nil
}

// HTTPSink POSTs commitments to an anchoring service (a relay in front of a
// chain adapter). The service is expected to answer with a JSON body
// containing a tx_id field.
type HTTPSink struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSink creates a sink posting to endpoint.
func NewHTTPSink(endpoint string) *HTTPSink {
	return &HTTPSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type submitRequest struct {
	Commitment string `json:"commitment"`
	Evolution  uint64 `json:"evolution"`
}

type submitResponse struct {
	TxID string `json:"tx_id"`
}

// Submit posts the commitment and returns the service-assigned tx id.
func (s *HTTPSink) Submit(ctx context.Context, commitment [32]byte, evo uint64) (string, error) {
	body, err := json.Marshal(submitRequest{
		Commitment: "0x" + hex.EncodeToString(commitment[:]),
		Evolution:  evo,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode commitment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit commitment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("submit returned status %d", resp.StatusCode)
	}

	var result submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode submit response: %w", err)
	}
	if result.TxID == "" {
		return "", fmt.Errorf("submit response missing tx_id")
	}
	return result.TxID, nil
}
