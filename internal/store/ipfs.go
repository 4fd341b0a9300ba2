package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// IPFSStore talks to an IPFS HTTP API (a go-ipfs/kubo daemon or compatible
// gateway). The daemon owns content addressing, so cids returned here are
// IPFS cids rather than the local sha256 form.
type IPFSStore struct {
	apiURL string
	client *http.Client
}

// NewIPFSStore creates a store backed by the IPFS API at apiURL, e.g.
// "http://127.0.0.1:5001".
func NewIPFSStore(apiURL string) *IPFSStore {
	return &IPFSStore{
		apiURL: apiURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Put uploads data via /api/v0/add and returns the daemon-assigned cid.
func (s *IPFSStore) Put(ctx context.Context, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "checkpoint.json")
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/api/v0/add?pin=true", &body)
	if err != nil {
		return "", fmt.Errorf("failed to build add request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to add blob: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("add returned status %d", resp.StatusCode)
	}

	var result struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode add response: %w", err)
	}
	if result.Hash == "" {
		return "", fmt.Errorf("add response missing hash")
	}
	return result.Hash, nil
}

// Get fetches the blob for cid via /api/v0/cat.
func (s *IPFSStore) Get(ctx context.Context, cid string) ([]byte, error) {
	resp, err := s.post(ctx, "/api/v0/cat", cid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blob: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusInternalServerError || resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cat returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// Pin pins cid via /api/v0/pin/add so the daemon keeps it through GC.
func (s *IPFSStore) Pin(ctx context.Context, cid string) error {
	resp, err := s.post(ctx, "/api/v0/pin/add", cid)
	if err != nil {
		return fmt.Errorf("failed to pin blob: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pin returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *IPFSStore) post(ctx context.Context, path, arg string) (*http.Response, error) {
	u := s.apiURL + path + "?arg=" + url.QueryEscape(arg)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return nil, err
	}
	return s.client.Do(req)
}
