package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// ArtifactKey names a retrievable run output.
type ArtifactKey string

const (
	ArtifactChatML   ArtifactKey = "chatml"
	ArtifactPrepared ArtifactKey = "prepared"
)

// defaultFilenames is used when the response carries no Content-Disposition
// filename.
var defaultFilenames = map[ArtifactKey]string{
	ArtifactChatML:   "chatml_dataset.jsonl",
	ArtifactPrepared: "prepared_dataset.json",
}

// ArtifactKeys returns the known artifact kinds.
func ArtifactKeys() []ArtifactKey {
	return []ArtifactKey{ArtifactChatML, ArtifactPrepared}
}

// Artifact is one fetched run output.
type Artifact struct {
	Key      ArtifactKey
	RunID    string
	Filename string
	Data     []byte
}

// FetchArtifact retrieves a named output artifact as a binary payload. The
// filename comes from the Content-Disposition header when present, else a
// fixed default per key.
func (c *Client) FetchArtifact(ctx context.Context, runID string, key ArtifactKey) (*Artifact, error) {
	if _, ok := defaultFilenames[key]; !ok {
		return nil, fmt.Errorf("unknown artifact key: %s", key)
	}
	req, err := c.newRequest(ctx, http.MethodGet,
		fmt.Sprintf("/pipelines/runs/%s/artifacts/%s", runID, key), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Del("Accept")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromResponse(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact body: %w", err)
	}

	filename := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	if filename == "" {
		filename = defaultFilenames[key]
	}

	c.logger.Debug("fetched artifact", "run_id", runID, "key", key, "filename", filename, "bytes", len(data))
	return &Artifact{Key: key, RunID: runID, Filename: filename, Data: data}, nil
}

// SaveArtifact writes a fetched artifact into dir and returns the full path.
func SaveArtifact(a *Artifact, dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(a.Filename))
	if err := os.WriteFile(path, a.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to save artifact: %w", err)
	}
	return path, nil
}

// filenameFromDisposition extracts the filename parameter from a
// Content-Disposition header, returning "" when absent or unparseable.
func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
