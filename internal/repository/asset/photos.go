package asset

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Photos reads captured photos from the capture directory or a URL.
type Photos struct {
	dir    string
	client *http.Client
}

func NewPhotos(dir string, client *http.Client) *Photos {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Photos{dir: dir, client: client}
}

func (p *Photos) ReadPhoto(ctx context.Context, ref string) ([]byte, error) {
	if isURL(ref) {
		return fetch(ctx, p.client, ref)
	}

	path, err := resolve(p.dir, ref)
	if err != nil {
		return nil, err
	}
	return readFile(path)
}

// Save writes a capture into the directory under a timestamped name and
// returns its path. The file appears atomically.
func (p *Photos) Save(data []byte) (string, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create capture dir: %w", err)
	}

	name := "capture_" + time.Now().Format("20060102_150405.000") + ".jpg"
	path := filepath.Join(p.dir, name)
	tmp := filepath.Join(p.dir, "."+name+".tmp")

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write capture: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to commit capture: %w", err)
	}
	return path, nil
}
