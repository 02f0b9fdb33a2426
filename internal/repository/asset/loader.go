package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const maxAssetSize = 32 << 20

// Loader resolves asset references to decoded images. A reference is either
// an http(s) URL or a path relative to the root directory. Decoded images
// are cached; failures are not.
type Loader struct {
	root   string
	client *http.Client

	mu    sync.RWMutex
	cache map[string]image.Image
}

func NewLoader(root string, client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Loader{
		root:   root,
		client: client,
		cache:  make(map[string]image.Image),
	}
}

func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	l.mu.RLock()
	img, ok := l.cache[ref]
	l.mu.RUnlock()
	if ok {
		return img, nil
	}

	data, err := l.read(ctx, ref)
	if err != nil {
		return nil, err
	}

	img, _, err = image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, ref, err)
	}

	l.mu.Lock()
	l.cache[ref] = img
	l.mu.Unlock()
	return img, nil
}

// Forget drops a cached image so the next Load reads it again.
func (l *Loader) Forget(ref string) {
	l.mu.Lock()
	delete(l.cache, ref)
	l.mu.Unlock()
}

func (l *Loader) read(ctx context.Context, ref string) ([]byte, error) {
	if isURL(ref) {
		return fetch(ctx, l.client, ref)
	}

	path, err := resolve(l.root, ref)
	if err != nil {
		return nil, err
	}
	return readFile(path)
}

func isURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// resolve joins ref onto root and rejects results outside root. Absolute
// refs are accepted only when root is empty.
func resolve(root, ref string) (string, error) {
	if root == "" {
		return filepath.Clean(ref), nil
	}
	if filepath.IsAbs(ref) {
		rel, err := filepath.Rel(root, ref)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", ErrOutsideRoot
		}
		return ref, nil
	}

	path := filepath.Join(root, ref)
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return path, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	return data, nil
}
