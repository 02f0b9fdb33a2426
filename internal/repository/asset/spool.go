package asset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	spoolEdited   = "edited"
	spoolOriginal = "original"
)

type PendingFile struct {
	Name     string    `json:"name"`
	Filename string    `json:"filename"`
	Edited   bool      `json:"edited"`
	Size     int64     `json:"size"`
	QueuedAt time.Time `json:"queued_at"`
	path     string
}

// Spool keeps images whose upload failed so they can be retried later.
type Spool struct {
	dir string
	now func() time.Time
}

func NewSpool(dir string) *Spool {
	return &Spool{dir: dir, now: time.Now}
}

func (s *Spool) Dir() string { return s.dir }

// Put stores data and returns the spool entry name.
func (s *Spool) Put(filename string, data []byte, edited bool) (string, error) {
	sub := spoolOriginal
	if edited {
		sub = spoolEdited
	}
	dir := filepath.Join(s.dir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create spool dir: %w", err)
	}

	name := strconv.FormatInt(s.now().UnixNano(), 10) + "_" + filepath.Base(filename)
	tmp := filepath.Join(dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write spool file: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, name)); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to commit spool file: %w", err)
	}
	return name, nil
}

// List returns pending files, oldest first.
func (s *Spool) List() ([]PendingFile, error) {
	var out []PendingFile
	for _, sub := range []string{spoolOriginal, spoolEdited} {
		entries, err := os.ReadDir(filepath.Join(s.dir, sub))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list spool: %w", err)
		}

		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			out = append(out, pendingFromName(filepath.Join(s.dir, sub), e.Name(), sub == spoolEdited, info))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].QueuedAt.Before(out[j].QueuedAt)
	})
	return out, nil
}

func (s *Spool) Read(p PendingFile) ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spool file %s: %w", p.Name, err)
	}
	return data, nil
}

func (s *Spool) Remove(p PendingFile) error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove spool file %s: %w", p.Name, err)
	}
	return nil
}

func pendingFromName(dir, name string, edited bool, info fs.FileInfo) PendingFile {
	p := PendingFile{
		Name:     name,
		Filename: name,
		Edited:   edited,
		Size:     info.Size(),
		QueuedAt: info.ModTime(),
		path:     filepath.Join(dir, name),
	}
	if stamp, rest, ok := strings.Cut(name, "_"); ok {
		if ns, err := strconv.ParseInt(stamp, 10, 64); err == nil {
			p.Filename = rest
			p.QueuedAt = time.Unix(0, ns)
		}
	}
	return p
}
