package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"photobooth/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

//go:embed default_catalog.json
var defaultCatalog []byte

const (
	SourceRemote   = "remote"
	SourceEmbedded = "embedded"

	maxCatalogSize = 4 << 20
)

type document struct {
	Frames []domain.FrameTemplate `json:"frames" validate:"dive"`
	Icons  []domain.OverlayIcon   `json:"icons" validate:"dive"`
}

// Catalog holds the frame templates and overlay icons. It is immutable after
// construction and safe for concurrent reads.
type Catalog struct {
	source   string
	frames   []domain.FrameTemplate
	icons    []domain.OverlayIcon
	frameIdx map[string]int
	iconIdx  map[string]int
}

// Parse decodes and validates a catalog document. Ids must be unique.
func Parse(data []byte, source string) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{
		source:   source,
		frames:   doc.Frames,
		icons:    doc.Icons,
		frameIdx: make(map[string]int, len(doc.Frames)),
		iconIdx:  make(map[string]int, len(doc.Icons)),
	}
	for i, f := range doc.Frames {
		if _, dup := c.frameIdx[f.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate frame id %q", ErrInvalidCatalog, f.ID)
		}
		c.frameIdx[f.ID] = i
	}
	for i, ic := range doc.Icons {
		if _, dup := c.iconIdx[ic.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate icon id %q", ErrInvalidCatalog, ic.ID)
		}
		c.iconIdx[ic.ID] = i
	}
	return c, nil
}

// Embedded returns the catalog compiled into the binary.
func Embedded() *Catalog {
	c, err := Parse(defaultCatalog, SourceEmbedded)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

type Loader struct {
	client  *http.Client
	retries retry.Strategy
	logger  *zlog.Zerolog
}

func NewLoader(client *http.Client, retries retry.Strategy, logger *zlog.Zerolog) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Loader{
		client:  client,
		retries: retries,
		logger:  logger,
	}
}

// Load fetches the remote catalog and falls back to the embedded one when
// url is empty or the remote copy cannot be fetched or parsed.
func (l *Loader) Load(ctx context.Context, url string) *Catalog {
	if url == "" {
		l.logger.Info().Msg("No remote catalog configured, using embedded catalog")
		return Embedded()
	}

	var c *Catalog
	err := retry.Do(func() error {
		data, err := l.fetch(ctx, url)
		if err != nil {
			return err
		}
		c, err = Parse(data, SourceRemote)
		return err
	}, l.retries)
	if err == nil && c == nil {
		err = ErrRemoteCatalog
	}
	if err != nil {
		l.logger.Warn().Err(err).Str("url", url).Msg("Failed to load remote catalog, using embedded catalog")
		return Embedded()
	}

	l.logger.Info().
		Str("url", url).
		Int("frames", len(c.frames)).
		Int("icons", len(c.icons)).
		Msg("Catalog loaded")
	return c
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteCatalog, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRemoteCatalog, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteCatalog, err)
	}
	return data, nil
}

func (c *Catalog) Source() string { return c.source }

func (c *Catalog) Frames() []domain.FrameTemplate {
	out := make([]domain.FrameTemplate, len(c.frames))
	copy(out, c.frames)
	return out
}

func (c *Catalog) Icons() []domain.OverlayIcon {
	out := make([]domain.OverlayIcon, len(c.icons))
	copy(out, c.icons)
	return out
}

func (c *Catalog) FrameByID(id string) (domain.FrameTemplate, bool) {
	i, ok := c.frameIdx[id]
	if !ok {
		return domain.FrameTemplate{}, false
	}
	return c.frames[i], true
}

func (c *Catalog) IconByID(id string) (domain.OverlayIcon, bool) {
	i, ok := c.iconIdx[id]
	if !ok {
		return domain.OverlayIcon{}, false
	}
	return c.icons[i], true
}
