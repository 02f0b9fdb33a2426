package liveview

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"time"

	"github.com/wb-go/wbf/zlog"
)

type frameSource interface {
	urlBuilder
	FetchFrame(ctx context.Context, frameURL string) ([]byte, error)
}

type flusher interface {
	Flush()
}

// Streamer relays live-view frames as a multipart/x-mixed-replace stream. A failed fetch is
// skipped; the next tick retries.
type Streamer struct {
	source    frameSource
	logger    *zlog.Zerolog
	driverOpt []Option
}

func NewStreamer(source frameSource, logger *zlog.Zerolog, opts ...Option) *Streamer {
	return &Streamer{source: source, logger: logger, driverOpt: opts}
}

// ContentType returns the header value matching the boundary used by Stream.
func ContentType(boundary string) string {
	return "multipart/x-mixed-replace; boundary=" + boundary
}

// Stream writes frames to w until ctx is done or a write fails.
func (s *Streamer) Stream(ctx context.Context, w io.Writer, boundary string, fps int) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(boundary); err != nil {
		return fmt.Errorf("failed to set boundary: %w", err)
	}
	defer mw.Close()

	urls := make(chan string, 1)
	driver := NewDriver(s.source, s.driverOpt...)
	cancel := driver.Start(fps, func(u string, _ func()) {
		select {
		case urls <- u:
		default:
		}
	})
	defer cancel()

	var failures int
	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-urls:
			frame, err := s.source.FetchFrame(ctx, u)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				failures++
				if failures == 1 || failures%50 == 0 {
					s.logger.Warn().Err(err).Int("failures", failures).Msg("Live frame fetch failed")
				}
				continue
			}
			failures = 0

			if err := writeFrame(mw, frame); err != nil {
				return fmt.Errorf("failed to write frame: %w", err)
			}
			if f, ok := w.(flusher); ok {
				f.Flush()
			}
		}
	}
}

func writeFrame(mw *multipart.Writer, frame []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Type", "image/jpeg")
	h.Set("Content-Length", strconv.Itoa(len(frame)))
	h.Set("X-Timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(frame)
	return err
}
