// Package engine ties the extraction adapter, the format normalizer
// and the worker pool together into the one operation the API exposes.
package engine

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/zxc05896/snap-engine/pkg/extractor"
	"github.com/zxc05896/snap-engine/pkg/format"
	"github.com/zxc05896/snap-engine/pkg/metadata"
	"github.com/zxc05896/snap-engine/pkg/models"
	"github.com/zxc05896/snap-engine/pkg/pool"
)

// Engine serializes extraction work through a bounded pool so the
// HTTP path never runs yt-dlp inline.
type Engine struct {
	Extractor extractor.Extractor
	Pool      *pool.Pool
	// Titles is optional; when set, placeholder titles from the
	// extractor are replaced with ones fetched over the spoofed
	// client.
	Titles *metadata.Resolver
}

// New builds an Engine. titles may be nil.
func New(ex extractor.Extractor, p *pool.Pool, titles *metadata.Resolver) *Engine {
	return &Engine{Extractor: ex, Pool: p, Titles: titles}
}

// Extract dispatches the request onto the pool and waits for its
// result. Concurrent requests are independent; completion order is
// whatever the pool produces.
func (e *Engine) Extract(ctx context.Context, req models.ExtractionRequest) (*models.VideoSummary, error) {
	fut, err := pool.Submit(e.Pool, func() (*models.VideoSummary, error) {
		return e.process(req)
	})
	if err != nil {
		return nil, err
	}
	return fut.Wait(ctx)
}

// process runs on a pool worker and owns the full pipeline for one
// request.
func (e *Engine) process(req models.ExtractionRequest) (*models.VideoSummary, error) {
	start := time.Now()

	ext, err := e.Extractor.Extract(context.Background(), req.URL)
	if err != nil {
		return nil, err
	}

	formats := format.Normalize(ext.RawFormats)
	if !req.WantsAudio() {
		formats = dropAudioOnly(formats)
	}

	title := ext.Title
	if metadata.NeedsTitle(title) && e.Titles != nil {
		if resolved, terr := e.Titles.ResolveTitle(req.URL); terr == nil && resolved != "" {
			slog.Info("recovered title via metadata fallback", "url", req.URL, "title", resolved)
			title = resolved
		} else {
			slog.Warn("title fallback failed", "url", req.URL, "msg", terr)
		}
	}
	if title == "" {
		title = "Unknown Title"
	}

	return &models.VideoSummary{
		Title:      title,
		Thumbnail:  ext.Thumbnail,
		Duration:   ext.Duration,
		Formats:    formats,
		ServerTime: round3(time.Since(start).Seconds()),
	}, nil
}

func dropAudioOnly(in []models.FormatVariant) []models.FormatVariant {
	out := in[:0]
	for _, v := range in {
		if v.Resolution != "Audio Only" {
			out = append(out, v)
		}
	}
	return out
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
