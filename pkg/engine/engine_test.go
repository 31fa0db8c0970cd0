package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/zxc05896/snap-engine/pkg/extractor"
	"github.com/zxc05896/snap-engine/pkg/models"
	"github.com/zxc05896/snap-engine/pkg/pool"
)

type stubExtractor struct {
	mu    sync.Mutex
	calls int
	res   *models.Extraction
	err   error
}

func (s *stubExtractor) Extract(ctx context.Context, url string) (*models.Extraction, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	res := *s.res
	res.ID = url // echo back so concurrent results are distinguishable
	return &res, nil
}

func sampleExtraction() *models.Extraction {
	return &models.Extraction{
		Title:     "Sample",
		Thumbnail: "https://i.example.com/t.jpg",
		Duration:  120,
		RawFormats: []models.RawFormat{
			{Ext: "m4a", URL: "https://v/audio", VCodec: "none", ACodec: "mp4a"},
			{Ext: "mp4", URL: "https://v/720", Height: 720, VCodec: "avc1", ACodec: "none", Filesize: 1000},
		},
	}
}

func newTestEngine(ex extractor.Extractor, workers, queue int) (*Engine, *pool.Pool) {
	p := pool.New(workers, queue)
	return New(ex, p, nil), p
}

func boolPtr(b bool) *bool { return &b }

func TestExtractBuildsSummary(t *testing.T) {
	e, p := newTestEngine(&stubExtractor{res: sampleExtraction()}, 2, 4)
	defer p.Shutdown(context.Background())

	got, err := e.Extract(context.Background(), models.ExtractionRequest{URL: "https://example.com/video123"})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if got.Title != "Sample" {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.Formats) != 2 {
		t.Fatalf("Formats has %d entries, want 2", len(got.Formats))
	}
	// Video format sorts first, audio-only last.
	if got.Formats[0].Resolution != "720p" || got.Formats[0].Note != "Video Only" {
		t.Errorf("first format = %+v, want 720p Video Only", got.Formats[0])
	}
	if got.Formats[1].Resolution != "Audio Only" || got.Formats[1].Note != "Audio Only" {
		t.Errorf("second format = %+v, want Audio Only", got.Formats[1])
	}
	if got.ServerTime < 0 {
		t.Errorf("ServerTime = %f, want >= 0", got.ServerTime)
	}
}

func TestExtractExcludesAudioWhenAsked(t *testing.T) {
	e, p := newTestEngine(&stubExtractor{res: sampleExtraction()}, 1, 2)
	defer p.Shutdown(context.Background())

	got, err := e.Extract(context.Background(), models.ExtractionRequest{
		URL:          "https://example.com/v",
		IncludeAudio: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len(got.Formats) != 1 {
		t.Fatalf("Formats has %d entries, want 1", len(got.Formats))
	}
	if got.Formats[0].Resolution == "Audio Only" {
		t.Error("audio-only variant survived include_audio=false")
	}
}

func TestExtractPropagatesClassifiedError(t *testing.T) {
	e, p := newTestEngine(&stubExtractor{
		err: &extractor.Error{Kind: extractor.KindUnavailable, Message: "video is private"},
	}, 1, 2)
	defer p.Shutdown(context.Background())

	_, err := e.Extract(context.Background(), models.ExtractionRequest{URL: "https://example.com/v"})
	var exErr *extractor.Error
	if !errors.As(err, &exErr) {
		t.Fatalf("Extract() error = %T, want *extractor.Error", err)
	}
	if exErr.Kind != extractor.KindUnavailable {
		t.Errorf("Kind = %v, want KindUnavailable", exErr.Kind)
	}
}

func TestExtractFallsBackToUnknownTitle(t *testing.T) {
	ext := sampleExtraction()
	ext.Title = ""
	e, p := newTestEngine(&stubExtractor{res: ext}, 1, 2)
	defer p.Shutdown(context.Background())

	got, err := e.Extract(context.Background(), models.ExtractionRequest{URL: "https://example.com/v"})
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if got.Title != "Unknown Title" {
		t.Errorf("Title = %q, want fallback", got.Title)
	}
}

func TestConcurrentExtractionsAllComplete(t *testing.T) {
	stub := &stubExtractor{res: sampleExtraction()}
	e, p := newTestEngine(stub, 2, 32)
	defer p.Shutdown(context.Background())

	const n = 10 // more requests than workers
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.Extract(context.Background(), models.ExtractionRequest{URL: "https://example.com/v"})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("request %d failed: %v", i, err)
		}
	}

	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.calls != n {
		t.Errorf("extractor invoked %d times, want exactly %d", stub.calls, n)
	}
}
