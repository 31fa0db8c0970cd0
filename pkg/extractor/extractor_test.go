package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zxc05896/snap-engine/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		YtDlpPath:        "yt-dlp",
		SocketTimeoutSec: 15,
		Retries:          5,
		ClientProfile:    "test-agent",
		SkipManifests:    true,
		GeoBypass:        true,
		ForceIPv4:        true,
		NoCheckCert:      true,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"ERROR: Sign in to confirm your age", KindUnavailable},
		{"ERROR: This video is private", KindUnavailable},
		{"ERROR: Video unavailable", KindUnavailable},
		{"ERROR: The uploader has not made this video available in your country", KindUnavailable},
		{"ERROR: Sign in to confirm you're not a bot", KindUnavailable}, // sign-in marker checked first
		{"ERROR: suspected bot traffic detected", KindRateLimited},
		{"HTTP Error 429: Too Many Requests", KindRateLimited},
		{"ERROR: Unsupported URL: ftp://nope", KindEngine},
		{"connection reset by peer", KindEngine},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got := Classify(tt.msg)
			if got.Kind != tt.want {
				t.Errorf("Classify(%q).Kind = %v, want %v", tt.msg, got.Kind, tt.want)
			}
			if got.Message != tt.msg {
				t.Errorf("Classify(%q).Message = %q, message must be retained", tt.msg, got.Message)
			}
		})
	}
}

func TestExtractDecodesOutput(t *testing.T) {
	payload := `{
		"id": "abc123",
		"title": "A Video",
		"thumbnail": "https://i.example.com/t.jpg",
		"duration": 212.4,
		"description": "hello",
		"formats": [
			{"format_id": "18", "ext": "mp4", "url": "https://v/18", "height": 360, "filesize": 1000, "vcodec": "avc1", "acodec": "mp4a"},
			{"format_id": "140", "ext": "m4a", "url": "https://v/140", "filesize_approx": 500, "vcodec": "none", "acodec": "mp4a"}
		]
	}`

	y := NewYtDlp(testConfig())
	y.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(payload), nil
	}

	got, err := y.Extract(context.Background(), "https://example.com/video123")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if got.Title != "A Video" {
		t.Errorf("Title = %q, want %q", got.Title, "A Video")
	}
	if got.Duration != 212 {
		t.Errorf("Duration = %d, want 212", got.Duration)
	}
	if len(got.RawFormats) != 2 {
		t.Fatalf("RawFormats has %d entries, want 2", len(got.RawFormats))
	}
	if got.RawFormats[1].SizeBytes() != 500 {
		t.Errorf("SizeBytes() = %d, want approx fallback 500", got.RawFormats[1].SizeBytes())
	}
	if got.Elapsed < 0 {
		t.Errorf("Elapsed = %f, want >= 0", got.Elapsed)
	}
}

func TestExtractTruncatesDescription(t *testing.T) {
	long := strings.Repeat("d", 2000)
	payload := fmt.Sprintf(`{"id": "x", "title": "t", "description": %q, "formats": []}`, long)

	y := NewYtDlp(testConfig())
	y.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(payload), nil
	}

	got, err := y.Extract(context.Background(), "https://example.com/v")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len([]rune(got.Description)) != maxDescriptionRunes {
		t.Errorf("Description length = %d runes, want %d", len([]rune(got.Description)), maxDescriptionRunes)
	}
}

func TestExtractClassifiesFailure(t *testing.T) {
	y := NewYtDlp(testConfig())
	y.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("ERROR: This video is private")
	}

	_, err := y.Extract(context.Background(), "https://example.com/v")
	var exErr *Error
	if !errors.As(err, &exErr) {
		t.Fatalf("Extract() error = %T, want *extractor.Error", err)
	}
	if exErr.Kind != KindUnavailable {
		t.Errorf("Kind = %v, want KindUnavailable", exErr.Kind)
	}
}

func TestExtractRejectsMalformedOutput(t *testing.T) {
	y := NewYtDlp(testConfig())
	y.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("not json"), nil
	}

	_, err := y.Extract(context.Background(), "https://example.com/v")
	var exErr *Error
	if !errors.As(err, &exErr) {
		t.Fatalf("Extract() error = %T, want *extractor.Error", err)
	}
	if exErr.Kind != KindEngine {
		t.Errorf("Kind = %v, want KindEngine", exErr.Kind)
	}
}

func TestArgsProfile(t *testing.T) {
	y := NewYtDlp(testConfig())
	args := y.args("https://example.com/v")
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"--dump-single-json",
		"--no-playlist",
		"--socket-timeout 15",
		"--retries 5",
		"--no-check-certificates",
		"--geo-bypass",
		"--force-ipv4",
		"--user-agent test-agent",
		"skip=hls,dash",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q in %q", want, joined)
		}
	}
	if args[len(args)-1] != "https://example.com/v" {
		t.Errorf("URL must be the final argument, got %q", args[len(args)-1])
	}
}
