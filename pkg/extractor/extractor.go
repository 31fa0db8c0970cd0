// Package extractor wraps the yt-dlp binary behind a narrow interface.
// The hard part of media extraction lives entirely inside yt-dlp; this
// package only fixes the invocation profile, decodes its JSON output
// and classifies its failures.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/zxc05896/snap-engine/pkg/config"
	"github.com/zxc05896/snap-engine/pkg/models"
)

// description text from upstream is untrusted; cap it so a hostile
// page cannot inflate the response
const maxDescriptionRunes = 500

// Extractor resolves a media URL into metadata plus raw formats.
type Extractor interface {
	Extract(ctx context.Context, url string) (*models.Extraction, error)
}

// runner executes the extraction command and returns its stdout.
// Injectable so tests run without a yt-dlp binary.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// YtDlp shells out to yt-dlp with a fixed configuration profile.
type YtDlp struct {
	cfg *config.Config
	run runner
}

// NewYtDlp builds the adapter from the process configuration.
func NewYtDlp(cfg *config.Config) *YtDlp {
	return &YtDlp{cfg: cfg, run: runCommand}
}

// ytDlpInfo mirrors the slice of `yt-dlp --dump-single-json` output we
// consume.
type ytDlpInfo struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Thumbnail   string             `json:"thumbnail"`
	Duration    float64            `json:"duration"`
	Description string             `json:"description"`
	Formats     []models.RawFormat `json:"formats"`
}

// Extract invokes yt-dlp for url and decodes the result. The returned
// error is always a classified *Error.
func (y *YtDlp) Extract(ctx context.Context, url string) (*models.Extraction, error) {
	start := time.Now()
	slog.Info("starting extraction", "url", url)

	// Bound the whole invocation: socket timeout per attempt plus a
	// margin for yt-dlp's own retries.
	deadline := time.Duration(y.cfg.SocketTimeoutSec*(y.cfg.Retries+1)+30) * time.Second
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	out, err := y.run(ctx, y.cfg.YtDlpPath, y.args(url)...)
	if err != nil {
		cerr := Classify(err.Error())
		slog.Error("extraction failed", "url", url, "kind", cerr.Kind, "msg", cerr.Message)
		return nil, cerr
	}

	var info ytDlpInfo
	if jerr := json.Unmarshal(out, &info); jerr != nil {
		slog.Error("extraction output undecodable", "url", url, "msg", jerr)
		return nil, &Error{Kind: KindEngine, Message: fmt.Sprintf("decoding extractor output: %v", jerr)}
	}

	elapsed := time.Since(start)
	slog.Info("extraction successful", "url", url,
		"formats", len(info.Formats), "elapsed", elapsed.Round(time.Millisecond))

	return &models.Extraction{
		ID:          info.ID,
		Title:       info.Title,
		Thumbnail:   info.Thumbnail,
		Duration:    int(info.Duration),
		Description: truncate(info.Description, maxDescriptionRunes),
		RawFormats:  info.Formats,
		Elapsed:     elapsed.Seconds(),
	}, nil
}

// args assembles the fixed invocation profile from config.
func (y *YtDlp) args(url string) []string {
	args := []string{
		"--dump-single-json",
		"--no-playlist",
		"--skip-download",
		"--quiet",
		"--no-warnings",
		"--socket-timeout", fmt.Sprintf("%d", y.cfg.SocketTimeoutSec),
		"--retries", fmt.Sprintf("%d", y.cfg.Retries),
	}
	if y.cfg.NoCheckCert {
		args = append(args, "--no-check-certificates")
	}
	if y.cfg.GeoBypass {
		args = append(args, "--geo-bypass")
	}
	if y.cfg.ForceIPv4 {
		args = append(args, "--force-ipv4")
	}
	if y.cfg.ClientProfile != "" {
		args = append(args, "--user-agent", y.cfg.ClientProfile)
	}
	if y.cfg.SkipManifests {
		// Prefer direct progressive/adaptive files over HLS/DASH
		// manifests, and look like a real app while asking.
		args = append(args, "--extractor-args", "youtube:player_client=android,web;skip=hls,dash")
	}
	return append(args, url)
}

// runCommand executes yt-dlp and folds stderr into the error, since
// that is where yt-dlp explains itself.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		if ctx.Err() != nil {
			detail = fmt.Sprintf("extraction timed out: %s", detail)
		}
		return nil, fmt.Errorf("%s", detail)
	}
	return stdout.Bytes(), nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
