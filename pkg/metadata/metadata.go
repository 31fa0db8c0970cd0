// Package metadata recovers a video title when the extractor could
// not provide one. YouTube URLs get the official oEmbed endpoint;
// anything else falls back to scraping the page <title>.
package metadata

import (
	"bufio"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/zxc05896/snap-engine/pkg/client"
)

var (
	ytIDRe    = regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|embed/|shorts/)|youtu\.be/)([A-Za-z0-9_-]{11})`)
	pageTitle = regexp.MustCompile(`<title>(.*?)(?: - YouTube)?</title>`)
)

// scanning more than this much page text for a <title> is pointless
const maxScanBytes = 1 << 20

// Resolver fetches titles over the spoofed-fingerprint client.
type Resolver struct {
	Client client.Doer
}

// NeedsTitle reports whether title is empty or a known placeholder.
func NeedsTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	return t == "" || t == "unknown" || t == "untitled" || t == "na"
}

// ResolveTitle returns the best title it can find for rawURL.
func (r *Resolver) ResolveTitle(rawURL string) (string, error) {
	if m := ytIDRe.FindStringSubmatch(rawURL); len(m) >= 2 {
		title, err := r.oembedTitle(m[1])
		if err == nil && title != "" {
			return title, nil
		}
		slog.Debug("oEmbed lookup failed, scraping page instead", "url", rawURL, "msg", err)
	}
	return r.scrapedTitle(rawURL)
}

// oembedTitle asks YouTube's iframe-embed JSON endpoint.
func (r *Resolver) oembedTitle(videoID string) (string, error) {
	u := fmt.Sprintf("https://www.youtube.com/oembed?url=https://www.youtube.com/watch?v=%s&format=json", videoID)

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oembed status %d", resp.StatusCode)
	}

	var data struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}
	return data.Title, nil
}

// scrapedTitle reads the start of the page looking for its <title>.
func (r *Resolver) scrapedTitle(rawURL string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer closeBody(resp)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxScanBytes)

	read := 0
	for scanner.Scan() {
		line := scanner.Text()
		read += len(line)

		if m := pageTitle.FindStringSubmatch(line); len(m) >= 2 {
			return html.UnescapeString(m[1]), nil
		}
		if read > maxScanBytes {
			break
		}
	}
	return "", fmt.Errorf("no title in first %d bytes", maxScanBytes)
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Warn("failed to close response body", "msg", err)
	}
}
