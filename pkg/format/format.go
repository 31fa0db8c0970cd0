// Package format turns the heterogeneous format list yt-dlp reports
// into a clean, deduplicated, quality-sorted list of download options.
package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zxc05896/snap-engine/pkg/models"
)

const audioOnlyLabel = "Audio Only"

type candidate struct {
	variant models.FormatVariant
	height  int
	size    int64
}

// Normalize filters, dedupes and sorts raw descriptors. Entries without
// a direct URL are dropped. The raw list is walked in reverse because
// yt-dlp orders formats worst-first; the first (resolution, ext) pair
// seen therefore wins as the highest-quality one.
func Normalize(raw []models.RawFormat) []models.FormatVariant {
	candidates := make([]candidate, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for i := len(raw) - 1; i >= 0; i-- {
		f := raw[i]
		if f.URL == "" {
			continue
		}

		res := audioOnlyLabel
		if f.Height > 0 {
			res = fmt.Sprintf("%dp", f.Height)
		}
		ext := f.Ext
		if ext == "" {
			ext = "mp4"
		}

		key := res + "-" + ext
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		candidates = append(candidates, candidate{
			variant: models.FormatVariant{
				Resolution: res,
				Ext:        ext,
				URL:        f.URL,
				Filesize:   HumanSize(f.SizeBytes()),
				Note:       buildNote(f),
			},
			height: f.Height,
			size:   f.SizeBytes(),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].height != candidates[j].height {
			return candidates[i].height > candidates[j].height
		}
		return candidates[i].size > candidates[j].size
	})

	out := make([]models.FormatVariant, len(candidates))
	for i, c := range candidates {
		out[i] = c.variant
	}
	return out
}

// buildNote assembles a short descriptive note: high frame rates, the
// stream composition, then whatever extra the extractor reported.
func buildNote(f models.RawFormat) string {
	var parts []string

	if f.FPS > 30 {
		parts = append(parts, fmt.Sprintf("%dfps", int(f.FPS)))
	}

	switch {
	case f.VCodec != "none" && f.ACodec != "none":
		parts = append(parts, "Video+Audio")
	case f.VCodec == "none":
		parts = append(parts, audioOnlyLabel)
	default:
		parts = append(parts, "Video Only")
	}

	if note := strings.TrimSpace(f.FormatNote); note != "" {
		parts = append(parts, note)
	}

	return strings.Join(parts, ", ")
}

// HumanSize renders a byte count in the largest unit that keeps the
// value above one, with two decimals. Zero or negative means the
// extractor did not report a size.
func HumanSize(n int64) string {
	if n <= 0 {
		return "Unknown"
	}
	v := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if v < 1024 {
			return fmt.Sprintf("%.2f %s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.2f TB", v)
}
