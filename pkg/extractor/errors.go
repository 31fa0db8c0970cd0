package extractor

import "strings"

// Kind partitions extraction failures into the few cases the HTTP
// layer cares about.
type Kind int

const (
	// KindEngine covers internal extractor faults.
	KindEngine Kind = iota
	// KindUnavailable means the content is missing, private, gated
	// behind a login, or region-locked.
	KindUnavailable
	// KindRateLimited means the upstream site is throttling us.
	KindRateLimited
)

// Error is a classified extraction failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Marker substrings in yt-dlp output. Brittle by nature: yt-dlp error
// text is not a stable interface, so the lists stay short and generic.
var (
	unavailableMarkers = []string{
		"sign in",
		"private",
		"age-restricted",
		"age restricted",
		"video unavailable",
		"not available in your country",
		"geo restricted",
		"removed",
	}
	rateLimitMarkers = []string{
		"bot",
		"429",
		"too many requests",
		"rate-limit",
		"rate limit",
	}
)

// Classify maps raw failure text from yt-dlp onto the error taxonomy.
func Classify(msg string) *Error {
	lower := strings.ToLower(msg)

	for _, m := range unavailableMarkers {
		if strings.Contains(lower, m) {
			return &Error{Kind: KindUnavailable, Message: msg}
		}
	}
	for _, m := range rateLimitMarkers {
		if strings.Contains(lower, m) {
			return &Error{Kind: KindRateLimited, Message: msg}
		}
	}
	return &Error{Kind: KindEngine, Message: msg}
}
