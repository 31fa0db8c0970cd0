package models

// ExtractionRequest is the body of POST /api/v1/extract.
type ExtractionRequest struct {
	URL          string `json:"url"`
	IncludeAudio *bool  `json:"include_audio,omitempty"`
}

// WantsAudio reports whether audio-only variants should be kept.
// Absent means true.
func (r ExtractionRequest) WantsAudio() bool {
	return r.IncludeAudio == nil || *r.IncludeAudio
}

// RawFormat is a read-only view over one format descriptor as yt-dlp
// reports it. Only the fields the normalizer consumes are decoded.
type RawFormat struct {
	FormatID   string  `json:"format_id"`
	Ext        string  `json:"ext"`
	URL        string  `json:"url"`
	Height     int     `json:"height"`
	Filesize   int64   `json:"filesize"`
	FilesizeAp int64   `json:"filesize_approx"`
	VCodec     string  `json:"vcodec"`
	ACodec     string  `json:"acodec"`
	FPS        float64 `json:"fps"`
	FormatNote string  `json:"format_note"`
}

// SizeBytes returns the exact size when known, the approximate one
// otherwise, 0 when neither is present.
func (f RawFormat) SizeBytes() int64 {
	if f.Filesize > 0 {
		return f.Filesize
	}
	return f.FilesizeAp
}

// FormatVariant is one presentable download option.
type FormatVariant struct {
	Resolution string `json:"resolution"`
	Ext        string `json:"ext"`
	URL        string `json:"url"`
	Filesize   string `json:"filesize"`
	Note       string `json:"note"`
}

// VideoSummary is the success response of the extract endpoint.
type VideoSummary struct {
	Title      string          `json:"title"`
	Thumbnail  string          `json:"thumbnail"`
	Duration   int             `json:"duration"`
	Formats    []FormatVariant `json:"formats"`
	ServerTime float64         `json:"server_time"`
}

// Extraction is what the adapter hands back before normalization.
type Extraction struct {
	ID          string
	Title       string
	Thumbnail   string
	Duration    int
	Description string
	RawFormats  []RawFormat
	Elapsed     float64
}
