package entity

// PlatformMetadata is what an oEmbed lookup returns for a video URL.
type PlatformMetadata struct {
	Title        string
	AuthorName   string
	ThumbnailURL string
	Provider     string
}

// VideoContent is the richer per-platform content used as LLM input.
type VideoContent struct {
	Title           string
	Description     string
	Captions        string
	CombinedText    string
	ThumbnailURL    string
	DurationSeconds int
}

// HasCaptions reports whether a caption track was found and parsed.
func (c VideoContent) HasCaptions() bool {
	return c.Captions != ""
}

// Empty reports whether nothing usable was extracted.
func (c VideoContent) Empty() bool {
	return c.CombinedText == "" && c.Title == "" && c.Description == ""
}

type TranscriptErrorKind string

const (
	// TranscriptUnavailable means no provider credential is configured. It is
	// an expected condition, not a failure.
	TranscriptUnavailable    TranscriptErrorKind = "unavailable"
	TranscriptDownloadFailed TranscriptErrorKind = "download_failed"
	TranscriptProviderFailed TranscriptErrorKind = "provider_failed"
	TranscriptTimeout        TranscriptErrorKind = "timeout"
)

// Transcript is the outcome of one transcription attempt.
type Transcript struct {
	Success         bool
	Text            string
	DurationSeconds int
	ErrorKind       TranscriptErrorKind
}
