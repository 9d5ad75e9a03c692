package usecase

import (
	"strings"

	"github.com/user/recipe-service/internal/entity"
)

// Duration estimates in seconds. A placeholder policy with two buckets, not
// a calibrated model.
const (
	estimateWithTranscription    = 75
	estimateWithoutTranscription = 60
)

// EstimateDuration returns the initial duration estimate shown to the client.
func EstimateDuration(transcriptionAvailable bool) int {
	if transcriptionAvailable {
		return estimateWithTranscription
	}
	return estimateWithoutTranscription
}

// pipelineState collects the partial results of one run. content and
// transcription are written by different goroutines, each to its own field,
// and read only after both have settled.
type pipelineState struct {
	source     entity.SourceType
	metadata   *entity.PlatformMetadata
	content    *entity.VideoContent
	transcript *entity.Transcript
	rawText    string
	recipe     entity.RecipeJSON
	record     *entity.RecipeRecord
}

func (s *pipelineState) title() string {
	if s.metadata != nil && s.metadata.Title != "" {
		return s.metadata.Title
	}
	if s.content != nil {
		return s.content.Title
	}
	return ""
}

func (s *pipelineState) thumbnail() string {
	if s.metadata != nil && s.metadata.ThumbnailURL != "" {
		return s.metadata.ThumbnailURL
	}
	if s.content != nil {
		return s.content.ThumbnailURL
	}
	return ""
}

func (s *pipelineState) transcribed() bool {
	return s.transcript != nil && s.transcript.Success
}

// ResolveExtractionQuality grades a run by which signals were obtained.
func ResolveExtractionQuality(content *entity.VideoContent, transcript *entity.Transcript) (entity.ExtractionMethod, entity.ExtractionQuality) {
	switch {
	case transcript != nil && transcript.Success:
		return entity.MethodWhisper, entity.QualityHigh
	case content != nil && !content.Empty() && content.HasCaptions():
		return entity.MethodBasic, entity.QualityMedium
	case content != nil && !content.Empty():
		return entity.MethodBasic, entity.QualityLow
	default:
		return entity.MethodOEmbed, entity.QualityLow
	}
}

// BuildRawText assembles the LLM input from the title, the extracted content,
// the transcript and the user's notes, skipping whatever is empty.
func BuildRawText(title string, content *entity.VideoContent, transcript *entity.Transcript, notes string) string {
	var parts []string
	if title = strings.TrimSpace(title); title != "" {
		parts = append(parts, "VIDEO TITLE: "+title)
	}

	var body string
	if content != nil {
		body = strings.TrimSpace(content.CombinedText)
	}
	if transcript != nil && transcript.Success {
		if text := strings.TrimSpace(transcript.Text); text != "" && !strings.Contains(body, text) {
			if body != "" {
				body += "\n\n"
			}
			body += "TRANSCRIPT:\n" + text
		}
	}
	if body != "" {
		parts = append(parts, "VIDEO CONTENT: "+body)
	}

	if notes = strings.TrimSpace(notes); notes != "" {
		parts = append(parts, "ADDITIONAL NOTES: "+notes)
	}
	return strings.Join(parts, "\n\n")
}
