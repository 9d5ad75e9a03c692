package whisper

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/internal/repository"
)

type audioClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// Transcriber downloads a video's audio and sends it to the Whisper API.
type Transcriber struct {
	audio      audioClient
	downloader repository.AudioDownloader
	model      string
	timeout    time.Duration
}

// NewTranscriber returns a Transcriber. An empty apiKey leaves it
// unavailable.
func NewTranscriber(apiKey, model string, downloader repository.AudioDownloader, timeout time.Duration) *Transcriber {
	t := &Transcriber{downloader: downloader, model: model, timeout: timeout}
	if apiKey != "" {
		t.audio = openai.NewClient(apiKey)
	}
	if t.model == "" {
		t.model = openai.Whisper1
	}
	return t
}

func (t *Transcriber) Available() bool {
	return t.audio != nil && t.downloader != nil
}

// Transcribe never returns an error; the Transcript's ErrorKind says what
// went wrong.
func (t *Transcriber) Transcribe(ctx context.Context, url string) entity.Transcript {
	if !t.Available() {
		return entity.Transcript{ErrorKind: entity.TranscriptUnavailable}
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	dir, err := os.MkdirTemp("", "recipe-audio-*")
	if err != nil {
		slog.Error("Failed to create audio temp dir", "error", err)
		return entity.Transcript{ErrorKind: entity.TranscriptDownloadFailed}
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("Failed to remove audio temp dir", "dir", dir, "error", err)
		}
	}()

	startTime := time.Now()
	path, err := t.downloader.DownloadAudio(ctx, url, dir)
	if err != nil {
		slog.Warn("Audio download failed", "url", url, "error", err)
		return failure(ctx, entity.TranscriptDownloadFailed)
	}

	resp, err := t.audio.CreateTranscription(ctx, openai.AudioRequest{
		Model:       t.model,
		FilePath:    path,
		Language:    "en",
		Format:      openai.AudioResponseFormatVerboseJSON,
		Temperature: 0,
	})
	if err != nil {
		slog.Warn("Transcription request failed", "url", url, "error", err)
		return failure(ctx, entity.TranscriptProviderFailed)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return entity.Transcript{ErrorKind: entity.TranscriptProviderFailed}
	}

	slog.Info("Transcribed audio", "url", url, "chars", len(text), "duration_ms", time.Since(startTime).Milliseconds())
	return entity.Transcript{
		Success:         true,
		Text:            text,
		DurationSeconds: int(math.Round(resp.Duration)),
	}
}

func failure(ctx context.Context, kind entity.TranscriptErrorKind) entity.Transcript {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = entity.TranscriptTimeout
	}
	return entity.Transcript{ErrorKind: kind}
}
