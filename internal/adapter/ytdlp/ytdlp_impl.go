package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/recipe-service/internal/entity"
)

// ErrNoAudio is returned when yt-dlp exits cleanly but leaves no audio file.
var ErrNoAudio = errors.New("no audio file found after download")

// waitDelay bounds how long a killed process may hold its output pipes open.
const waitDelay = 2 * time.Second

// Runner shells out to the yt-dlp binary.
type Runner struct {
	binaryPath string
	timeout    time.Duration
}

// NewRunner creates a Runner. timeout bounds every invocation.
func NewRunner(binaryPath string, timeout time.Duration) *Runner {
	if binaryPath == "" {
		binaryPath = "yt-dlp" // Assumes yt-dlp is in PATH
	}
	return &Runner{binaryPath: binaryPath, timeout: timeout}
}

// VideoInfo is the subset of `yt-dlp -J` output used here.
type VideoInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Thumbnail   string  `json:"thumbnail"`
	Duration    float64 `json:"duration"`
	Uploader    string  `json:"uploader"`
}

func (r *Runner) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binaryPath, args...)
	cmd.WaitDelay = waitDelay

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("yt-dlp timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("yt-dlp failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}

// VideoInfo dumps the metadata of a single video without downloading it.
func (r *Runner) VideoInfo(ctx context.Context, videoURL string) (*VideoInfo, error) {
	out, err := r.run(ctx, "-J", "--no-warnings", "--no-playlist", "--skip-download", videoURL)
	if err != nil {
		return nil, err
	}
	var info VideoInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("decode yt-dlp output: %w", err)
	}
	return &info, nil
}

// Fetch returns the caption-less content of a video, used for platforms
// whose pages expose nothing beyond title and description.
func (r *Runner) Fetch(ctx context.Context, videoURL string) (*entity.VideoContent, error) {
	info, err := r.VideoInfo(ctx, videoURL)
	if err != nil {
		return nil, err
	}
	content := &entity.VideoContent{
		Title:           strings.TrimSpace(info.Title),
		Description:     strings.TrimSpace(info.Description),
		ThumbnailURL:    info.Thumbnail,
		DurationSeconds: int(info.Duration),
	}
	var parts []string
	for _, p := range []string{content.Title, content.Description} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	content.CombinedText = strings.Join(parts, "\n\n")
	return content, nil
}

// DownloadAudio extracts the best audio track as mp3 into dir.
func (r *Runner) DownloadAudio(ctx context.Context, videoURL, dir string) (string, error) {
	template := filepath.Join(dir, "audio.%(ext)s")
	_, err := r.run(ctx,
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--no-playlist",
		"--no-warnings",
		"--output", template,
		videoURL,
	)
	if err != nil {
		return "", err
	}

	matches, err := filepath.Glob(filepath.Join(dir, "audio.*"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if strings.HasSuffix(m, ".mp3") {
			return m, nil
		}
	}
	if len(matches) > 0 {
		return matches[0], nil
	}
	return "", ErrNoAudio
}
