package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/recapio/recapio-backend/internal/logger"
)

// MediaToolsService is the glue around system binaries:
//
// REQUIRED BINARIES in worker runtime:
// - yt-dlp for metadata probing and audio download
// - ffmpeg as yt-dlp's extraction backend
//
// This service is synchronous and deterministic, but should be called from
// worker jobs, not request handlers.
type MediaToolsService interface {
	AssertReady(ctx context.Context) error

	// ProbeMetadata runs yt-dlp --dump-json without downloading media.
	ProbeMetadata(ctx context.Context, url string) (*MediaMetadata, error)

	// DownloadAudio extracts the audio track to a FLAC file under the work
	// root. Callers must invoke cleanup when done with the file.
	DownloadAudio(ctx context.Context, url string, opts AudioDownloadOptions) (path string, cleanup func(), err error)
}

type MediaMetadata struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Language string  `json:"language"`
	Uploader string  `json:"uploader"`
}

type AudioDownloadOptions struct {
	// StartSec/EndSec bound the downloaded section; both zero means whole.
	StartSec float64
	EndSec   float64
}

type mediaToolsService struct {
	log *logger.Logger

	ytdlpPath  string
	ffmpegPath string

	workRoot string

	defaultTimeout time.Duration
}

func NewMediaToolsService(log *logger.Logger) MediaToolsService {
	slog := log.With("service", "MediaToolsService")
	return &mediaToolsService{
		log:            slog,
		ytdlpPath:      "yt-dlp",
		ffmpegPath:     "ffmpeg",
		workRoot:       "/tmp/recapio-media",
		defaultTimeout: 15 * time.Minute,
	}
}

func (m *mediaToolsService) AssertReady(_ context.Context) error {
	for _, bin := range []string{m.ytdlpPath, m.ffmpegPath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("missing required binary %q in PATH: %w", bin, err)
		}
	}
	if err := os.MkdirAll(m.workRoot, 0o755); err != nil {
		return fmt.Errorf("create workRoot: %w", err)
	}
	return nil
}

func (m *mediaToolsService) ProbeMetadata(ctx context.Context, url string) (*MediaMetadata, error) {
	ctx = defaultCtx(ctx)
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	out, err := m.runCmd(ctx, m.ytdlpPath,
		"--dump-json",
		"--no-download",
		"--no-playlist",
		url,
	)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp probe: %w", err)
	}

	var meta MediaMetadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, fmt.Errorf("parse yt-dlp metadata: %w", err)
	}
	return &meta, nil
}

func (m *mediaToolsService) DownloadAudio(ctx context.Context, url string, opts AudioDownloadOptions) (string, func(), error) {
	ctx = defaultCtx(ctx)
	ctx, cancel := context.WithTimeout(ctx, m.defaultTimeout)
	defer cancel()

	if err := os.MkdirAll(m.workRoot, 0o755); err != nil {
		return "", func() {}, fmt.Errorf("mkdir workRoot: %w", err)
	}

	base := uuid.NewString()
	outTemplate := filepath.Join(m.workRoot, base+".%(ext)s")
	outPath := filepath.Join(m.workRoot, base+".flac")

	args := []string{
		"-x",
		"--audio-format", "flac",
		"--audio-quality", "0",
		"--no-playlist",
		"-o", outTemplate,
	}
	if opts.EndSec > opts.StartSec {
		args = append(args, "--download-sections",
			fmt.Sprintf("*%.0f-%.0f", opts.StartSec, opts.EndSec),
			"--force-keyframes-at-cuts",
		)
	}
	args = append(args, url)

	if _, err := m.runCmd(ctx, m.ytdlpPath, args...); err != nil {
		return "", func() {}, fmt.Errorf("yt-dlp audio download: %w", err)
	}

	if _, err := os.Stat(outPath); err != nil {
		return "", func() {}, fmt.Errorf("downloaded audio missing at %s: %w", outPath, err)
	}

	cleanup := func() { _ = os.Remove(outPath) }
	return outPath, cleanup, nil
}

func (m *mediaToolsService) runCmd(ctx context.Context, bin string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	m.log.Debug("ran media command",
		"bin", bin,
		"args", strings.Join(args, " "),
		"took", time.Since(start).String(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w; stderr=%s", bin, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func defaultCtx(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
