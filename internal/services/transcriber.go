package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/recapio/recapio-backend/internal/apierr"
	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/types"
)

// TimeWindow bounds one batch of a long video. Half-open: [Start, End).
type TimeWindow struct {
	Start float64
	End   float64
}

// Transcriber produces a uniformly re-chunked transcript for a whole
// video or one batch window. Caption tracks are tried first; when they
// are unavailable the audio is downloaded and sent to speech-to-text.
type Transcriber interface {
	Transcribe(ctx context.Context, url, videoID string, duration float64, window *TimeWindow) (*types.VideoTranscript, error)
}

type transcriber struct {
	log      *logger.Logger
	captions CaptionProvider
	speech   SpeechProvider
	media    MediaToolsService

	segmentSec float64
}

func NewTranscriber(log *logger.Logger, captions CaptionProvider, speech SpeechProvider, media MediaToolsService, segmentSec float64) Transcriber {
	if segmentSec <= 0 {
		segmentSec = 120
	}
	return &transcriber{
		log:        log.With("service", "Transcriber"),
		captions:   captions,
		speech:     speech,
		media:      media,
		segmentSec: segmentSec,
	}
}

func (t *transcriber) Transcribe(ctx context.Context, url, videoID string, duration float64, window *TimeWindow) (*types.VideoTranscript, error) {
	entries, err := t.captions.FetchEnglish(ctx, videoID)
	if err == nil {
		if window != nil {
			entries = filterEntriesToWindow(entries, window.Start, window.End)
		}
		if len(entries) > 0 {
			return t.fromCaptions(entries, duration, window), nil
		}
		// window had no caption coverage; fall through to speech
		err = ErrNoTranscript
	}

	if !errors.Is(err, ErrCaptionsDisabled) && !errors.Is(err, ErrNoTranscript) && !errors.Is(err, ErrNoEnglishTrack) {
		t.log.Warn("caption fetch failed, falling back to speech", "video_id", videoID, "error", err)
	} else {
		t.log.Info("captions unavailable, using speech-to-text", "video_id", videoID, "reason", err.Error())
	}

	return t.fromSpeech(ctx, url, videoID, duration, window)
}

func (t *transcriber) fromCaptions(entries []CaptionEntry, duration float64, window *TimeWindow) *types.VideoTranscript {
	base, limit := windowBounds(duration, window)
	segments := make([]types.VideoSegment, 0)

	bucketTexts := map[int][]string{}
	maxBucket := -1
	for _, e := range entries {
		rel := e.Start - base
		if rel < 0 {
			rel = 0
		}
		bucket := int(rel / t.segmentSec)
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		bucketTexts[bucket] = append(bucketTexts[bucket], text)
		if bucket > maxBucket {
			maxBucket = bucket
		}
	}

	for b := 0; b <= maxBucket; b++ {
		texts, ok := bucketTexts[b]
		if !ok {
			continue
		}
		start := base + float64(b)*t.segmentSec
		end := math.Min(start+t.segmentSec, limit)
		segments = append(segments, types.VideoSegment{
			StartTime: start,
			EndTime:   end,
			Text:      strings.Join(texts, " "),
		})
	}

	return buildTranscript(segments, limit-base)
}

func (t *transcriber) fromSpeech(ctx context.Context, url, videoID string, duration float64, window *TimeWindow) (*types.VideoTranscript, error) {
	if t.speech == nil {
		return nil, apierr.TranscriptionFailed(fmt.Errorf("no captions for %s and speech-to-text is not configured", videoID))
	}
	base, limit := windowBounds(duration, window)

	opts := AudioDownloadOptions{}
	if window != nil {
		opts.StartSec = window.Start
		opts.EndSec = window.End
	}

	audioPath, cleanup, err := t.media.DownloadAudio(ctx, url, opts)
	if err != nil {
		return nil, apierr.TranscriptionFailed(fmt.Errorf("audio download for %s: %w", videoID, err))
	}
	defer cleanup()

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, apierr.TranscriptionFailed(fmt.Errorf("read audio for %s: %w", videoID, err))
	}

	result, err := t.speech.TranscribeAudioBytes(ctx, audio, "audio/flac")
	if err != nil {
		return nil, apierr.TranscriptionFailed(fmt.Errorf("speech recognition for %s: %w", videoID, err))
	}
	if strings.TrimSpace(result.FullText) == "" {
		return nil, apierr.TranscriptionFailed(fmt.Errorf("empty speech result for %s", videoID))
	}

	// Word offsets are relative to the downloaded section; base shifts
	// them back to absolute video time.
	segments := t.segmentsFromWords(result.Words, base, limit)
	if len(segments) == 0 {
		segments = []types.VideoSegment{{StartTime: base, EndTime: limit, Text: strings.TrimSpace(result.FullText)}}
	}
	return buildTranscript(segments, limit-base), nil
}

func (t *transcriber) segmentsFromWords(words []SpeechWord, base, limit float64) []types.VideoSegment {
	if len(words) == 0 {
		return nil
	}

	bucketTexts := map[int][]string{}
	maxBucket := -1
	for _, w := range words {
		word := strings.TrimSpace(w.Word)
		if word == "" {
			continue
		}
		bucket := int(w.Start / t.segmentSec)
		bucketTexts[bucket] = append(bucketTexts[bucket], word)
		if bucket > maxBucket {
			maxBucket = bucket
		}
	}

	segments := make([]types.VideoSegment, 0, maxBucket+1)
	for b := 0; b <= maxBucket; b++ {
		texts, ok := bucketTexts[b]
		if !ok {
			continue
		}
		start := base + float64(b)*t.segmentSec
		end := math.Min(start+t.segmentSec, limit)
		segments = append(segments, types.VideoSegment{
			StartTime: start,
			EndTime:   end,
			Text:      strings.Join(texts, " "),
		})
	}
	return segments
}

func filterEntriesToWindow(entries []CaptionEntry, start, end float64) []CaptionEntry {
	out := make([]CaptionEntry, 0, len(entries))
	for _, e := range entries {
		if e.Start >= start && e.Start < end {
			out = append(out, e)
		}
	}
	return out
}

func windowBounds(duration float64, window *TimeWindow) (base, limit float64) {
	if window == nil {
		return 0, duration
	}
	limit = window.End
	if duration > 0 && duration < limit {
		limit = duration
	}
	return window.Start, limit
}

func buildTranscript(segments []types.VideoSegment, duration float64) *types.VideoTranscript {
	texts := make([]string, 0, len(segments))
	for _, s := range segments {
		texts = append(texts, s.Text)
	}
	return &types.VideoTranscript{
		Segments: segments,
		FullText: strings.Join(texts, " "),
		Duration: duration,
	}
}
