package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/recapio/recapio-backend/internal/apierr"
	"github.com/recapio/recapio-backend/internal/logger"
)

// VideoIntakeService validates a submitted URL and resolves it to a
// canonical video identity plus metadata before any credits are spent.
type VideoIntakeService interface {
	CanonicalID(rawURL string) (string, error)
	FetchMetadata(ctx context.Context, rawURL string) (*MediaMetadata, error)
	Validate(ctx context.Context, videoID string, meta *MediaMetadata) error
}

type videoIntakeService struct {
	log      *logger.Logger
	media    MediaToolsService
	captions CaptionProvider

	maxDurationSec float64
}

func NewVideoIntakeService(log *logger.Logger, media MediaToolsService, captions CaptionProvider, maxDurationSec float64) VideoIntakeService {
	return &videoIntakeService{
		log:            log.With("service", "VideoIntakeService"),
		media:          media,
		captions:       captions,
		maxDurationSec: maxDurationSec,
	}
}

var (
	shortsRe = regexp.MustCompile(`youtube\.com/shorts/`)

	videoIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/|youtube\.com/live/)([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`(?:m\.youtube\.com|music\.youtube\.com|gaming\.youtube\.com)/watch\?v=([a-zA-Z0-9_-]{11})`),
	}
)

// CanonicalID maps every supported YouTube URL shape to the 11-character
// video id, so the same video submitted through different URLs resolves
// to one record. Shorts are rejected. Non-YouTube URLs hash to a stable
// synthetic id.
func (s *videoIntakeService) CanonicalID(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", apierr.InvalidURL(errors.New("empty url"))
	}

	if shortsRe.MatchString(rawURL) {
		return "", apierr.UnsupportedVideoType("shorts")
	}

	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(rawURL); len(m) > 1 {
			return m[1], nil
		}
	}

	if strings.Contains(rawURL, "youtube.com") || strings.Contains(rawURL, "youtu.be") {
		return "", apierr.InvalidURL(fmt.Errorf("unrecognized youtube url: %s", rawURL))
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "", apierr.InvalidURL(fmt.Errorf("not a url: %s", rawURL))
	}

	sum := md5.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:]), nil
}

func (s *videoIntakeService) FetchMetadata(ctx context.Context, rawURL string) (*MediaMetadata, error) {
	meta, err := s.media.ProbeMetadata(ctx, rawURL)
	if err != nil {
		return nil, apierr.MetadataUnavailable(err)
	}
	if meta.Title == "" {
		meta.Title = "Untitled Video"
	}
	return meta, nil
}

// Validate enforces the duration ceiling and the english-content gate.
// Language is checked against available caption tracks first; when the
// video has no captions at all, the metadata language field decides.
func (s *videoIntakeService) Validate(ctx context.Context, videoID string, meta *MediaMetadata) error {
	if meta == nil {
		return apierr.MetadataUnavailable(errors.New("nil metadata"))
	}
	if meta.Duration <= 0 {
		return apierr.MetadataUnavailable(fmt.Errorf("video %s has no duration", videoID))
	}
	if meta.Duration > s.maxDurationSec {
		return apierr.DurationExceeded(meta.Duration, s.maxDurationSec)
	}

	langs, err := s.captions.ListTrackLanguages(ctx, videoID)
	if err == nil {
		for _, code := range langs {
			if code == "en" || strings.HasPrefix(code, "en-") {
				return nil
			}
		}
		s.log.Info("rejecting non-english video", "video_id", videoID, "languages", langs)
		return apierr.UnsupportedLanguage()
	}
	if !errors.Is(err, ErrCaptionsDisabled) {
		s.log.Warn("caption track listing failed, falling back to metadata language",
			"video_id", videoID, "error", err)
	}

	lang := strings.ToLower(strings.TrimSpace(meta.Language))
	if lang == "" || lang == "en" || strings.HasPrefix(lang, "en-") {
		return nil
	}
	s.log.Info("rejecting non-english video", "video_id", videoID, "metadata_language", meta.Language)
	return apierr.UnsupportedLanguage()
}
