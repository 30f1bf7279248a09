package services

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/recapio/recapio-backend/internal/logger"
)

// Sentinel errors let the transcription tiering decide whether to fall
// back to speech-to-text or fail the video outright.
var (
	ErrCaptionsDisabled = errors.New("captions disabled for video")
	ErrNoTranscript     = errors.New("no caption transcript available")
	ErrNoEnglishTrack   = errors.New("no english caption track available")
)

// CaptionEntry is one timed caption line as served by the track endpoint.
type CaptionEntry struct {
	Start    float64
	Duration float64
	Text     string
}

type CaptionProvider interface {
	// ListTrackLanguages returns the language codes of available caption
	// tracks. ErrCaptionsDisabled when the video has no track list at all.
	ListTrackLanguages(ctx context.Context, videoID string) ([]string, error)
	// FetchEnglish downloads and parses the english caption track.
	FetchEnglish(ctx context.Context, videoID string) ([]CaptionEntry, error)
}

type captionProvider struct {
	log        *logger.Logger
	httpClient *http.Client
	userAgent  string
}

func NewCaptionProvider(log *logger.Logger) CaptionProvider {
	ua := os.Getenv("CAPTION_USER_AGENT")
	if ua == "" {
		ua = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	return &captionProvider{
		log:        log.With("service", "CaptionProvider"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  ua,
	}
}

var playerResponseRe = regexp.MustCompile(`var ytInitialPlayerResponse = ({.+?});`)

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind,omitempty"`
}

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

func (p *captionProvider) fetchTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	pageURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch page http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	matches := playerResponseRe.FindSubmatch(body)
	if len(matches) < 2 {
		return nil, fmt.Errorf("player response not found in watch page")
	}

	var pr playerResponse
	if err := json.Unmarshal(matches[1], &pr); err != nil {
		return nil, fmt.Errorf("parse player response: %w", err)
	}
	if pr.Captions == nil {
		return nil, ErrCaptionsDisabled
	}
	tracks := pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, ErrCaptionsDisabled
	}
	return tracks, nil
}

func (p *captionProvider) ListTrackLanguages(ctx context.Context, videoID string) ([]string, error) {
	tracks, err := p.fetchTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(tracks))
	for _, t := range tracks {
		codes = append(codes, t.LanguageCode)
	}
	return codes, nil
}

func selectEnglishTrack(tracks []captionTrack) *captionTrack {
	// Manual english first, then en-XX variants, then auto-generated.
	for i, t := range tracks {
		if t.LanguageCode == "en" && t.Kind != "asr" {
			return &tracks[i]
		}
	}
	for i, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en-") && t.Kind != "asr" {
			return &tracks[i]
		}
	}
	for i, t := range tracks {
		if t.LanguageCode == "en" || strings.HasPrefix(t.LanguageCode, "en-") {
			return &tracks[i]
		}
	}
	return nil
}

func (p *captionProvider) FetchEnglish(ctx context.Context, videoID string) ([]CaptionEntry, error) {
	tracks, err := p.fetchTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}

	track := selectEnglishTrack(tracks)
	if track == nil {
		return nil, ErrNoEnglishTrack
	}

	req, err := http.NewRequestWithContext(ctx, "GET", track.BaseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch caption track: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("caption track http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	entries, err := parseCaptionXML(body)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoTranscript
	}

	p.log.Debug("Fetched caption track", "video_id", videoID, "entries", len(entries), "language", track.LanguageCode)
	return entries, nil
}

type captionText struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}

type captionTranscript struct {
	XMLName xml.Name      `xml:"transcript"`
	Texts   []captionText `xml:"text"`
}

func parseCaptionXML(data []byte) ([]CaptionEntry, error) {
	clean := strings.TrimSpace(string(data))
	if clean == "" {
		return nil, ErrNoTranscript
	}

	var transcript captionTranscript
	if err := xml.Unmarshal([]byte(clean), &transcript); err != nil {
		return nil, fmt.Errorf("parse caption xml: %w", err)
	}

	entries := make([]CaptionEntry, 0, len(transcript.Texts))
	for _, t := range transcript.Texts {
		text := cleanCaptionText(t.Text)
		if text == "" {
			continue
		}
		dur := t.Dur
		if dur <= 0 {
			dur = 2.0
		}
		entries = append(entries, CaptionEntry{Start: t.Start, Duration: dur, Text: text})
	}
	return entries, nil
}

var captionSpaceRe = regexp.MustCompile(`\s+`)

func cleanCaptionText(text string) string {
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	text = captionSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
