package services

import (
	"context"
	"strings"
	"testing"
)

func TestTranscribe_CaptionsChunkedIntoSegments(t *testing.T) {
	captions := &fakeCaptions{entries: []CaptionEntry{
		{Start: 10, Duration: 4, Text: "intro words"},
		{Start: 50, Duration: 4, Text: "more intro"},
		{Start: 130, Duration: 4, Text: "second chunk"},
		{Start: 250, Duration: 4, Text: "third chunk"},
	}}
	tr := NewTranscriber(newTestLogger(t), captions, nil, &fakeMedia{}, 120)

	got, err := tr.Transcribe(context.Background(), "http://x", "vid1", 300, nil)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(got.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d: %#v", len(got.Segments), got.Segments)
	}
	first := got.Segments[0]
	if first.StartTime != 0 || first.EndTime != 120 || first.Text != "intro words more intro" {
		t.Fatalf("unexpected first segment: %#v", first)
	}
	last := got.Segments[2]
	if last.StartTime != 240 || last.EndTime != 300 {
		t.Fatalf("last segment should be clamped to duration: %#v", last)
	}
	if got.FullText != "intro words more intro second chunk third chunk" {
		t.Fatalf("unexpected full text: %q", got.FullText)
	}
	if got.Duration != 300 {
		t.Fatalf("unexpected duration: %v", got.Duration)
	}
}

func TestTranscribe_WindowFiltersCaptionsAndKeepsAbsoluteTime(t *testing.T) {
	captions := &fakeCaptions{entries: []CaptionEntry{
		{Start: 10, Text: "before window"},
		{Start: 610, Text: "inside early"},
		{Start: 1100, Text: "inside late"},
		{Start: 1200, Text: "at window end"},
	}}
	tr := NewTranscriber(newTestLogger(t), captions, nil, &fakeMedia{}, 120)

	got, err := tr.Transcribe(context.Background(), "http://x", "vid1", 1500, &TimeWindow{Start: 600, End: 1200})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d: %#v", len(got.Segments), got.Segments)
	}
	if got.Segments[0].StartTime != 600 || got.Segments[0].Text != "inside early" {
		t.Fatalf("unexpected first segment: %#v", got.Segments[0])
	}
	if got.Segments[1].StartTime != 1080 || got.Segments[1].EndTime != 1200 {
		t.Fatalf("unexpected second segment: %#v", got.Segments[1])
	}
	for _, s := range got.Segments {
		if s.Text == "before window" || s.Text == "at window end" {
			t.Fatalf("entry outside half-open window leaked in: %#v", s)
		}
	}
}

func TestTranscribe_SpeechFallbackShiftsWordOffsets(t *testing.T) {
	captions := &fakeCaptions{fetchErr: ErrCaptionsDisabled, langErr: ErrCaptionsDisabled}
	media := &fakeMedia{}
	speech := &fakeSpeech{result: &SpeechResult{
		FullText: "hello world again",
		Words: []SpeechWord{
			{Word: "hello", Start: 5, End: 6},
			{Word: "world", Start: 10, End: 11},
			{Word: "again", Start: 130, End: 131},
		},
	}}
	tr := NewTranscriber(newTestLogger(t), captions, speech, media, 120)

	got, err := tr.Transcribe(context.Background(), "http://x", "vid1", 1500, &TimeWindow{Start: 600, End: 1200})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if media.lastOpts.StartSec != 600 || media.lastOpts.EndSec != 1200 {
		t.Fatalf("audio download should be bounded to the window: %#v", media.lastOpts)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d: %#v", len(got.Segments), got.Segments)
	}
	if got.Segments[0].StartTime != 600 || got.Segments[0].Text != "hello world" {
		t.Fatalf("word offsets not shifted to absolute time: %#v", got.Segments[0])
	}
	if got.Segments[1].StartTime != 720 || got.Segments[1].Text != "again" {
		t.Fatalf("unexpected second segment: %#v", got.Segments[1])
	}
}

func TestTranscribe_SpeechWithoutWordsUsesSingleSegment(t *testing.T) {
	captions := &fakeCaptions{fetchErr: ErrNoEnglishTrack}
	speech := &fakeSpeech{result: &SpeechResult{FullText: "whole recording text"}}
	tr := NewTranscriber(newTestLogger(t), captions, speech, &fakeMedia{}, 120)

	got, err := tr.Transcribe(context.Background(), "http://x", "vid1", 90, nil)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(got.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(got.Segments))
	}
	s := got.Segments[0]
	if s.StartTime != 0 || s.EndTime != 90 || s.Text != "whole recording text" {
		t.Fatalf("unexpected segment: %#v", s)
	}
}

func TestTranscribe_NoCaptionsNoSpeechFails(t *testing.T) {
	captions := &fakeCaptions{fetchErr: ErrCaptionsDisabled}
	tr := NewTranscriber(newTestLogger(t), captions, nil, &fakeMedia{}, 120)

	_, err := tr.Transcribe(context.Background(), "http://x", "vid1", 300, nil)
	if err == nil {
		t.Fatal("expected error when neither captions nor speech are available")
	}
	if !strings.Contains(err.Error(), "speech-to-text is not configured") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWindowBounds(t *testing.T) {
	base, limit := windowBounds(300, nil)
	if base != 0 || limit != 300 {
		t.Fatalf("nil window: base=%v limit=%v", base, limit)
	}
	base, limit = windowBounds(1500, &TimeWindow{Start: 1200, End: 1800})
	if base != 1200 || limit != 1500 {
		t.Fatalf("window end should be clamped to duration: base=%v limit=%v", base, limit)
	}
}
