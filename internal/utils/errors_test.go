package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{"[youtube] abc: Video unavailable", ErrUnavailable},
		{"VIDEO UNAVAILABLE", ErrUnavailable},
		{"[youtube] abc: Private video. Sign in if you've been granted access to this video", ErrUnavailable},
		{"Sign in to confirm you're not a bot. Use --cookies-from-browser", ErrAuthRequired},
		{"This video has been removed by the uploader", ErrUnavailable},
		{"Video unavailable. This video is no longer available due to a copyright claim by X", ErrCopyrightRestricted},
		{"The uploader has not made this video available in your country", ErrGeoRestricted},
		{"Video unavailable. X has blocked it in your country on copyright grounds", ErrGeoRestricted},
		{"This video is not available in your country", ErrGeoRestricted},
		{"HTTP Error 429: Too Many Requests", ErrExtractionFailed},
		{"", ErrExtractionFailed},
	}

	for _, tt := range tests {
		if got := ClassifyMessage(tt.msg); got != tt.want {
			t.Errorf("ClassifyMessage(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

func TestExtractionErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewExtractionError("Video unavailable"))

	if !errors.Is(err, ErrUnavailable) {
		t.Error("errors.Is should see the category")
	}
	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) || extractionErr.Message != "Video unavailable" {
		t.Errorf("errors.As failed or message changed: %v", extractionErr)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrInvalidVideoID, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrNoAudioURL, http.StatusNotFound},
		{NewExtractionError("Video unavailable"), http.StatusNotFound},
		{NewExtractionError("sign in to confirm your age"), http.StatusForbidden},
		{NewExtractionError("copyright"), http.StatusForbidden},
		{NewExtractionError("not available in your country"), http.StatusUnavailableForLegalReasons},
		{NewExtractionError("boom"), http.StatusInternalServerError},
		{errors.New("nil pointer"), http.StatusInternalServerError},
		{ErrYTDLPNotFound, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusCode(tt.err); got != tt.want {
			t.Errorf("StatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestIsExpected(t *testing.T) {
	if !IsExpected(NewExtractionError("boom")) {
		t.Error("extraction errors are expected")
	}
	if !IsExpected(ErrNotFound) || !IsExpected(ErrInvalidVideoID) {
		t.Error("not-found and invalid id are expected")
	}
	if IsExpected(errors.New("nil pointer")) || IsExpected(ErrYTDLPNotFound) {
		t.Error("unclassified errors are unexpected")
	}
}
