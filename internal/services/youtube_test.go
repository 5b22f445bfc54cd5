package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testYouTubeService(apiBase string) *YouTubeService {
	return &YouTubeService{
		apiKey:     "test-key",
		apiBase:    apiBase,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		maxItems:   100,
	}
}

func TestYouTubeResolveTarget_NoLookupNeeded(t *testing.T) {
	svc := testYouTubeService("http://invalid.local")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare channel ID", "UCabcdefghijklmnopqrstuv", "UCabcdefghijklmnopqrstuv"},
		{"channel URL", "https://www.youtube.com/channel/UCabcdefghijklmnopqrstuv", "UCabcdefghijklmnopqrstuv"},
		{"channel URL with trailing path", "https://youtube.com/channel/UCabcdefghijklmnopqrstuv/videos", "UCabcdefghijklmnopqrstuv"},
		{"whitespace around ID", "  UCabcdefghijklmnopqrstuv  ", "UCabcdefghijklmnopqrstuv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ResolveTarget(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ResolveTarget(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ResolveTarget(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestYouTubeResolveTarget_Invalid(t *testing.T) {
	svc := testYouTubeService("http://invalid.local")

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"malformed channel ID in URL", "https://www.youtube.com/channel/notachannel"},
		{"garbage", "!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ResolveTarget(context.Background(), tt.input)
			var invalidTarget *InvalidTargetError
			if !errors.As(err, &invalidTarget) {
				t.Fatalf("ResolveTarget(%q) error = %v, want InvalidTargetError", tt.input, err)
			}
		})
	}
}

func TestYouTubeResolveTarget_HandleLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("forHandle"); got != "@somecreator" {
			t.Errorf("forHandle = %q, want @somecreator", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"UCabcdefghijklmnopqrstuv"}]}`))
	}))
	defer srv.Close()

	svc := testYouTubeService(srv.URL)

	for _, input := range []string{"@somecreator", "somecreator", "https://www.youtube.com/@somecreator"} {
		got, err := svc.ResolveTarget(context.Background(), input)
		if err != nil {
			t.Fatalf("ResolveTarget(%q) failed: %v", input, err)
		}
		if got != "UCabcdefghijklmnopqrstuv" {
			t.Fatalf("ResolveTarget(%q) = %q", input, got)
		}
	}
}

func TestYouTubeResolveTarget_UnknownHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	svc := testYouTubeService(srv.URL)

	_, err := svc.ResolveTarget(context.Background(), "@nobodyhere")
	var invalidTarget *InvalidTargetError
	if !errors.As(err, &invalidTarget) {
		t.Fatalf("expected InvalidTargetError for unknown handle, got %v", err)
	}
}

func TestYouTubeAPIGet_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		check      func(error) bool
	}{
		{"quota exhausted", http.StatusForbidden, func(err error) bool {
			var e *RateLimitError
			return errors.As(err, &e)
		}},
		{"throttled", http.StatusTooManyRequests, func(err error) bool {
			var e *RateLimitError
			return errors.As(err, &e)
		}},
		{"missing resource", http.StatusNotFound, func(err error) bool {
			var e *NotFoundError
			return errors.As(err, &e)
		}},
		{"server error", http.StatusInternalServerError, func(err error) bool {
			var e *UpstreamError
			return errors.As(err, &e)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer srv.Close()

			svc := testYouTubeService(srv.URL)
			_, err := svc.FetchMetadata(context.Background(), "UCabcdefghijklmnopqrstuv")
			if !tt.check(err) {
				t.Fatalf("status %d mapped to %T (%v)", tt.statusCode, err, err)
			}
		})
	}
}

func TestParseISO8601Duration(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"PT15S", 15},
		{"PT4M13S", 253},
		{"PT1H2M3S", 3723},
		{"PT2H", 7200},
		{"P1DT2H", 0}, // days unsupported, treated as unknown
		{"garbage", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := parseISO8601Duration(tt.input); got != tt.want {
			t.Errorf("parseISO8601Duration(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
