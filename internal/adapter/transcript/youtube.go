package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/arturoeanton/go-video-rag-ollama/internal/domain"
	"github.com/arturoeanton/go-video-rag-ollama/internal/port"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,20}$`)

// ExtractVideoID pulls the video id out of a YouTube URL. Accepted forms:
// watch?v=<id>, youtu.be/<id>, /embed/<id>, /shorts/<id>, or a bare id.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty video URL")
	}

	// A bare id is accepted as-is.
	if !strings.ContainsAny(raw, "/?.") && videoIDPattern.MatchString(raw) {
		return raw, nil
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse video URL: %w", err)
	}

	host := strings.ToLower(parsed.Hostname())
	if strings.Contains(host, "youtu.be") {
		if id := strings.Trim(parsed.Path, "/"); videoIDPattern.MatchString(id) {
			return id, nil
		}
	}
	if v := parsed.Query().Get("v"); videoIDPattern.MatchString(v) {
		return v, nil
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, p := range parts {
		if (p == "embed" || p == "shorts") && i+1 < len(parts) && videoIDPattern.MatchString(parts[i+1]) {
			return parts[i+1], nil
		}
	}

	return "", fmt.Errorf("could not extract video id from URL %q", raw)
}

// HTTPProvider implements port.TranscriptProvider against a transcript
// service exposing GET /transcripts/{video_id}?lang={lang}.
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPProvider creates a transcript provider for the given service URL.
func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Fetch retrieves the transcript for a video. A 404 or 403 from the service
// surfaces as port.ErrTranscriptUnavailable; other failures are plain errors.
func (p *HTTPProvider) Fetch(ctx context.Context, videoID, language string) (*domain.Transcript, error) {
	endpoint := fmt.Sprintf("%s/transcripts/%s", p.baseURL, url.PathEscape(videoID))
	if language != "" {
		endpoint += "?lang=" + url.QueryEscape(language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", port.ErrTranscriptUnavailable, videoID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: video %s", port.ErrTranscriptUnavailable, videoID)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcript service error (%d): %s", resp.StatusCode, string(body))
	}

	var payload struct {
		VideoID  string `json:"video_id"`
		Language string `json:"language"`
		Text     string `json:"text"`
		Segments []struct {
			Text string `json:"text"`
		} `json:"segments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	text := payload.Text
	if text == "" && len(payload.Segments) > 0 {
		lines := make([]string, 0, len(payload.Segments))
		for _, seg := range payload.Segments {
			if s := strings.TrimSpace(seg.Text); s != "" {
				lines = append(lines, s)
			}
		}
		text = strings.Join(lines, "\n")
	}
	if text == "" {
		return nil, fmt.Errorf("%w: video %s has an empty transcript", port.ErrTranscriptUnavailable, videoID)
	}

	lang := payload.Language
	if lang == "" {
		lang = language
	}

	return &domain.Transcript{VideoID: videoID, Language: lang, Text: text}, nil
}
