package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TranscriptFetchTool retrieves the caption track for a YouTube video
// via the public timedtext endpoint, walking a language fallback chain
// until one track responds with content.
type TranscriptFetchTool struct {
	Endpoint  string
	Language  string
	UserAgent string
	client    *http.Client
}

func NewTranscriptFetchTool(languagePreference string) *TranscriptFetchTool {
	if languagePreference == "" {
		languagePreference = "en"
	}
	return &TranscriptFetchTool{
		Endpoint:  "https://video.google.com/timedtext",
		Language:  languagePreference,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *TranscriptFetchTool) Name() string {
	return "youtube_transcript_fetch_tool"
}

func (t *TranscriptFetchTool) Description() string {
	return "Fetch the transcript text of a YouTube video by its video ID."
}

func (t *TranscriptFetchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"video_id": map[string]any{
				"type":        "string",
				"description": "The 11-character YouTube video ID",
			},
		},
		"required": []string{"video_id"},
	}
}

func (t *TranscriptFetchTool) Requires() []Field {
	return []Field{FieldVideoID}
}

func (t *TranscriptFetchTool) Provides() []Field {
	return []Field{FieldTranscript}
}

// languageChain returns the preferred language followed by the stock
// fallbacks, de-duplicated in order.
func (t *TranscriptFetchTool) languageChain() []string {
	fallbacks := []string{t.Language, "en", "en-US", "a.en", "fr", "fr-FR", "a.fr"}
	seen := make(map[string]bool, len(fallbacks))
	var chain []string
	for _, lang := range fallbacks {
		if !seen[lang] {
			seen[lang] = true
			chain = append(chain, lang)
		}
	}
	return chain
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Lines   []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

func (t *TranscriptFetchTool) Call(ctx context.Context, in Inputs) (Outputs, error) {
	videoID := in[FieldVideoID]

	var lastErr error
	for _, lang := range t.languageChain() {
		text, err := t.fetch(ctx, videoID, lang)
		if err != nil {
			lastErr = err
			continue
		}
		if text != "" {
			return Outputs{FieldTranscript: text}, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no transcript available for video %s: %v", videoID, lastErr)
	}
	return nil, fmt.Errorf("no transcript available for video %s", videoID)
}

func (t *TranscriptFetchTool) fetch(ctx context.Context, videoID, lang string) (string, error) {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("lang", lang)

	req, err := http.NewRequestWithContext(ctx, "GET", t.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", t.UserAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("timedtext returned status %d", resp.StatusCode)
	}

	var doc timedText
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("failed to parse caption track: %v", err)
	}

	parts := make([]string, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		if trimmed := strings.TrimSpace(line.Text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " "), nil
}
