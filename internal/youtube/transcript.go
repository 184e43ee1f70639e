package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"videoquiz/internal/logger"
)

const (
	DefaultBaseURL = "https://www.youtube.com"

	reYouTube       = `(?:youtube\.com\/(?:[^\/]+\/.+\/|(?:v|e(?:mbed)?|shorts)\/|.*[?&]v=)|youtu\.be\/)([^"&?\/\s]{11})`
	reXMLTranscript = `<text start="([^"]*)"(?: dur="([^"]*)")?[^>]*>([^<]*)<\/text>`
	reTitle         = `<title>(.+?)(?: - YouTube)?</title>`

	maxPageBytes = 8 << 20
)

var (
	ErrInvalidVideoID = errors.New("invalid YouTube URL or video ID")
	ErrNoTranscript   = errors.New("no transcript available")

	videoIDPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	youtubeURLPattern = regexp.MustCompile(reYouTube)
	transcriptPattern = regexp.MustCompile(reXMLTranscript)
	titlePattern      = regexp.MustCompile(reTitle)
)

// Segment is one timed caption line.
type Segment struct {
	Text     string
	Start    float64
	Duration float64
}

// Client scrapes the public watch page for caption tracks and titles.
type Client struct {
	http    *http.Client
	baseURL string
	lang    string
	log     *logger.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(yt *Client) { yt.http = c }
}

func WithBaseURL(u string) Option {
	return func(yt *Client) { yt.baseURL = strings.TrimRight(u, "/") }
}

// WithLanguage selects a caption track by language code. Empty picks the first
// track the page lists.
func WithLanguage(lang string) Option {
	return func(yt *Client) { yt.lang = lang }
}

func WithLogger(l *logger.Logger) Option {
	return func(yt *Client) { yt.log = l }
}

func New(opts ...Option) *Client {
	yt := &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: DefaultBaseURL,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(yt)
	}
	return yt
}

// ParseVideoID accepts a bare 11-character id or any common YouTube URL form.
func ParseVideoID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if videoIDPattern.MatchString(input) {
		return input, nil
	}
	if match := youtubeURLPattern.FindStringSubmatch(input); match != nil {
		return match[1], nil
	}
	return "", ErrInvalidVideoID
}

// JoinSegments trims each segment and joins them with a single space. Blank
// segments are kept, so they show up as a double space.
func JoinSegments(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = strings.TrimSpace(s.Text)
	}
	return strings.Join(parts, " ")
}

// FetchTranscript returns the caption segments of a video.
func (yt *Client) FetchTranscript(ctx context.Context, videoID string) ([]Segment, error) {
	page, err := yt.watchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}

	trackURL, err := yt.captionTrackURL(videoID, page)
	if err != nil {
		return nil, err
	}

	body, err := yt.get(ctx, trackURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}

	matches := transcriptPattern.FindAllStringSubmatch(string(body), -1)
	segments := make([]Segment, 0, len(matches))
	for _, match := range matches {
		start, _ := strconv.ParseFloat(match[1], 64)
		dur, _ := strconv.ParseFloat(match[2], 64)
		segments = append(segments, Segment{
			Text:     html.UnescapeString(html.UnescapeString(match[3])),
			Start:    start,
			Duration: dur,
		})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: caption track for %s is empty", ErrNoTranscript, videoID)
	}

	yt.log.Debug("transcript fetched", "videoId", videoID, "segments", len(segments))
	return segments, nil
}

// FetchTitle reads the video title from the watch page.
func (yt *Client) FetchTitle(ctx context.Context, videoID string) (string, error) {
	page, err := yt.watchPage(ctx, videoID)
	if err != nil {
		return "", err
	}
	match := titlePattern.FindSubmatch(page)
	if len(match) < 2 {
		return "", fmt.Errorf("no title found for video %s", videoID)
	}
	title := strings.TrimSpace(html.UnescapeString(string(match[1])))
	if title == "" || title == "YouTube" {
		return "", fmt.Errorf("no title found for video %s", videoID)
	}
	return title, nil
}

func (yt *Client) watchPage(ctx context.Context, videoID string) ([]byte, error) {
	body, err := yt.get(ctx, fmt.Sprintf("%s/watch?v=%s", yt.baseURL, videoID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video page: %w", err)
	}
	return body, nil
}

func (yt *Client) captionTrackURL(videoID string, page []byte) (string, error) {
	parts := strings.SplitN(string(page), `"captions":`, 2)
	if len(parts) < 2 {
		yt.log.Debug("captions marker missing from video page", "videoId", videoID)
		return "", fmt.Errorf("%w: no captions for video %s", ErrNoTranscript, videoID)
	}

	end := strings.Index(parts[1], `,"videoDetails`)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated captions block for video %s", ErrNoTranscript, videoID)
	}

	var captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []struct {
				BaseURL      string `json:"baseUrl"`
				LanguageCode string `json:"languageCode"`
			} `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	}
	if err := json.Unmarshal([]byte(parts[1][:end]), &captions); err != nil {
		return "", fmt.Errorf("failed to parse captions data: %w", err)
	}

	tracks := captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return "", fmt.Errorf("%w: no caption tracks for video %s", ErrNoTranscript, videoID)
	}
	if yt.lang == "" {
		return tracks[0].BaseURL, nil
	}
	for _, track := range tracks {
		if track.LanguageCode == yt.lang {
			return track.BaseURL, nil
		}
	}
	return "", fmt.Errorf("%w: no transcript in language %s", ErrNoTranscript, yt.lang)
}

func (yt *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := yt.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}
