package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

// TitleFetcher resolves a human readable title for a video id.
type TitleFetcher interface {
	FetchTitle(ctx context.Context, videoID string) (string, error)
}

// DataAPI looks up titles through the YouTube Data API v3.
type DataAPI struct {
	svc *ytapi.Service
}

func NewDataAPI(ctx context.Context, apiKey string, opts ...option.ClientOption) (*DataAPI, error) {
	if apiKey == "" {
		return nil, errors.New("youtube data api key is required")
	}
	svc, err := ytapi.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	return &DataAPI{svc: svc}, nil
}

func (d *DataAPI) FetchTitle(ctx context.Context, videoID string) (string, error) {
	resp, err := d.svc.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("videos.list %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return "", fmt.Errorf("video %s not found", videoID)
	}
	title := strings.TrimSpace(resp.Items[0].Snippet.Title)
	if title == "" {
		return "", fmt.Errorf("video %s has no title", videoID)
	}
	return title, nil
}

// TitleChain tries each fetcher in order and returns the first title found.
type TitleChain []TitleFetcher

func (c TitleChain) FetchTitle(ctx context.Context, videoID string) (string, error) {
	var errs []error
	for _, f := range c {
		if f == nil {
			continue
		}
		title, err := f.FetchTitle(ctx, videoID)
		if err == nil {
			return title, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("no title source for video %s", videoID)
	}
	return "", errors.Join(errs...)
}
