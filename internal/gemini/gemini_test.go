package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ErrTimeout},
		{"http 429", &googleapi.Error{Code: http.StatusTooManyRequests}, ErrRateLimited},
		{"http 504", &googleapi.Error{Code: http.StatusGatewayTimeout}, ErrTimeout},
		{"grpc exhausted", status.Error(codes.ResourceExhausted, "quota"), ErrRateLimited},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "slow"), ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("classify(%v) dropped the original error", tt.err)
			}
		})
	}
}

func TestClassify_Other(t *testing.T) {
	base := errors.New("permission denied")
	got := classify(base)
	if errors.Is(got, ErrRateLimited) || errors.Is(got, ErrTimeout) {
		t.Errorf("classify(%v) = %v, unexpected sentinel", base, got)
	}
	if !errors.Is(got, base) {
		t.Error("original error not wrapped")
	}
	if classify(nil) != nil {
		t.Error("classify(nil) != nil")
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("- point one\n"),
				genai.Blob{MIMEType: "image/png", Data: []byte{1}},
				genai.Text("- point two"),
			}},
		}},
	}
	if got := responseText(resp); got != "- point one\n- point two" {
		t.Errorf("responseText = %q", got)
	}

	for _, empty := range []*genai.GenerateContentResponse{
		nil,
		{},
		{Candidates: []*genai.Candidate{{}}},
	} {
		if got := responseText(empty); got != "" {
			t.Errorf("responseText(%+v) = %q, want empty", empty, got)
		}
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty API key")
	}
}
