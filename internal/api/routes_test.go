package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"videoquiz/internal/api/handlers"
	"videoquiz/internal/apperr"
	"videoquiz/internal/models"
	"videoquiz/internal/notify"
	"videoquiz/internal/pipeline"
)

const testToken = "s3cret-token"

type fakePipeline struct {
	mu sync.Mutex

	fetchErr     error
	summarizeErr error
	quizErr      error

	summarizedSession string
	quizSummary       string
	quizVideo         string
	evalAnswers       []models.Answer
}

func (f *fakePipeline) FetchTranscript(_ context.Context, input string) (*pipeline.FetchResult, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return &pipeline.FetchResult{
		SessionID:  "11111111-2222-3333-4444-555555555555",
		VideoID:    input,
		Transcript: "hello world",
		Chunks:     []models.TranscriptChunk{{ChunkID: 1, Content: "hello world"}},
	}, nil
}

func (f *fakePipeline) SummarizePending(_ context.Context, sessionID string) (*pipeline.SummaryResult, error) {
	f.mu.Lock()
	f.summarizedSession = sessionID
	f.mu.Unlock()
	if f.summarizeErr != nil {
		return nil, f.summarizeErr
	}
	return &pipeline.SummaryResult{VideoID: "vid", Summary: "- a point", Title: "A Title", Status: pipeline.StatusOK}, nil
}

func (f *fakePipeline) SummarizeTranscript(_ context.Context, transcript string) (*pipeline.SummaryResult, error) {
	return &pipeline.SummaryResult{Summary: "summary of " + transcript, Status: pipeline.StatusOK}, nil
}

func (f *fakePipeline) GenerateQuestionnaire(_ context.Context, summary, videoID string) (*models.Questionnaire, error) {
	f.quizSummary, f.quizVideo = summary, videoID
	if f.quizErr != nil {
		return nil, f.quizErr
	}
	return &models.Questionnaire{
		Title:     "Auto-Generated Questionnaire",
		Questions: []models.Question{{ID: "q1", Type: models.QuestionTypeShort, Question: "Why?", Required: true}},
	}, nil
}

func (f *fakePipeline) Evaluate(_ context.Context, q models.Questionnaire, answers []models.Answer) []models.EvaluationResult {
	f.evalAnswers = answers
	return []models.EvaluationResult{{QuestionID: "q1", Score: 7, Feedback: "fine"}}
}

func (f *fakePipeline) History() []models.HistoryRecord {
	return []models.HistoryRecord{{VideoID: "vid", Transcript: "t"}}
}

func setupRouter(t *testing.T, p *fakePipeline, notifier *notify.Discord) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, handlers.NewHandler(p, notifier, nil), RouteConfig{
		APIToken:     testToken,
		CORSOrigins:  []string{"*"},
		SessionStore: cookie.NewStore([]byte("test-session-secret")),
	})
	return router
}

func authReq(method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}
	return out
}

func TestRoot_Public(t *testing.T) {
	router := setupRouter(t, &fakePipeline{}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["message"] == "" {
		t.Error("missing message")
	}
	if hist, ok := body["history"].([]any); !ok || len(hist) != 1 {
		t.Errorf("history = %v", body["history"])
	}
}

func TestBearerAuth(t *testing.T) {
	router := setupRouter(t, &fakePipeline{}, nil)
	tests := []struct {
		name    string
		header  string
		want    int
		wantErr string
	}{
		{"missing", "", http.StatusUnauthorized, "Missing or invalid Authorization header"},
		{"wrong scheme", "Basic " + testToken, http.StatusUnauthorized, "Missing or invalid Authorization header"},
		{"wrong token", "Bearer nope", http.StatusForbidden, "Invalid API token"},
		{"valid", "Bearer " + testToken, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/summarize/transcript", strings.NewReader(`{"transcript":"x"}`))
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want != http.StatusOK {
				if body := decode(t, w); body["success"] != false || body["error"] != tt.wantErr {
					t.Errorf("error envelope = %v", body)
				}
			}
		})
	}
}

func TestTranscript(t *testing.T) {
	router := setupRouter(t, &fakePipeline{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authReq(http.MethodPost, "/transcript", `{"videoId":"dQw4w9WgXcQ"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["success"] != true || body["transcript"] != "hello world" || body["sessionId"] == "" {
		t.Errorf("body = %v", body)
	}
	if len(w.Result().Cookies()) == 0 {
		t.Error("no session cookie set")
	}
}

func TestTranscript_Validation(t *testing.T) {
	router := setupRouter(t, &fakePipeline{}, nil)
	for _, body := range []string{"", `{}`, `{"videoId":"  "}`, `not json`} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authReq(http.MethodPost, "/transcript", body))
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestTranscript_ProviderErrorNotifies(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	notifier := notify.NewDiscord(hook.URL, nil)
	router := setupRouter(t, &fakePipeline{fetchErr: apperr.Provider(errors.New("captions disabled"))}, notifier)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authReq(http.MethodPost, "/transcript", `{"videoId":"dQw4w9WgXcQ"}`))
	notifier.Wait()

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decode(t, w); body["success"] != false || body["error"] != "captions disabled" {
		t.Errorf("body = %v", body)
	}
	mu.Lock()
	defer mu.Unlock()
	if hits != 1 {
		t.Errorf("webhook hits = %d, want 1", hits)
	}
}

func TestSummarize_UsesCookieSession(t *testing.T) {
	p := &fakePipeline{}
	router := setupRouter(t, p, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authReq(http.MethodPost, "/transcript", `{"videoId":"dQw4w9WgXcQ"}`))
	cookies := w.Result().Cookies()

	req := authReq(http.MethodPost, "/summarize", "")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if p.summarizedSession != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("summarized session = %q, want the one from the cookie", p.summarizedSession)
	}
	body := decode(t, w)
	if body["summary"] != "- a point" || body["title"] != "A Title" || body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestSummarize_BodySessionWins(t *testing.T) {
	p := &fakePipeline{}
	router := setupRouter(t, p, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authReq(http.MethodPost, "/summarize", `{"sessionId":"explicit"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if p.summarizedSession != "explicit" {
		t.Errorf("summarized session = %q", p.summarizedSession)
	}
}

func TestSummarize_NothingPending(t *testing.T) {
	p := &fakePipeline{summarizeErr: apperr.NotFound(errors.New("no pending transcript"))}
	router := setupRouter(t, p, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authReq(http.MethodPost, "/summarize", ""))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if p.summarizedSession != "" {
		t.Errorf("session = %q, want empty for newest-file fallback", p.summarizedSession)
	}
}

func TestSummarizeTranscript(t *testing.T) {
	router := setupRouter(t, &fakePipeline{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authReq(http.MethodPost, "/summarize/transcript", `{"transcript":"abc"}`))
	if body := decode(t, w); w.Code != http.StatusOK || body["summary"] != "summary of abc" {
		t.Errorf("status %d body %v", w.Code, body)
	}

	for _, body := range []string{`{}`, `{"transcript":""}`, `{"transcript":"  \n"}`} {
		w = httptest.NewRecorder()
		router.ServeHTTP(w, authReq(http.MethodPost, "/summarize/transcript", body))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestQuestionnaire(t *testing.T) {
	p := &fakePipeline{}
	router := setupRouter(t, p, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authReq(http.MethodPost, "/questionnaire", `{"summary":"- point"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	q, ok := decode(t, w)["questionnaire"].(map[string]any)
	if !ok || q["title"] != "Auto-Generated Questionnaire" {
		t.Errorf("questionnaire = %v", q)
	}
	questions := q["questions"].([]any)
	if first := questions[0].(map[string]any); first["options"] != nil {
		t.Errorf("short answer options = %v, want null", first["options"])
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authReq(http.MethodPost, "/questionnaire", `{"videoId":"dQw4w9WgXcQ"}`))
	if w.Code != http.StatusOK || p.quizVideo != "dQw4w9WgXcQ" || p.quizSummary != "" {
		t.Errorf("stored-summary path: status %d, video %q", w.Code, p.quizVideo)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authReq(http.MethodPost, "/questionnaire", `{}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing summary status = %d, want 400", w.Code)
	}
}

func TestQuestionnaire_GenerationFailed(t *testing.T) {
	router := setupRouter(t, &fakePipeline{quizErr: apperr.Provider(errors.New("generation_failed"))}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authReq(http.MethodPost, "/questionnaire", `{"summary":"s"}`))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if body := decode(t, w); body["error"] != "generation_failed" {
		t.Errorf("body = %v", body)
	}
}

func TestEvaluate(t *testing.T) {
	p := &fakePipeline{}
	router := setupRouter(t, p, nil)

	payload := `{"questionnaire":{"title":"t","description":"d","questions":[{"id":"q1","type":"short","question":"Why?","options":null,"required":true}]},
		"answers":[{"questionId":"q1","answer":"because"}]}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authReq(http.MethodPost, "/evaluate", payload))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	eval, ok := decode(t, w)["evaluation"].([]any)
	if !ok || len(eval) != 1 {
		t.Errorf("evaluation = %v", eval)
	}
	if len(p.evalAnswers) != 1 || p.evalAnswers[0].Answer != "because" {
		t.Errorf("answers passed = %+v", p.evalAnswers)
	}

	for _, body := range []string{`{"answers":[]}`, `{"questionnaire":{"questions":[]}}`, ``} {
		w = httptest.NewRecorder()
		router.ServeHTTP(w, authReq(http.MethodPost, "/evaluate", body))
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	router := setupRouter(t, &fakePipeline{}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/transcript", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCORSMiddleware_ExplicitOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSMiddleware([]string{"http://localhost:5173/"}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("credentials not allowed for explicit origins")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("disallowed origin status = %d, want 403", w.Code)
	}
}
