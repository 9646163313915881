package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/assessment-portal/internal/authoring"
	"github.com/terra-clan/assessment-portal/internal/config"
	"github.com/terra-clan/assessment-portal/internal/exam"
	"github.com/terra-clan/assessment-portal/internal/models"
	"github.com/terra-clan/assessment-portal/internal/services"
	"github.com/terra-clan/assessment-portal/internal/session"
)

// upstream is a fake platform API
type upstream struct {
	mux *http.ServeMux
	srv *httptest.Server

	mu       sync.Mutex
	calls    []string
	handlers map[string]http.HandlerFunc
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{mux: http.NewServeMux(), handlers: map[string]http.HandlerFunc{}}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.calls = append(u.calls, r.Method+" "+r.URL.Path)
		u.mu.Unlock()
		u.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

// reply serves body for pattern, replacing any earlier reply for the same pattern
func (u *upstream) reply(pattern string, status int, body interface{}) {
	h := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.handlers[pattern]; !ok {
		u.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			u.mu.Lock()
			current := u.handlers[pattern]
			u.mu.Unlock()
			current(w, r)
		})
	}
	u.handlers[pattern] = h
}

func (u *upstream) count(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, c := range u.calls {
		if c == key {
			n++
		}
	}
	return n
}

type portal struct {
	srv    *httptest.Server
	up     *upstream
	exams  *exam.Registry
	health *services.Registry
	drafts *authoring.Library
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	up := newUpstream(t)

	cfg := config.Default()
	cfg.API.BaseURL = up.srv.URL
	cfg.Public.BaseURL = "https://portal.example.com"

	p := &portal{
		up:     up,
		exams:  exam.NewRegistry(),
		health: services.NewRegistry(time.Second),
		drafts: authoring.NewLibrary(),
	}
	t.Cleanup(p.exams.Close)

	p.srv = httptest.NewServer(NewServer(cfg, session.NewMemoryStore(), p.exams, p.health, p.drafts).Router())
	t.Cleanup(p.srv.Close)
	return p
}

// browser keeps cookies and does not follow redirects
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (p *portal) browser(t *testing.T) *browser {
	jar, _ := cookiejar.New(nil)
	return &browser{
		t:    t,
		base: p.srv.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func (b *browser) do(method, path string, body interface{}) (*http.Response, envelope) {
	b.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, b.base+path, reader)
	if err != nil {
		b.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if resp.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			b.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp, env
}

func (b *browser) login(up *upstream, role models.Role) {
	b.t.Helper()
	up.reply("POST /login", http.StatusOK, models.AuthResponse{Token: "tok-" + string(role), Role: role})
	resp, env := b.do(http.MethodPost, "/portal/login", loginRequest{Email: "a@b.io", Password: "secret"})
	if resp.StatusCode != http.StatusOK {
		b.t.Fatalf("login status %d: %+v", resp.StatusCode, env.Error)
	}
}

func TestHealthAndReady(t *testing.T) {
	p := newPortal(t)
	b := p.browser(t)

	if resp, _ := b.do(http.MethodGet, "/health", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("health status %d", resp.StatusCode)
	}

	p.health.Register("api", services.CheckFunc(func(context.Context) error { return nil }))
	if resp, _ := b.do(http.MethodGet, "/ready", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("ready status %d", resp.StatusCode)
	}

	p.health.Register("sessions", services.CheckFunc(func(context.Context) error { return errors.New("redis down") }))
	resp, env := b.do(http.MethodGet, "/ready", nil)
	if resp.StatusCode != http.StatusServiceUnavailable || env.Success {
		t.Errorf("ready with failing check: %d %+v", resp.StatusCode, env)
	}
	if !strings.Contains(string(env.Data), "redis down") {
		t.Errorf("failing check not reported: %s", env.Data)
	}
}

func TestRoleGuards(t *testing.T) {
	p := newPortal(t)
	b := p.browser(t)

	resp, env := b.do(http.MethodGet, "/portal/candidate/dashboard", nil)
	if resp.StatusCode != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "unauthenticated" {
		t.Errorf("anonymous dashboard: %d %+v", resp.StatusCode, env.Error)
	}
	if len(resp.Cookies()) == 0 || resp.Cookies()[0].Name != "portal_sid" {
		t.Error("first contact should set the session cookie")
	}

	b.login(p.up, models.RoleInterviewer)

	resp, env = b.do(http.MethodGet, "/portal/candidate/dashboard", nil)
	if resp.StatusCode != http.StatusForbidden || env.Error.Code != "forbidden" {
		t.Errorf("interviewer on candidate dashboard: %d %+v", resp.StatusCode, env.Error)
	}

	var me meResponse
	_, env = b.do(http.MethodGet, "/portal/me", nil)
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatal(err)
	}
	if !me.Authenticated || me.Role != models.RoleInterviewer {
		t.Errorf("me = %+v", me)
	}

	other := p.browser(t)
	_, env = other.do(http.MethodGet, "/portal/me", nil)
	_ = json.Unmarshal(env.Data, &me)
	if me.Authenticated {
		t.Error("a second browser must not share the session")
	}
}

func TestLoginRedirectAndLogout(t *testing.T) {
	p := newPortal(t)
	b := p.browser(t)

	p.up.reply("POST /login", http.StatusOK, models.AuthResponse{Token: "jwt", Role: models.RoleCandidate})
	_, env := b.do(http.MethodPost, "/portal/login", loginRequest{Email: "a@b.io", Password: "secret"})

	var nav navigation
	_ = json.Unmarshal(env.Data, &nav)
	if nav.Redirect != models.PathCandidateDashboard {
		t.Errorf("redirect = %q", nav.Redirect)
	}

	_, env = b.do(http.MethodPost, "/portal/logout", nil)
	_ = json.Unmarshal(env.Data, &nav)
	if nav.Redirect != models.PathLogin {
		t.Errorf("logout redirect = %q", nav.Redirect)
	}

	resp, _ := b.do(http.MethodGet, "/portal/candidate/assessments", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("after logout status %d", resp.StatusCode)
	}
}

func TestUpstreamErrorsMapTo502(t *testing.T) {
	p := newPortal(t)
	b := p.browser(t)

	p.up.reply("POST /login", http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	resp, env := b.do(http.MethodPost, "/portal/login", loginRequest{Email: "a@b.io", Password: "nope"})
	if resp.StatusCode != http.StatusBadGateway || env.Error.Code != "upstream_error" || env.Error.Message != "Invalid credentials" {
		t.Errorf("got %d %+v", resp.StatusCode, env.Error)
	}
}

func TestGoogleRedirects(t *testing.T) {
	p := newPortal(t)
	b := p.browser(t)

	resp, _ := b.do(http.MethodGet, "/portal/google/login?role=interviewer", nil)
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != p.up.srv.URL+"/auth/google/login?role=interviewer" {
		t.Errorf("google login: %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, _ = b.do(http.MethodGet, "/portal/google/callback", nil)
	if resp.Header.Get("Location") != models.PathGoogleAuthFailed {
		t.Errorf("callback without token -> %q", resp.Header.Get("Location"))
	}

	resp, _ = b.do(http.MethodGet, "/portal/google/callback?token=g-tok&role=interviewer", nil)
	if resp.Header.Get("Location") != models.PathInterviewerDashboard {
		t.Errorf("callback -> %q", resp.Header.Get("Location"))
	}
}

func TestPublishDraftValidation(t *testing.T) {
	p := newPortal(t)
	b := p.browser(t)
	b.login(p.up, models.RoleInterviewer)

	draft := map[string]interface{}{
		"title": "Go",
		"phases": []map[string]interface{}{{
			"total_marks": 10,
			"questions":   []map[string]interface{}{{"text": "Q", "type": "SUBJECTIVE", "points": 5}},
		}},
	}
	resp, env := b.do(http.MethodPost, "/portal/interviewer/assessments", draft)
	if resp.StatusCode != http.StatusBadRequest || env.Error.Code != "validation_error" || len(env.Error.Problems) == 0 {
		t.Fatalf("got %d %+v", resp.StatusCode, env.Error)
	}
	if p.up.count("POST /api/assessments") != 0 {
		t.Error("invalid draft must not reach the API")
	}
}

func TestCreateSlotFormErrors(t *testing.T) {
	p := newPortal(t)
	b := p.browser(t)
	b.login(p.up, models.RoleInterviewer)

	resp, env := b.do(http.MethodPost, "/portal/interviewer/interviews", map[string]interface{}{
		"title": "Tech", "type": "technical", "date": "2026-01-02", "time": "10:00", "duration": 5,
	})
	if resp.StatusCode != http.StatusBadRequest || env.Error.Message != "Duration must be between 15 and 240 minutes" {
		t.Errorf("got %d %+v", resp.StatusCode, env.Error)
	}
}

func examAssessment() models.Assessment {
	return models.Assessment{
		ID:       "a1",
		Title:    "Go Basics",
		Duration: 10,
		Questions: []models.Question{
			{ID: "q1", Text: "Pick", Points: 5, Body: models.MCQ{Options: []string{"x", "y"}, CorrectAnswer: "y"}},
			{ID: "q2", Text: "Explain", Points: 5, Body: models.Subjective{}},
		},
	}
}

func (p *portal) stubExam() {
	p.up.reply("GET /api/assessments/a1", http.StatusOK, examAssessment())
	p.up.reply("GET /api/submissions/me", http.StatusOK, []models.Submission{})
	p.up.reply("POST /api/assessments/a1/submit", http.StatusOK, models.SubmitResult{Score: 5, TotalMarks: 10, Passed: true})
}

func (b *browser) startExam() examView {
	b.t.Helper()
	resp, env := b.do(http.MethodPost, "/portal/exams", startExamRequest{AssessmentID: "a1"})
	if resp.StatusCode != http.StatusCreated {
		b.t.Fatalf("start exam: %d %+v", resp.StatusCode, env.Error)
	}
	var view examView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		b.t.Fatal(err)
	}
	return view
}

func TestExamFlow(t *testing.T) {
	p := newPortal(t)
	p.stubExam()
	b := p.browser(t)
	b.login(p.up, models.RoleCandidate)

	view := b.startExam()
	if view.ID == "" || view.State != exam.StateInProgress || view.Remaining < 590 || view.Question.ID != "q1" {
		t.Fatalf("unexpected start view %+v", view)
	}
	if strings.Contains(string(mustJSON(t, view)), "correct_answer") {
		t.Error("snapshot leaked the answer key")
	}

	base := "/portal/exams/" + view.ID
	resp, env := b.do(http.MethodPost, base+"/answer", answerRequest{Value: "z"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid option: %d %+v", resp.StatusCode, env.Error)
	}

	b.do(http.MethodPost, base+"/answer", answerRequest{Value: "y"})
	_, env = b.do(http.MethodPost, base+"/next", nil)
	_ = json.Unmarshal(env.Data, &view)
	if view.Cursor != 1 || view.Answered != 1 {
		t.Errorf("after next: %+v", view)
	}

	_, env = b.do(http.MethodPost, base+"/submit", nil)
	_ = json.Unmarshal(env.Data, &view)
	if view.State != exam.StateSubmitted || view.Navigate != models.ResultPath("a1") || view.Result == nil {
		t.Errorf("after submit: %+v", view)
	}

	resp, env = b.do(http.MethodPost, base+"/submit", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second submit: %d %+v", resp.StatusCode, env.Error)
	}
	if n := p.up.count("POST /api/assessments/a1/submit"); n != 1 {
		t.Errorf("submit sent %d times", n)
	}

	other := p.browser(t)
	other.login(p.up, models.RoleCandidate)
	if resp, _ := other.do(http.MethodGet, base, nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("exam visible to another browser: %d", resp.StatusCode)
	}

	if resp, _ := b.do(http.MethodDelete, base, nil); resp.StatusCode != http.StatusOK {
		t.Errorf("close status %d", resp.StatusCode)
	}
	if p.exams.Len() != 0 {
		t.Error("closed exam still registered")
	}
}

func TestExamRequiresLogin(t *testing.T) {
	p := newPortal(t)
	b := p.browser(t)
	resp, _ := b.do(http.MethodPost, "/portal/exams", startExamRequest{AssessmentID: "a1"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestExamWebsocket(t *testing.T) {
	p := newPortal(t)
	p.stubExam()
	b := p.browser(t)
	b.login(p.up, models.RoleCandidate)
	view := b.startExam()

	wsURL := "ws" + strings.TrimPrefix(p.srv.URL, "http") + "/portal/exams/" + view.ID + "/ws"
	header := http.Header{}
	for _, c := range b.client.Jar.Cookies(mustURL(t, p.srv.URL)) {
		header.Add("Cookie", c.String())
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readUntil(t, conn, func(m examMessage) bool { return m.Type == msgSnapshot })
	if first.Snapshot.State != exam.StateInProgress {
		t.Errorf("first snapshot %+v", first.Snapshot)
	}

	_ = conn.WriteJSON(examCommand{Type: "answer", Value: "x"})
	readUntil(t, conn, func(m examMessage) bool {
		return m.Type == msgSnapshot && m.Snapshot.Answer == "x"
	})

	_ = conn.WriteJSON(examCommand{Type: "submit"})
	done := readUntil(t, conn, func(m examMessage) bool { return m.Type == string(exam.EventSubmitted) })
	if done.Result == nil || !done.Result.Passed {
		t.Errorf("submitted message %+v", done)
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(examMessage) bool) examMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg examMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestDraftLibrary(t *testing.T) {
	p := newPortal(t)
	p.drafts.Add("go-track", &authoring.Draft{
		Title: "Go Track",
		Phases: []authoring.PhaseDraft{{
			Duration:   20,
			TotalMarks: 5,
			Questions:  []authoring.QuestionDraft{{Text: "Explain", Type: models.QuestionSubjective, Points: 5}},
		}},
	})
	p.up.reply("POST /api/assessments", http.StatusCreated, models.CreatedResponse{ID: "new-1"})

	b := p.browser(t)
	if resp, _ := b.do(http.MethodGet, "/portal/interviewer/drafts", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous drafts list: %d", resp.StatusCode)
	}

	b.login(p.up, models.RoleInterviewer)

	_, env := b.do(http.MethodGet, "/portal/interviewer/drafts", nil)
	var list []authoring.Summary
	_ = json.Unmarshal(env.Data, &list)
	if len(list) != 1 || list[0].Name != "go-track" || list[0].Questions != 1 {
		t.Errorf("drafts = %+v", list)
	}

	resp, env := b.do(http.MethodPost, "/portal/interviewer/drafts/go-track/publish", publishDraftRequest{Title: "Go Track 2026"})
	var published publishResponse
	_ = json.Unmarshal(env.Data, &published)
	if resp.StatusCode != http.StatusCreated || len(published.IDs) != 1 || published.IDs[0] != "new-1" {
		t.Errorf("publish: %d %+v %+v", resp.StatusCode, published, env.Error)
	}
	if p.drafts.Get("go-track").Title != "Go Track" {
		t.Error("title override leaked into the library")
	}

	if resp, _ := b.do(http.MethodPost, "/portal/interviewer/drafts/nope/publish", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown draft: %d", resp.StatusCode)
	}
}
