package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/terra-clan/assessment-portal/internal/models"
)

func newTestClient(t *testing.T, token string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, StaticToken(token))
}

func TestBearerTokenOnlyWhenPresent(t *testing.T) {
	var got []string
	h := func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}

	if _, err := newTestClient(t, "abc", h).ListAssessments(context.Background()); err != nil {
		t.Fatalf("ListAssessments: %v", err)
	}
	if _, err := newTestClient(t, "", h).ListAssessments(context.Background()); err != nil {
		t.Fatalf("ListAssessments: %v", err)
	}

	if got[0] != "Bearer abc" {
		t.Errorf("expected bearer header, got %q", got[0])
	}
	if got[1] != "" {
		t.Errorf("expected no header without token, got %q", got[1])
	}
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		status      int
		body        string
		wantMsg     string
	}{
		{"error field", "application/json", 400, `{"error":"Invalid email or password"}`, "Invalid email or password"},
		{"message field", "application/json", 409, `{"message":"already booked"}`, "already booked"},
		{"no message", "application/json", 500, `{}`, "Request failed with status 500"},
		{"empty body", "application/json", 404, ``, "Request failed with status 404"},
		{"malformed json", "application/json", 200, `{"id":`, msgInvalidJSON},
		{"html page", "text/html", 502, `<html>bad gateway</html>`, msgNonJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.GetAssessment(context.Background(), "a1")
			if err == nil {
				t.Fatal("expected error")
			}

			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
			if apiErr.Status != tt.status {
				t.Errorf("status = %d, want %d", apiErr.Status, tt.status)
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, nil)
	err := c.DeleteAssessment(context.Background(), "a1")
	if err == nil {
		t.Fatal("expected error")
	}
	if StatusOf(err) != 0 {
		t.Errorf("expected status 0 for transport failure, got %d", StatusOf(err))
	}
	if errors.Unwrap(err) == nil {
		t.Error("expected transport cause to be wrapped")
	}
}

func TestEmptySuccessBody(t *testing.T) {
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.CancelInterview(context.Background(), "i1"); err != nil {
		t.Fatalf("CancelInterview: %v", err)
	}

	list, err := c.MyInterviews(context.Background())
	if err != nil {
		t.Fatalf("MyInterviews on empty body: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %v", list)
	}
}

func TestListAssessmentsToleratesOddQuestionTypes(t *testing.T) {
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"a1","title":"Go","duration":30,"questions":[{"id":"q1","text":"?","type":"MCQ","options":["x","y"],"correct_answer":"x","points":5}]},
			{"id":"a2","title":"Design","duration":30,"questions":[{"id":"q2","text":"Explain","type":"subjective","points":5}]}
		]`))
	})

	list, err := c.ListAssessments(context.Background())
	if err != nil {
		t.Fatalf("ListAssessments: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected both assessments, got %d", len(list))
	}
	if list[1].Questions[0].Type() != models.QuestionSubjective {
		t.Errorf("q2 decoded as %s", list[1].Questions[0].Type())
	}
}

func TestSubmitAssessmentPayload(t *testing.T) {
	var gotPath string
	var gotBody models.SubmitRequest

	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"score":10,"total_marks":20,"passed":false,"next_phase_unlocked":false}`))
	})

	res, err := c.SubmitAssessment(context.Background(), "a1", models.SubmitRequest{
		Answers: []models.AnswerRecord{{QuestionID: "q1", Value: "4"}, {QuestionID: "q2", Value: ""}},
	})
	if err != nil {
		t.Fatalf("SubmitAssessment: %v", err)
	}

	if gotPath != "/api/assessments/a1/submit" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if len(gotBody.Answers) != 2 || gotBody.Answers[1].Value != "" {
		t.Errorf("unexpected payload %+v", gotBody)
	}
	if res.Score != 10 || res.TotalMarks != 20 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestGoogleLoginURL(t *testing.T) {
	c := NewClient("http://api.local/", nil)
	if got := c.GoogleLoginURL(models.RoleInterviewer); got != "http://api.local/auth/google/login?role=interviewer" {
		t.Errorf("unexpected url %s", got)
	}
}
