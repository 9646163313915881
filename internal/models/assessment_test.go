package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestQuestionDecodesTaggedBody(t *testing.T) {
	raw := `[
		{"id":"q1","text":"2+2?","type":"MCQ","options":["3","4"],"correct_answer":"4","points":5},
		{"id":"q2","text":"Explain CAP","type":"SUBJECTIVE","points":10},
		{"id":"q3","text":"Reverse a list","type":"CODING","options":["ignored"],"points":15}
	]`

	var qs []Question
	if err := json.Unmarshal([]byte(raw), &qs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	m, ok := qs[0].MCQ()
	if !ok {
		t.Fatal("expected q1 to be MCQ")
	}
	if !m.HasOption("3") || !m.IsCorrect("4") || m.IsCorrect("3") {
		t.Errorf("unexpected MCQ body %+v", m)
	}

	if qs[1].Type() != QuestionSubjective {
		t.Errorf("expected SUBJECTIVE, got %s", qs[1].Type())
	}
	if _, ok := qs[2].MCQ(); ok {
		t.Error("coding question must not expose options")
	}

	out, err := json.Marshal(qs[2])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(out), "options") {
		t.Errorf("non-MCQ question serialized options: %s", out)
	}
}

func TestQuestionTypeIsLenient(t *testing.T) {
	raw := `[
		{"id":"q1","text":"Pick","type":"mcq","options":["a","b"],"correct_answer":"b","points":5},
		{"id":"q2","text":"Explain","type":"subjective","points":5},
		{"id":"q3","text":"Essay","type":"ESSAY","options":["x","y"],"points":5}
	]`

	var qs []Question
	if err := json.Unmarshal([]byte(raw), &qs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(qs) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(qs))
	}
	if m, ok := qs[0].MCQ(); !ok || !m.IsCorrect("b") {
		t.Errorf("lowercase mcq not decoded as MCQ: %+v", qs[0])
	}
	if qs[1].Type() != QuestionSubjective {
		t.Errorf("lowercase subjective decoded as %s", qs[1].Type())
	}
	if qs[2].Type() != QuestionSubjective {
		t.Errorf("unknown type decoded as %s, want free text", qs[2].Type())
	}
	if _, ok := qs[2].MCQ(); ok {
		t.Error("unknown type must not expose options")
	}
}

func TestNewQuestionBodyRejectsUnknownType(t *testing.T) {
	if _, err := NewQuestionBody("ESSAY", nil, ""); err == nil {
		t.Fatal("expected error for unknown type")
	}
	if b, err := NewQuestionBody("coding", nil, ""); err != nil || b.Type() != QuestionCoding {
		t.Errorf("NewQuestionBody(coding) = %v, %v", b, err)
	}
}

func TestSubmissionPercentage(t *testing.T) {
	tests := []struct {
		score, total, want int
	}{
		{7, 9, 78},
		{10, 10, 100},
		{5, 0, 0},
	}
	for _, tt := range tests {
		s := Submission{Score: tt.score, TotalMarks: tt.total}
		if got := s.Percentage(); got != tt.want {
			t.Errorf("Percentage(%d/%d) = %d, want %d", tt.score, tt.total, got, tt.want)
		}
	}
}
