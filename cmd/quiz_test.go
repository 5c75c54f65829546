package cmd

import (
	"bufio"
	"context"
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/kozaktomas/face-quiz/internal/faceapi"
	"github.com/kozaktomas/face-quiz/internal/quiz"
)

type fakeQuizAPI struct {
	start     *faceapi.QuizStart
	submitted map[faceapi.QuestionID]string
}

func (f *fakeQuizAPI) StartQuiz(ctx context.Context) (*faceapi.QuizStart, error) {
	return f.start, nil
}

func (f *fakeQuizAPI) SubmitQuiz(ctx context.Context, quizID int, answers map[faceapi.QuestionID]string) (*faceapi.QuizScore, error) {
	f.submitted = maps.Clone(answers)
	return &faceapi.QuizScore{Score: len(answers)}, nil
}

func newTestQuizSession(t *testing.T, input string, preset map[faceapi.QuestionID]string) (*quizSession, *fakeQuizAPI, *strings.Builder) {
	t.Helper()
	api := &fakeQuizAPI{start: &faceapi.QuizStart{
		QuizID: 5,
		Title:  "Capitals",
		Data: faceapi.QuizData{Questions: []faceapi.Question{
			{ID: "1", Prompt: "Capital of Czechia?", Choices: []string{"Brno", "Praha"}},
			{ID: "2", Prompt: "Capital of Slovakia?", Choices: []string{"Bratislava", "Košice"}},
		}},
	}}
	view := quiz.New(api, nil, nil)
	if err := view.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	out := &strings.Builder{}
	return &quizSession{
		view:   view,
		in:     bufio.NewScanner(strings.NewReader(input)),
		out:    out,
		preset: preset,
	}, api, out
}

func TestParseAnswers(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    map[faceapi.QuestionID]string
		wantErr bool
	}{
		{
			name:   "text and number",
			values: []string{"1=Praha", " 2 = 1 "},
			want:   map[faceapi.QuestionID]string{"1": "Praha", "2": "1"},
		},
		{
			name:   "empty choice",
			values: []string{"3="},
			want:   map[faceapi.QuestionID]string{"3": ""},
		},
		{name: "missing separator", values: []string{"Praha"}, wantErr: true},
		{name: "missing id", values: []string{"=Praha"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnswers(tt.values)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseAnswers(%v) expected error", tt.values)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAnswers(%v) error = %v", tt.values, err)
			}
			if !maps.Equal(got, tt.want) {
				t.Errorf("parseAnswers(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestAnswerQuestionsInteractive(t *testing.T) {
	// Invalid input reprompts, a number picks by position, empty skips.
	s, api, out := newTestQuizSession(t, "9\n2\n\n", nil)

	if err := s.answerQuestions(); err != nil {
		t.Fatalf("answerQuestions() error = %v", err)
	}
	if err := s.view.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := map[faceapi.QuestionID]string{"1": "Praha"}
	if !maps.Equal(api.submitted, want) {
		t.Errorf("submitted = %v, want %v", api.submitted, want)
	}
	for _, line := range []string{"Capitals", "1. Capital of Czechia?", "   2) Praha", `"9" is not one of the choices`} {
		if !strings.Contains(out.String(), line) {
			t.Errorf("output missing %q:\n%s", line, out.String())
		}
	}
}

func TestAnswerQuestionsEOFCancels(t *testing.T) {
	s, api, _ := newTestQuizSession(t, "Praha\n", nil)

	if err := s.answerQuestions(); !errors.Is(err, errQuizCancelled) {
		t.Fatalf("answerQuestions() error = %v, want errQuizCancelled", err)
	}
	if api.submitted != nil {
		t.Errorf("cancelled quiz submitted %v", api.submitted)
	}
}

func TestAnswerQuestionsPreset(t *testing.T) {
	s, api, _ := newTestQuizSession(t, "", map[faceapi.QuestionID]string{"2": "kosice"})

	if err := s.answerQuestions(); err != nil {
		t.Fatalf("answerQuestions() error = %v", err)
	}
	if err := s.view.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := map[faceapi.QuestionID]string{"2": "Košice"}
	if !maps.Equal(api.submitted, want) {
		t.Errorf("submitted = %v, want %v", api.submitted, want)
	}
	if got := s.view.Snapshot().Message; got != "Score: 1" {
		t.Errorf("message = %q, want %q", got, "Score: 1")
	}
}

func TestAnswerQuestionsPresetInvalid(t *testing.T) {
	s, _, _ := newTestQuizSession(t, "", map[faceapi.QuestionID]string{"1": "Ostrava"})

	err := s.answerQuestions()
	if !errors.Is(err, quiz.ErrInvalidChoice) {
		t.Errorf("answerQuestions() error = %v, want ErrInvalidChoice", err)
	}
}

func TestAnswerQuestionsPresetUnknownQuestion(t *testing.T) {
	s, _, _ := newTestQuizSession(t, "", map[faceapi.QuestionID]string{"1": "Praha", "12": "Brno"})

	err := s.answerQuestions()
	if !errors.Is(err, quiz.ErrUnknownQuestion) {
		t.Fatalf("answerQuestions() error = %v, want ErrUnknownQuestion", err)
	}
	if !strings.Contains(err.Error(), "12") {
		t.Errorf("error %q does not name the question", err)
	}
	if answers := s.view.Snapshot().Answers; len(answers) != 0 {
		t.Errorf("answers = %v, want none selected", answers)
	}
}
