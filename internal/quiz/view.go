// Package quiz implements the quiz view state machine:
// idle → awaiting-reauth → in-progress → done | error.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/kozaktomas/face-quiz/internal/faceapi"
	"github.com/kozaktomas/face-quiz/internal/facecapture"
	"github.com/kozaktomas/face-quiz/internal/logging"
	"github.com/kozaktomas/face-quiz/internal/metrics"
)

// Messages shown by the view.
const (
	MessageStarting       = "Starting..."
	MessageFaceVerified   = "Face verified"
	MessageFaceNotMatched = "Face not matched"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed in the current stage.
	ErrInvalidTransition = errors.New("action not allowed in the current quiz stage")
	// ErrUnknownQuestion is returned when selecting for a question not in the quiz.
	ErrUnknownQuestion = errors.New("question is not part of the current quiz")
	// ErrInvalidChoice is returned when the choice is not offered by the question.
	ErrInvalidChoice = errors.New("choice is not offered by the question")
	// ErrSuperseded is returned by a request whose response arrived after a
	// newer request was issued; the response is discarded.
	ErrSuperseded = errors.New("quiz request superseded")
)

// API is the part of the quiz API the view calls.
type API interface {
	StartQuiz(ctx context.Context) (*faceapi.QuizStart, error)
	SubmitQuiz(ctx context.Context, quizID int, answers map[faceapi.QuestionID]string) (*faceapi.QuizScore, error)
}

// Verifier captures and verifies a face, reporting successful results to onResult.
// The face capture view satisfies it.
type Verifier interface {
	Verify(ctx context.Context, onResult facecapture.ResultFunc) (*faceapi.FaceResult, error)
}

// Quiz is a started quiz attempt.
type Quiz struct {
	ID        int
	Title     string
	Questions []faceapi.Question
}

// Question returns the question with id.
func (q *Quiz) Question(id faceapi.QuestionID) (faceapi.Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return faceapi.Question{}, false
}

// Snapshot is a consistent copy of the view state for rendering.
// Quiz and Answers are only set while in progress.
type Snapshot struct {
	Stage   Stage
	Message string
	Quiz    *Quiz
	Answers map[faceapi.QuestionID]string
}

// View is the quiz state machine. All methods are safe for concurrent use.
type View struct {
	api     API
	logger  hclog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	stage   Stage
	message string
	quiz    *Quiz // held from start until done or error
	answers map[faceapi.QuestionID]string
	gen     uint64 // incremented for every request issued and on Reset
}

// New creates an idle view.
func New(api API, logger hclog.Logger, m *metrics.Metrics) *View {
	return &View{
		api:     api,
		logger:  logging.OrNull(logger).Named("quiz"),
		metrics: m,
	}
}

// transition must be called with mu held.
func (v *View) transition(stage Stage, message string) {
	v.logger.Debug("quiz transition", "from", v.stage, "to", stage)
	v.stage = stage
	v.message = message
	if stage.Terminal() {
		v.quiz = nil
		v.answers = nil
	}
	v.metrics.QuizTransition(stage.String())
}

// failureMessage is the serialized error body, or the error text when no
// response was received.
func failureMessage(err error) string {
	if apiErr, ok := faceapi.AsAPIError(err); ok {
		return string(apiErr.Body)
	}
	return err.Error()
}

// Start requests a new quiz. Allowed only from idle.
func (v *View) Start(ctx context.Context) error {
	v.mu.Lock()
	if v.stage != StageIdle {
		v.mu.Unlock()
		return fmt.Errorf("start from %s: %w", v.stage, ErrInvalidTransition)
	}
	v.gen++
	gen := v.gen
	v.message = MessageStarting
	v.mu.Unlock()

	start, err := v.api.StartQuiz(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		v.logger.Debug("discarding stale quiz start response")
		return ErrSuperseded
	}
	if err != nil {
		v.logger.Info("quiz start failed", "error", err)
		v.transition(StageError, failureMessage(err))
		return err
	}

	v.quiz = &Quiz{
		ID:        start.QuizID,
		Title:     start.Title,
		Questions: start.Data.Questions,
	}
	v.answers = map[faceapi.QuestionID]string{}
	if start.RequireFaceReauth {
		v.transition(StageAwaitingReauth, "")
		return nil
	}
	v.transition(StageInProgress, "")
	return nil
}

// Reauthenticate runs a face verification with verifier. A match moves the
// view to in-progress with the already fetched quiz; a mismatch keeps it
// waiting. Upload failures are reported by the verifier's own status.
func (v *View) Reauthenticate(ctx context.Context, verifier Verifier) error {
	v.mu.Lock()
	stage := v.stage
	v.mu.Unlock()
	if stage != StageAwaitingReauth {
		return fmt.Errorf("re-authenticate from %s: %w", stage, ErrInvalidTransition)
	}

	_, err := verifier.Verify(ctx, v.HandleVerifyResult)
	return err
}

// HandleVerifyResult applies a face verification result. Results arriving
// outside awaiting-reauth are ignored.
func (v *View) HandleVerifyResult(result *faceapi.FaceResult) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.stage != StageAwaitingReauth || result == nil {
		return
	}
	if result.Match {
		v.transition(StageInProgress, MessageFaceVerified)
		return
	}
	v.message = MessageFaceNotMatched
}

// checkChoice must be called with mu held and a quiz in progress.
func (v *View) checkChoice(id faceapi.QuestionID, choice string) error {
	question, ok := v.quiz.Question(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	if !slices.Contains(question.Choices, choice) {
		return fmt.Errorf("%w: %q", ErrInvalidChoice, choice)
	}
	return nil
}

// Select records choice as the answer to question id.
func (v *View) Select(id faceapi.QuestionID, choice string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.stage != StageInProgress {
		return fmt.Errorf("select from %s: %w", v.stage, ErrInvalidTransition)
	}
	if err := v.checkChoice(id, choice); err != nil {
		return err
	}
	v.answers[id] = choice
	return nil
}

// SetAnswers replaces every selected answer with answers. Questions missing
// from answers become unanswered. Nothing changes when any entry is invalid.
func (v *View) SetAnswers(answers map[faceapi.QuestionID]string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.stage != StageInProgress {
		return fmt.Errorf("set answers from %s: %w", v.stage, ErrInvalidTransition)
	}
	for id, choice := range answers {
		if err := v.checkChoice(id, choice); err != nil {
			return err
		}
	}
	v.answers = make(map[faceapi.QuestionID]string, len(answers))
	maps.Copy(v.answers, answers)
	return nil
}

// Submit sends the selected answers. Unanswered questions are left out.
// Without a quiz in progress it does nothing and returns nil.
func (v *View) Submit(ctx context.Context) error {
	v.mu.Lock()
	if v.stage != StageInProgress || v.quiz == nil {
		v.mu.Unlock()
		return nil
	}
	v.gen++
	gen := v.gen
	quizID := v.quiz.ID
	answers := maps.Clone(v.answers)
	v.mu.Unlock()

	score, err := v.api.SubmitQuiz(ctx, quizID, answers)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		v.logger.Debug("discarding stale quiz submit response")
		return ErrSuperseded
	}
	if err != nil {
		v.logger.Info("quiz submit failed", "quiz_id", quizID, "error", err)
		v.transition(StageError, failureMessage(err))
		return err
	}
	v.logger.Info("quiz submitted", "quiz_id", quizID, "answered", len(answers), "score", score.Score)
	v.transition(StageDone, fmt.Sprintf("Score: %d", score.Score))
	return nil
}

// Reset discards the current attempt and returns to idle. Responses of
// requests still in flight are discarded.
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	v.quiz = nil
	v.answers = nil
	v.transition(StageIdle, "")
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := Snapshot{Stage: v.stage, Message: v.message}
	if v.stage == StageInProgress && v.quiz != nil {
		q := *v.quiz
		q.Questions = slices.Clone(v.quiz.Questions)
		snap.Quiz = &q
		snap.Answers = maps.Clone(v.answers)
	}
	return snap
}
