package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/kozaktomas/face-quiz/internal/app"
	"github.com/kozaktomas/face-quiz/internal/faceapi"
	"github.com/kozaktomas/face-quiz/internal/quiz"
	"github.com/spf13/cobra"
)

var errQuizCancelled = errors.New("quiz cancelled")

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Start and take a quiz",
	Long: `Start a quiz and answer its questions.

If the quiz requires face re-authentication, the camera is opened and
you verify your face before the questions are shown. Answers can be
given up front with --answer, e.g. --answer 1=Praha --answer 2=3
(by choice text or 1-based choice number); the quiz then runs without
prompts and unanswered questions are left out.`,
	RunE: runQuiz,
}

func init() {
	rootCmd.AddCommand(quizCmd)
	quizCmd.Flags().StringSlice("answer", nil, "Answer as <question id>=<choice>, repeatable")
	quizCmd.Flags().Int("attempts", 3, "Face verification attempts without prompts")
}

// parseAnswers parses --answer values into question id to raw choice input.
func parseAnswers(values []string) (map[faceapi.QuestionID]string, error) {
	answers := make(map[faceapi.QuestionID]string, len(values))
	for _, v := range values {
		id, choice, ok := strings.Cut(v, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --answer %q, expected <question id>=<choice>", v)
		}
		answers[faceapi.QuestionID(id)] = strings.TrimSpace(choice)
	}
	return answers, nil
}

// quizSession holds the terminal IO for one quiz run.
type quizSession struct {
	shell    *app.Shell
	view     *quiz.View
	in       *bufio.Scanner
	out      io.Writer
	progress io.Writer

	preset   map[faceapi.QuestionID]string // nil when interactive
	attempts int
}

func (s *quizSession) interactive() bool {
	return s.preset == nil
}

// prompt prints label and reads one trimmed line. ok is false on EOF.
func (s *quizSession) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		fmt.Fprintln(s.out)
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func runQuiz(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s := &quizSession{
		in:       bufio.NewScanner(cmd.InOrStdin()),
		out:      cmd.OutOrStdout(),
		progress: cmd.ErrOrStderr(),
		attempts: mustGetInt(cmd, "attempts"),
	}
	if values := mustGetStringSlice(cmd, "answer"); len(values) > 0 {
		preset, err := parseAnswers(values)
		if err != nil {
			return err
		}
		s.preset = preset
	}

	shell, err := loadShell()
	if err != nil {
		return err
	}
	s.shell = shell
	s.view = shell.QuizView()

	err = withSpinner(s.progress, quiz.MessageStarting, func() error {
		return s.view.Start(ctx)
	})
	if err != nil {
		fmt.Fprintln(s.out, s.view.Snapshot().Message)
		return fmt.Errorf("starting quiz: %w", err)
	}

	if s.view.Snapshot().Stage == quiz.StageAwaitingReauth {
		if err := s.reauthenticate(ctx); err != nil {
			return err
		}
	}

	if err := s.answerQuestions(); err != nil {
		return err
	}

	err = withSpinner(s.progress, "Submitting", func() error {
		return s.view.Submit(ctx)
	})
	fmt.Fprintln(s.out, s.view.Snapshot().Message)
	if err != nil {
		return fmt.Errorf("submitting quiz: %w", err)
	}
	return nil
}

// reauthenticate opens the camera and verifies until the quiz moves on.
func (s *quizSession) reauthenticate(ctx context.Context) error {
	fmt.Fprintln(s.out, "This quiz requires face re-authentication.")

	face := s.shell.FaceCaptureView()
	defer face.Close()
	if err := face.Open(ctx); err != nil {
		fmt.Fprintln(s.out, face.Status())
		return err
	}

	for attempt := 1; ; attempt++ {
		if s.interactive() {
			line, ok := s.prompt("Press Enter to verify your face (q to cancel): ")
			if !ok || strings.EqualFold(line, "q") {
				return errQuizCancelled
			}
		}

		err := withSpinner(s.progress, "Verifying face", func() error {
			return s.view.Reauthenticate(ctx, face)
		})
		snap := s.view.Snapshot()
		if err != nil {
			// Upload failures leave the stage alone; the status says why.
			fmt.Fprintln(s.out, face.Status())
		} else {
			fmt.Fprintln(s.out, snap.Message)
		}

		switch {
		case snap.Stage == quiz.StageInProgress:
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case !s.interactive() && attempt >= s.attempts:
			return fmt.Errorf("face not verified after %d attempts", attempt)
		}
	}
}

// answerQuestions selects an answer for every question that gets one.
// EOF at a prompt cancels the quiz without submitting.
func (s *quizSession) answerQuestions() error {
	snap := s.view.Snapshot()
	if snap.Quiz == nil {
		return fmt.Errorf("quiz is %s: %w", snap.Stage, quiz.ErrInvalidTransition)
	}

	for _, id := range slices.Sorted(maps.Keys(s.preset)) {
		if _, ok := snap.Quiz.Question(id); !ok {
			return fmt.Errorf("--answer %s: %w", id, quiz.ErrUnknownQuestion)
		}
	}

	if snap.Quiz.Title != "" {
		fmt.Fprintf(s.out, "\n%s\n", snap.Quiz.Title)
	}

	for i, q := range snap.Quiz.Questions {
		var choice string
		if s.interactive() {
			var ok bool
			choice, ok = s.askQuestion(i+1, q)
			if !ok {
				return errQuizCancelled
			}
		} else {
			input, ok := s.preset[q.ID]
			if !ok || input == "" {
				continue
			}
			matched, valid := quiz.MatchChoice(q, input)
			if !valid {
				return fmt.Errorf("question %s: %q: %w", q.ID, input, quiz.ErrInvalidChoice)
			}
			choice = matched
		}
		if choice == "" {
			continue
		}
		if err := s.view.Select(q.ID, choice); err != nil {
			return err
		}
	}
	return nil
}

// askQuestion prompts until a valid choice or an empty line. ok is false on EOF.
func (s *quizSession) askQuestion(n int, q faceapi.Question) (string, bool) {
	fmt.Fprintf(s.out, "\n%d. %s\n", n, q.Prompt)
	for i, c := range q.Choices {
		fmt.Fprintf(s.out, "   %d) %s\n", i+1, c)
	}

	for {
		line, ok := s.prompt("Answer (number or text, empty to skip): ")
		if !ok {
			return "", false
		}
		if line == "" {
			return "", true
		}
		if choice, valid := quiz.MatchChoice(q, line); valid {
			return choice, true
		}
		fmt.Fprintf(s.out, "%q is not one of the choices\n", line)
	}
}
