package faceapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Endpoint paths of the quiz API.
const (
	PathRegister             = "/register"
	PathLogin                = "/login"
	PathFaceRegister         = "/face/register"
	PathFaceVerify           = "/face/verify"
	PathQuizStart            = "/quiz/start"
	PathQuizSubmit           = "/quiz/submit"
	PathPasswordResetRequest = "/password-reset/request"
	PathPasswordResetConfirm = "/password-reset/confirm"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the account registration body.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// User is the registration response. The API may return any body on
// success, so every field is optional.
type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// FaceResult is the parsed result of a face register or verify upload.
type FaceResult struct {
	Status string   `json:"status"`
	Match  bool     `json:"match"`
	Score  *float64 `json:"score"`
	Raw    []byte   `json:"-"` // compacted response body
}

// String returns the serialized result as shown to the user.
func (r *FaceResult) String() string {
	return string(r.Raw)
}

// QuestionID identifies a question. The API sends numbers; strings are accepted too.
type QuestionID string

// UnmarshalJSON accepts a JSON number or string.
func (q *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("unmarshal question id: %w", err)
		}
		*q = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unmarshal question id: %w", err)
	}
	*q = QuestionID(n.String())
	return nil
}

// Question is one quiz question with its ordered choices.
type Question struct {
	ID      QuestionID `json:"id"`
	Prompt  string     `json:"q"`
	Choices []string   `json:"choices"`
}

// QuizData wraps the question list.
type QuizData struct {
	Questions []Question `json:"questions"`
}

// QuizStart is the start-quiz response. When RequireFaceReauth is set the
// payload may be partial.
type QuizStart struct {
	QuizID            int
	Title             string
	Data              QuizData
	RequireFaceReauth bool
	Raw               []byte
}

// UnmarshalJSON reads quiz_id, falling back to quizId.
func (s *QuizStart) UnmarshalJSON(data []byte) error {
	var raw struct {
		QuizID            *json.Number `json:"quiz_id"`
		QuizIDCamel       *json.Number `json:"quizId"`
		Title             string       `json:"title"`
		Data              QuizData     `json:"data"`
		RequireFaceReauth bool         `json:"require_face_reauth"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal quiz start: %w", err)
	}

	id := raw.QuizID
	if id == nil {
		id = raw.QuizIDCamel
	}
	if id != nil {
		n, err := strconv.Atoi(id.String())
		if err != nil {
			return fmt.Errorf("unmarshal quiz start: invalid quiz id %q", id.String())
		}
		s.QuizID = n
	}

	s.Title = raw.Title
	s.Data = raw.Data
	s.RequireFaceReauth = raw.RequireFaceReauth
	s.Raw = compactJSON(data)
	return nil
}

// submitRequest is the submit-quiz body: {quiz_id, answers: {answers: {...}}}.
type submitRequest struct {
	QuizID  int           `json:"quiz_id"`
	Answers submitAnswers `json:"answers"`
}

type submitAnswers struct {
	Answers map[QuestionID]string `json:"answers"`
}

// QuizScore is the submit-quiz response.
type QuizScore struct {
	Score int `json:"score"`
}

// ResetTicket is the password-reset request response. Token is only
// returned by demo deployments.
type ResetTicket struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}
