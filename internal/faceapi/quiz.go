package faceapi

import (
	"context"
)

// StartQuiz begins a quiz attempt.
func (c *Client) StartQuiz(ctx context.Context) (*QuizStart, error) {
	return doJSON[QuizStart](ctx, c, request{
		operation: "quiz_start",
		endpoint:  PathQuizStart,
		auth:      true,
	})
}

// SubmitQuiz sends the answers of an attempt. A nil map is sent as an empty object.
func (c *Client) SubmitQuiz(ctx context.Context, quizID int, answers map[QuestionID]string) (*QuizScore, error) {
	if answers == nil {
		answers = map[QuestionID]string{}
	}
	req, err := jsonRequest("quiz_submit", PathQuizSubmit, true, submitRequest{
		QuizID:  quizID,
		Answers: submitAnswers{Answers: answers},
	})
	if err != nil {
		return nil, err
	}
	return doJSON[QuizScore](ctx, c, req)
}
