package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Quiz is one question inside a questionnaire. Answers holds two or four
// choices; RightAnswer must match one of them. Time is the round length in
// seconds.
type Quiz struct {
	ID              string   `json:"id"`
	QuestionnaireID string   `json:"questionnaire_id"`
	Question        string   `json:"question"`
	Answers         []string `json:"answer"`
	RightAnswer     string   `json:"right_answer"`
	Time            int      `json:"time"`
}

func (c *Client) ListQuizzes(ctx context.Context, questionnaireID string) ([]Quiz, error) {
	query := url.Values{}
	query.Set("questionnaire_id", questionnaireID)

	var envelope struct {
		Data []Quiz `json:"data"`
	}
	if err := c.get(ctx, QuizzesEndpoint+"?"+query.Encode(), &envelope); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return envelope.Data, nil
}

func quizForm(quiz Quiz) url.Values {
	form := url.Values{}
	form.Set("questionnaire_id", quiz.QuestionnaireID)
	form.Set("question", quiz.Question)
	for _, answer := range quiz.Answers {
		form.Add("answer[]", answer)
	}
	form.Set("right_answer", quiz.RightAnswer)
	form.Set("time", strconv.Itoa(quiz.Time))
	return form
}

func (c *Client) CreateQuiz(ctx context.Context, quiz Quiz) error {
	if err := c.postForm(ctx, QuizzesEndpoint, quizForm(quiz), nil); err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	return nil
}

func (c *Client) UpdateQuiz(ctx context.Context, quiz Quiz) error {
	endpoint := fmt.Sprintf("%s/%s?_method=PATCH", QuizzesEndpoint, url.PathEscape(quiz.ID))
	if err := c.postForm(ctx, endpoint, quizForm(quiz), nil); err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	return nil
}

func (c *Client) DeleteQuiz(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/%s", QuizzesEndpoint, url.PathEscape(id))
	if err := c.delete(ctx, endpoint, nil); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return nil
}
