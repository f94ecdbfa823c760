package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

type Questionnaire struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	QuizCount   int    `json:"quiz_count"`
}

// ListQuestionnaires fetches a page of questionnaires. page starts at 1;
// a page of 0 means the server default.
func (c *Client) ListQuestionnaires(ctx context.Context, page int, search string) ([]Questionnaire, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if search != "" {
		query.Set("search", search)
	}

	var envelope struct {
		Data []Questionnaire `json:"data"`
	}
	endpoint := QuestionnairesEndpoint
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	if err := c.get(ctx, endpoint, &envelope); err != nil {
		return nil, fmt.Errorf("list questionnaires: %w", err)
	}
	return envelope.Data, nil
}

// CreateQuestionnaire creates a questionnaire and returns its id.
func (c *Client) CreateQuestionnaire(ctx context.Context, title, description string) (string, error) {
	form := url.Values{}
	form.Set("title", title)
	form.Set("description", description)

	var envelope struct {
		Data Questionnaire `json:"data"`
	}
	if err := c.postForm(ctx, QuestionnairesEndpoint, form, &envelope); err != nil {
		return "", fmt.Errorf("create questionnaire: %w", err)
	}
	return envelope.Data.ID, nil
}

// UpdateQuestionnaire updates title/description through the method override
// route.
func (c *Client) UpdateQuestionnaire(ctx context.Context, id, title, description string) error {
	form := url.Values{}
	form.Set("title", title)
	form.Set("description", description)

	endpoint := fmt.Sprintf("%s/%s?_method=PATCH", QuestionnairesEndpoint, url.PathEscape(id))
	if err := c.postForm(ctx, endpoint, form, nil); err != nil {
		return fmt.Errorf("update questionnaire: %w", err)
	}
	return nil
}

func (c *Client) DeleteQuestionnaire(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/%s", QuestionnairesEndpoint, url.PathEscape(id))
	if err := c.delete(ctx, endpoint, nil); err != nil {
		return fmt.Errorf("delete questionnaire: %w", err)
	}
	return nil
}
