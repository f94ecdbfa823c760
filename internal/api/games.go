package api

import (
	"context"
	"fmt"
	"net/url"
)

// GameStatus is the resynchronization payload for an active room. Optional
// fields are present depending on status: question/answer/answered/time
// while playing, leaderboard when finished.
type GameStatus struct {
	Status      string           `json:"status"`
	Score       int              `json:"score"`
	Question    string           `json:"question,omitempty"`
	Answer      string           `json:"answer,omitempty"`
	Answered    int              `json:"answered,omitempty"`
	Time        string           `json:"time,omitempty"`
	Leaderboard []LeaderboardRow `json:"leaderboard,omitempty"`
}

// LeaderboardRow is one scored participant, ordered by the server.
type LeaderboardRow struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Score int    `json:"score"`
}

// CreateGame opens a new room for a questionnaire and returns the room id
// used to build the room token.
func (c *Client) CreateGame(ctx context.Context, questionnaireID string) (string, error) {
	form := url.Values{}
	form.Set("questionnaire_id", questionnaireID)

	var envelope struct {
		Data    string `json:"data"`
		Message string `json:"message"`
	}
	if err := c.postForm(ctx, GamesEndpoint, form, &envelope); err != nil {
		return "", fmt.Errorf("create game: %w", err)
	}
	return envelope.Data, nil
}

// JoinGame joins an existing room. The backend routes the join through a
// POST with a method override.
func (c *Client) JoinGame(ctx context.Context, gameID string) (string, error) {
	var envelope struct {
		Data    string `json:"data"`
		Message string `json:"message"`
	}
	endpoint := fmt.Sprintf("%s/%s?_method=PATCH", GamesEndpoint, url.PathEscape(gameID))
	if err := c.postForm(ctx, endpoint, url.Values{}, &envelope); err != nil {
		return "", fmt.Errorf("join game: %w", err)
	}
	return envelope.Data, nil
}

// Status fetches the current state of the room identified by code.
func (c *Client) Status(ctx context.Context, code string) (*GameStatus, error) {
	var status GameStatus
	endpoint := fmt.Sprintf("%s?code=%s", GameStatusEndpoint, url.QueryEscape(code))
	if err := c.get(ctx, endpoint, &status); err != nil {
		return nil, fmt.Errorf("game status: %w", err)
	}
	return &status, nil
}

// SubmitAnswer posts the local player's answer for the current round.
func (c *Client) SubmitAnswer(ctx context.Context, code, answer string) error {
	form := url.Values{}
	form.Set("answer", answer)

	endpoint := fmt.Sprintf("%s?code=%s", GameAnswerEndpoint, url.QueryEscape(code))
	if err := c.postForm(ctx, endpoint, form, nil); err != nil {
		return fmt.Errorf("submit answer: %w", err)
	}
	return nil
}

// KickPlayer removes a player from the room. Host only.
func (c *Client) KickPlayer(ctx context.Context, playerID, code string) error {
	endpoint := fmt.Sprintf("%s/%s?code=%s", GamePlayerEndpoint, url.PathEscape(playerID), url.QueryEscape(code))
	if err := c.delete(ctx, endpoint, nil); err != nil {
		return fmt.Errorf("kick player: %w", err)
	}
	return nil
}
