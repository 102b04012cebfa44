package game

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Submission is the payload handed to the score sink when a round ends.
type Submission struct {
	OutcomeID        string   `json:"outcomeId"`
	PlayerID         string   `json:"playerId"`
	DisplayName      string   `json:"displayName"`
	Correct          bool     `json:"correct"`
	Score            int      `json:"score"`
	SecondsRemaining int      `json:"secondsRemaining"`
	QuestionsAsked   int      `json:"questionsAsked"`
	Log              []Answer `json:"log,omitempty"`
	Token            string   `json:"token"`
}

// SubmissionToken computes the integrity digest over the submission's core
// fields and a shared secret, as a lowercase hex string. The secret and the
// algorithm ship in every client, so this is tamper evidence against casual
// cheating, not a security boundary.
func SubmissionToken(playerID string, score, secondsRemaining, questionsAsked int, secret string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s%d%d%d%s",
		playerID, score, secondsRemaining, questionsAsked, secret))
	return hex.EncodeToString(sum[:])
}

// SinkClient submits finished rounds to the score sink over HTTP. A single
// attempt per submission; the caller decides whether a failure is worth a
// manual retry.
type SinkClient struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewSinkClient returns a client for the score sink at baseURL. httpClient
// may be nil to use http.DefaultClient.
func NewSinkClient(baseURL, secret string, httpClient *http.Client) *SinkClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SinkClient{baseURL: baseURL, secret: secret, client: httpClient}
}

// Submit signs and posts the submission. Non-2xx responses are parsed as a
// structured error body when possible, otherwise wrapped with the raw text.
func (c *SinkClient) Submit(ctx context.Context, sub Submission) error {
	sub.Token = SubmissionToken(sub.PlayerID, sub.Score, sub.SecondsRemaining, sub.QuestionsAsked, c.secret)

	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encoding submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/scores", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting score: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var structured struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &structured) == nil && structured.Error != "" {
		return fmt.Errorf("score sink rejected submission: %s", structured.Error)
	}
	return fmt.Errorf("score sink returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
}
