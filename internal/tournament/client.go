package tournament

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// FailedResultsKey is the Redis list holding results that could not be submitted.
const FailedResultsKey = "tournament:failed_results"

// parkTimeout bounds a Redis write made after the caller's context may be gone.
const parkTimeout = 5 * time.Second

var (
	ErrNotConfigured  = errors.New("tournament service not configured")
	ErrMatchNotFound  = errors.New("tournament match not found")
	ErrNotParticipant = errors.New("user is not a participant of this match")
)

// Participant is one seat of a tournament match.
type Participant struct {
	UserID       string            `json:"userId"`
	Username     string            `json:"username"`
	IsAI         bool              `json:"isAi"`
	AIDifficulty string            `json:"aiDifficulty,omitempty"`
	KeyBindings  map[string]string `json:"keyBindings,omitempty"`
}

// MatchDetails is what the tournament service knows about a match.
// Player1 plays the left side.
type MatchDetails struct {
	MatchID      string      `json:"matchId"`
	TournamentID string      `json:"tournamentId,omitempty"`
	Round        int         `json:"round,omitempty"`
	Status       string      `json:"status,omitempty"`
	Player1      Participant `json:"player1"`
	Player2      Participant `json:"player2"`
}

// Seat reports which participant slot userID occupies, 1 or 2, or 0.
func (m MatchDetails) Seat(userID string) int {
	switch {
	case userID == "":
		return 0
	case m.Player1.UserID == userID:
		return 1
	case m.Player2.UserID == userID:
		return 2
	}
	return 0
}

// Result is submitted once a tournament match finishes.
type Result struct {
	MatchID      string `json:"matchId"`
	WinnerID     string `json:"winnerId"`
	Player1Score int    `json:"player1Score"`
	Player2Score int    `json:"player2Score"`
	SubmittedBy  string `json:"submittedBy"`
}

// Service is the tournament collaborator.
type Service interface {
	GetMatch(ctx context.Context, matchID string) (MatchDetails, error)
	SubmitResult(ctx context.Context, r Result) error
}

// Client talks to the tournament service over HTTP. Submissions are retried
// and, when they still fail, parked in Redis for a later retry.
type Client struct {
	baseURL    string
	token      string
	rdb        *redis.Client
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
}

// NewClient returns nil when baseURL is empty. rdb may be nil.
func NewClient(baseURL, token string, rdb *redis.Client) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		rdb:        rdb,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		attempts:   3,
		backoff:    200 * time.Millisecond,
	}
}

// GetMatch fetches participants for matchID.
func (c *Client) GetMatch(ctx context.Context, matchID string) (MatchDetails, error) {
	if c == nil {
		return MatchDetails{}, ErrNotConfigured
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/matches/"+url.PathEscape(matchID), nil)
	if err != nil {
		return MatchDetails{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return MatchDetails{}, fmt.Errorf("get match %s: %w", matchID, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return MatchDetails{}, ErrMatchNotFound
	case resp.StatusCode != http.StatusOK:
		return MatchDetails{}, fmt.Errorf("get match %s: status %d: %s", matchID, resp.StatusCode, string(body))
	}

	var details MatchDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return MatchDetails{}, fmt.Errorf("get match %s: decode: %w", matchID, err)
	}
	if details.MatchID == "" {
		details.MatchID = matchID
	}
	return details, nil
}

// SubmitResult posts r, retrying transient failures. After the last attempt
// the result is parked under FailedResultsKey and the error returned.
func (c *Client) SubmitResult(ctx context.Context, r Result) error {
	if c == nil {
		return ErrNotConfigured
	}

	err := c.submit(ctx, r)
	if err == nil {
		return nil
	}
	log.Printf("[TOURNAMENT] submit failed for match %s: %v", r.MatchID, err)
	c.park(ctx, r)
	return err
}

func (c *Client) submit(ctx context.Context, r Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		req, err := c.newRequest(ctx, http.MethodPost, "/matches/"+url.PathEscape(r.MatchID)+"/result", payload)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("tournament service returned %d: %s", resp.StatusCode, string(body))
		// 4xx will not get better on retry
		if resp.StatusCode < 500 {
			break
		}
	}
	return lastErr
}

func (c *Client) park(ctx context.Context, r Result) {
	if c.rdb == nil {
		log.Printf("[TOURNAMENT] no redis configured; result for match %s must be resubmitted manually: %+v", r.MatchID, r)
		return
	}
	b, _ := json.Marshal(r)
	if err := c.pushParked(ctx, b); err != nil {
		log.Printf("[TOURNAMENT] failed to park result for match %s: %v (result=%s)", r.MatchID, err, string(b))
		return
	}
	log.Printf("[TOURNAMENT] parked result for match %s in %s", r.MatchID, FailedResultsKey)
}

// pushParked appends raw to FailedResultsKey. It runs detached from ctx's
// cancellation: the submit that preceded it usually failed by using up ctx.
func (c *Client) pushParked(ctx context.Context, raw interface{}) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), parkTimeout)
	defer cancel()
	return c.rdb.RPush(ctx, FailedResultsKey, raw).Err()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}
