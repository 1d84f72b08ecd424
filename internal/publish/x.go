package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the X API v2 endpoint root.
const DefaultBaseURL = "https://api.x.com"

// XClientConfig holds configuration for the X API client.
type XClientConfig struct {
	BaseURL     string
	BearerToken string

	// RequestsPerMinute caps the outbound publish rate (default: 10).
	RequestsPerMinute int

	// Timeout bounds each HTTP call (default: 15s).
	Timeout time.Duration
}

// XClient publishes posts through the X API v2 /2/tweets endpoint.
// Calls are throttled client-side so a large due batch stays within the
// platform's rate limits.
type XClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewXClient creates a rate-limited X API client.
func NewXClient(cfg XClientConfig) (*XClient, error) {
	if cfg.BearerToken == "" {
		return nil, fmt.Errorf("bearer token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.BaseURL[len(cfg.BaseURL)-1] == '/' {
		cfg.BaseURL = cfg.BaseURL[:len(cfg.BaseURL)-1]
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &XClient{
		baseURL: cfg.BaseURL,
		token:   cfg.BearerToken,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
	}, nil
}

type createPostRequest struct {
	Text  string        `json:"text"`
	Reply *replyPayload `json:"reply,omitempty"`
}

type replyPayload struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type createPostResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

type apiErrorResponse struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Publish posts text via POST /2/tweets and returns the created post ID.
func (c *XClient) Publish(ctx context.Context, text, inReplyTo string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	payload := createPostRequest{Text: text}
	if inReplyTo != "" {
		payload.Reply = &replyPayload{InReplyToTweetID: inReplyTo}
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := c.baseURL + "/2/tweets"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post tweet: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Title != "" {
			return "", fmt.Errorf("api returned status %d: %s: %s", resp.StatusCode, apiErr.Title, apiErr.Detail)
		}
		return "", fmt.Errorf("api returned status %d", resp.StatusCode)
	}

	var created createPostResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if created.Data.ID == "" {
		return "", fmt.Errorf("api response missing post id")
	}
	return created.Data.ID, nil
}
