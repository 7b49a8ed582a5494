package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mind-engage/quizsync/internal/quiz"
)

// Client fetches the current question listing of a lecture from the content
// system over HTTP: GET {base}/lectures/{id}/questions.
type Client struct {
	http *http.Client
	base string
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		base: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

func (c *Client) FetchCurrentQuestions(ctx context.Context, lectureID string) ([]quiz.QuestionDescriptor, error) {
	u := c.base + "/lectures/" + url.PathEscape(lectureID) + "/questions"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch questions for %s: %s", lectureID, res.Status)
	}
	var items []quiz.QuestionDescriptor
	if err := json.NewDecoder(res.Body).Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}
