// Package report publishes the outcome of a hosted match to a results
// service.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/config"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/result"
	"github.com/sirupsen/logrus"
)

// RequestTimeout bounds a single report request.
const RequestTimeout = 10 * time.Second

type (
	// Report is the body posted to the results service.
	Report struct {
		MatchID string        `json:"match_id"`
		Config  string        `json:"config"`
		Result  result.Result `json:"result"`
		Replay  string        `json:"replay,omitempty"`
	}

	// Reporter posts match reports to a results service.
	Reporter struct {
		url    string
		client *http.Client
		logger *logrus.Entry
	}

	// UnexpectedHTTPStatusError is returned when the results service answers
	// with a non-2xx status code.
	UnexpectedHTTPStatusError int
)

func (e UnexpectedHTTPStatusError) Error() string {
	return fmt.Sprintf("results service returned an unexpected status code: %d", int(e))
}

// New returns a reporter posting to url.
func New(url string, l *logrus.Entry) *Reporter {
	return &Reporter{
		url:    url,
		client: &http.Client{Timeout: RequestTimeout},
		logger: l,
	}
}

// NewReport builds the report of a match played with c.
func NewReport(c *config.Config, res result.Result, replayText string) Report {
	return Report{
		MatchID: c.MatchID,
		Config:  c.Name,
		Result:  res,
		Replay:  replayText,
	}
}

// Send posts rep to the results service.
func (r *Reporter) Send(ctx context.Context, rep Report) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("error encoding report: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("report request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("report request to results service: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return UnexpectedHTTPStatusError(res.StatusCode)
	}

	r.logger.
		WithField("match_id", rep.MatchID).
		WithField("status", res.StatusCode).
		Info("match reported")

	return nil
}
