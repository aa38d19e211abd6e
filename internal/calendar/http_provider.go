package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/talentbridge/interview-scheduler/internal/model"
	"go.uber.org/zap"
)

// HTTPProvider talks to the calendar integration service over REST.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPProvider(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type inviteResponse struct {
	Link string `json:"link"`
}

func (p *HTTPProvider) CreateInvite(ctx context.Context, req InviteRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal invite request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/invites", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build invite request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: create invite: %v", model.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: create invite: status %d", model.ErrExternalService, resp.StatusCode)
	}

	var out inviteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode invite response: %v", model.ErrExternalService, err)
	}

	return out.Link, nil
}

type busyResponse struct {
	Intervals []model.Interval `json:"intervals"`
}

func (p *HTTPProvider) BusyIntervals(ctx context.Context, recruiterID int64, from, to time.Time) ([]model.Interval, error) {
	u := fmt.Sprintf("%s/recruiters/%d/busy?%s", p.baseURL, recruiterID, url.Values{
		"from": {from.Format(time.RFC3339)},
		"to":   {to.Format(time.RFC3339)},
	}.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build busy request: %w", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: busy intervals: %v", model.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: busy intervals: status %d", model.ErrExternalService, resp.StatusCode)
	}

	var out busyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode busy response: %v", model.ErrExternalService, err)
	}

	return out.Intervals, nil
}
