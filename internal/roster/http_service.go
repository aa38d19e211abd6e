package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/talentbridge/interview-scheduler/internal/model"
)

// HTTPService reads participant data from the identity service over REST.
type HTTPService struct {
	baseURL string
	client  *http.Client
}

func NewHTTPService(baseURL string, timeout time.Duration) *HTTPService {
	return &HTTPService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPService) Student(ctx context.Context, id int64) (*Person, error) {
	return s.getPerson(ctx, fmt.Sprintf("%s/students/%d", s.baseURL, id))
}

func (s *HTTPService) Recruiter(ctx context.Context, id int64) (*Person, error) {
	return s.getPerson(ctx, fmt.Sprintf("%s/recruiters/%d", s.baseURL, id))
}

func (s *HTTPService) OnWaitlist(ctx context.Context, studentID int64) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/students/%d/waitlist", s.baseURL, studentID), nil)
	if err != nil {
		return false, fmt.Errorf("build waitlist request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: waitlist lookup: %v", model.ErrExternalService, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: waitlist lookup: status %d", model.ErrExternalService, resp.StatusCode)
	}
}

func (s *HTTPService) getPerson(ctx context.Context, url string) (*Person, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build person request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: person lookup: %v", model.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: person lookup: status %d", model.ErrExternalService, resp.StatusCode)
	}

	var p Person
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decode person: %v", model.ErrExternalService, err)
	}

	return &p, nil
}
