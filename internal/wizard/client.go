package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/yar/internal/app/assembly"
	uierrors "github.com/dalemusser/yar/internal/app/features/errors"
	"github.com/dalemusser/yar/internal/domain/lifecycle"
	"github.com/dalemusser/yar/internal/domain/models"
	"github.com/pkg/errors"
)

// DefaultTimeout bounds each API request when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// Client is the backend the wizard saves through.
type Client interface {
	CreateReport(ctx context.Context, academicYear string) (*models.Report, error)
	GetReport(ctx context.Context, reportID string) (*assembly.HydratedReport, error)
	GetTeaching(ctx context.Context, reportID string) (*models.TeachingSection, error)
	SaveTeaching(ctx context.Context, reportID string, in assembly.TeachingInput) (*models.TeachingSection, error)
	GetResearch(ctx context.Context, reportID string) (*models.ResearchSection, error)
	SaveResearch(ctx context.Context, reportID string, in assembly.ResearchInput) (*models.ResearchSection, error)
	ListServices(ctx context.Context, reportID string) ([]models.ServiceEntry, error)
	CreateService(ctx context.Context, reportID string, in models.ServiceEntry) (*models.ServiceEntry, error)
	SetNotes(ctx context.Context, reportID, notes string) (*models.Report, error)
	Submit(ctx context.Context, reportID string) (*models.Report, error)
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status     int
	Message    string
	Fields     map[string]string
	ExistingID string
	Completion *lifecycle.Completion
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return e.Message
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var e *APIError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// APIClient talks to the YAR REST API with a bearer token.
type APIClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewAPIClient returns a client for baseURL. A zero timeout uses
// DefaultTimeout.
func NewAPIClient(baseURL, token string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type session struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *APIClient) Login(ctx context.Context, netID, password string) (*models.User, error) {
	var s session
	body := map[string]string{"net_id": netID, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &s); err != nil {
		return nil, err
	}
	c.Token = s.Token
	return &s.User, nil
}

func (c *APIClient) CreateReport(ctx context.Context, academicYear string) (*models.Report, error) {
	var out models.Report
	in := assembly.CreateReportInput{AcademicYear: academicYear}
	if err := c.do(ctx, http.MethodPost, "/reports", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) GetReport(ctx context.Context, reportID string) (*assembly.HydratedReport, error) {
	var out assembly.HydratedReport
	if err := c.do(ctx, http.MethodGet, "/reports/"+url.PathEscape(reportID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTeaching returns nil when the report has no teaching section yet.
func (c *APIClient) GetTeaching(ctx context.Context, reportID string) (*models.TeachingSection, error) {
	var out *models.TeachingSection
	if err := c.do(ctx, http.MethodGet, "/teaching/"+url.PathEscape(reportID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) SaveTeaching(ctx context.Context, reportID string, in assembly.TeachingInput) (*models.TeachingSection, error) {
	var out models.TeachingSection
	if err := c.do(ctx, http.MethodPost, "/teaching/"+url.PathEscape(reportID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetResearch returns nil when the report has no research section yet.
func (c *APIClient) GetResearch(ctx context.Context, reportID string) (*models.ResearchSection, error) {
	var out *models.ResearchSection
	if err := c.do(ctx, http.MethodGet, "/research/"+url.PathEscape(reportID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) SaveResearch(ctx context.Context, reportID string, in assembly.ResearchInput) (*models.ResearchSection, error) {
	var out models.ResearchSection
	if err := c.do(ctx, http.MethodPost, "/research/"+url.PathEscape(reportID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) ListServices(ctx context.Context, reportID string) ([]models.ServiceEntry, error) {
	var out []models.ServiceEntry
	if err := c.do(ctx, http.MethodGet, "/service/"+url.PathEscape(reportID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) CreateService(ctx context.Context, reportID string, in models.ServiceEntry) (*models.ServiceEntry, error) {
	var out models.ServiceEntry
	if err := c.do(ctx, http.MethodPost, "/service/"+url.PathEscape(reportID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) SetNotes(ctx context.Context, reportID, notes string) (*models.Report, error) {
	var out models.Report
	body := map[string]string{"notes": notes}
	if err := c.do(ctx, http.MethodPut, "/reports/"+url.PathEscape(reportID)+"/notes", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Submit(ctx context.Context, reportID string) (*models.Report, error) {
	var out models.Report
	if err := c.do(ctx, http.MethodPost, "/reports/"+url.PathEscape(reportID)+"/submit", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends one JSON request. Error bodies are decoded into *APIError;
// transport failures are wrapped with the method and path.
func (c *APIClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb uierrors.Body
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&eb)
		return &APIError{
			Status:     resp.StatusCode,
			Message:    eb.Error,
			Fields:     eb.Fields,
			ExistingID: eb.ExistingID,
			Completion: eb.Completion,
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}
	return nil
}
