package turnosmed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/turnosmed/booking-engine/pkg/logging"
)

const defaultTimeout = 10 * time.Second

// Client wraps REST calls against the TurnosMed backend API. A bearer
// credential, when present on the context identity, is attached to every
// request; the client never acquires or refreshes credentials itself.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger

	// tokenFunc resolves the bearer credential for a request. Nil means
	// anonymous.
	tokenFunc func(ctx context.Context) string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default 10s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTokenFunc installs the credential resolver used for the
// Authorization header.
func WithTokenFunc(fn func(ctx context.Context) string) Option {
	return func(c *Client) { c.tokenFunc = fn }
}

// NewClient constructs a TurnosMed backend client.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListSpecialties lists all medical specialties.
func (c *Client) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	var wrapped struct {
		Data []Specialty `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/doctors/specialties", nil, &wrapped); err != nil {
		return nil, fmt.Errorf("list specialties: %w", err)
	}
	return wrapped.Data, nil
}

// ListDoctors lists doctors, optionally filtered by specialty.
func (c *Client) ListDoctors(ctx context.Context, opts ListDoctorsOptions) ([]Doctor, error) {
	path := "/api/doctors"
	if opts.SpecialtyID != 0 {
		q := url.Values{}
		q.Set("specialtyId", strconv.FormatInt(opts.SpecialtyID, 10))
		path += "?" + q.Encode()
	}
	var wrapped struct {
		Data []Doctor `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &wrapped); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return wrapped.Data, nil
}

// ListClinics lists all clinic locations.
func (c *Client) ListClinics(ctx context.Context) ([]Clinic, error) {
	var wrapped struct {
		Data []Clinic `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/clinics", nil, &wrapped); err != nil {
		return nil, fmt.Errorf("list clinics: %w", err)
	}
	return wrapped.Data, nil
}

// GetAvailability returns the backend's availability feed for a doctor on a
// calendar date (YYYY-MM-DD).
func (c *Client) GetAvailability(ctx context.Context, doctorID int64, date string) (*Availability, error) {
	path := fmt.Sprintf("/api/appointments/availability/%d/%s", doctorID, url.PathEscape(date))
	var wrapped struct {
		Data Availability `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &wrapped); err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	return &wrapped.Data, nil
}

// CreatePatient creates a minimal patient record from booking contact info.
func (c *Client) CreatePatient(ctx context.Context, req CreatePatientRequest) (*Patient, error) {
	var wrapped struct {
		Data Patient `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/patients", req, &wrapped); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return &wrapped.Data, nil
}

// CreateAppointment books an appointment. A 409 means the slot was taken
// between selection and submission.
func (c *Client) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*Appointment, error) {
	var wrapped struct {
		Data Appointment `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/appointments", req, &wrapped); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return &wrapped.Data, nil
}

// errorEnvelope covers the backend's error body shapes: a plain message and
// optionally structured field errors.
type errorEnvelope struct {
	Message string       `json:"message"`
	Error   string       `json:"error"`
	Errors  []FieldError `json:"errors"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokenFunc != nil {
		if token := c.tokenFunc(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Kind:       kindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
		var env errorEnvelope
		if jsonErr := json.Unmarshal(respBody, &env); jsonErr == nil {
			apiErr.Message = env.Message
			if apiErr.Message == "" {
				apiErr.Message = env.Error
			}
			apiErr.Fields = env.Errors
		}
		if apiErr.Message == "" && len(apiErr.Fields) == 0 {
			msg := string(respBody)
			if len(msg) > 300 {
				msg = msg[:300]
			}
			apiErr.Message = msg
		}
		c.logger.Warn("backend API non-2xx response",
			"status", resp.StatusCode,
			"path", path,
			"kind", apiErr.Kind.String(),
		)
		return apiErr
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
