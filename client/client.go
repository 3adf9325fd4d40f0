// Package client is a typed HTTP client for the household engine API,
// used by the flatshare CLI.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/flatmate/household-engine/api"
	"github.com/flatmate/household-engine/logging"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Details any
}

func (e *APIError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s (status %d): %v", e.Message, e.Status, e.Details)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Client talks to one server on behalf of one room. An empty room means an
// anonymous caller: full calendar and payment lists, nothing editable.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// New creates a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, room string, logger *zap.Logger) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json")
	if room != "" {
		c.SetHeader(api.CallerHeader, room)
	}
	return &Client{http: c, logger: logging.OrNop(logger)}
}

// =============================================================================
// ROOMS
// =============================================================================

func (c *Client) Rooms(ctx context.Context) ([]api.RoomDTO, error) {
	var rooms []api.RoomDTO
	if err := c.get(ctx, "/api/rooms", &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// ImportRooms posts a household JSON document.
func (c *Client) ImportRooms(ctx context.Context, householdJSON string) (api.ImportResponse, error) {
	var resp api.ImportResponse
	r, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(householdJSON).
		SetResult(&resp).
		Post("/api/rooms/import")
	if err := c.check(r, err); err != nil {
		return api.ImportResponse{}, err
	}
	return resp, nil
}

// =============================================================================
// CALENDAR
// =============================================================================

func (c *Client) Calendar(ctx context.Context) ([]api.AssignmentDTO, error) {
	var entries []api.AssignmentDTO
	if err := c.get(ctx, "/api/calendar", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) SetTasks(ctx context.Context, id int64, states api.TaskStatesDTO) error {
	r, err := c.request(ctx).
		SetBody(states.Request()).
		Put("/api/calendar/" + strconv.FormatInt(id, 10))
	return c.check(r, err)
}

// =============================================================================
// BILLS
// =============================================================================

func (c *Client) Bills(ctx context.Context) ([]api.BillDTO, error) {
	var bills []api.BillDTO
	if err := c.get(ctx, "/api/bills", &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// AddBill ingests a bill. A bill that already exists is not an error: the
// returned outcome is "already_exists".
func (c *Client) AddBill(ctx context.Context, bill api.BillDTO) (string, error) {
	var resp api.IngestResponse
	r, err := c.request(ctx).
		SetBody(bill).
		SetResult(&resp).
		Post("/api/bills")
	if err == nil && r.StatusCode() == http.StatusConflict {
		return "already_exists", nil
	}
	if err := c.check(r, err); err != nil {
		return "", err
	}
	return resp.Outcome, nil
}

// Reconcile creates the missing cost entries of a bill.
func (c *Client) Reconcile(ctx context.Context, billID string) (int, error) {
	var resp api.ReconcileResponse
	r, err := c.request(ctx).
		SetResult(&resp).
		Post("/api/bills/" + billID + "/reconcile")
	if err := c.check(r, err); err != nil {
		return 0, err
	}
	return resp.Created, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (c *Client) Payments(ctx context.Context) ([]api.PaymentDTO, error) {
	var payments []api.PaymentDTO
	if err := c.get(ctx, "/api/payments", &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// ActivePayment returns the caller's open payment, if any.
func (c *Client) ActivePayment(ctx context.Context) (api.PaymentDTO, bool, error) {
	var p api.PaymentDTO
	r, err := c.request(ctx).SetResult(&p).Get("/api/payments/active")
	if err == nil && r.StatusCode() == http.StatusNotFound {
		return api.PaymentDTO{}, false, nil
	}
	if err := c.check(r, err); err != nil {
		return api.PaymentDTO{}, false, err
	}
	return p, true, nil
}

func (c *Client) SetAccepted(ctx context.Context, id int64, accepted bool) error {
	r, err := c.request(ctx).
		SetBody(api.NewSetAcceptedRequest(accepted)).
		Put("/api/payments/" + strconv.FormatInt(id, 10))
	return c.check(r, err)
}

// ExportPayments copies the xlsx export to w.
func (c *Client) ExportPayments(ctx context.Context, w io.Writer) error {
	r, err := c.request(ctx).
		SetDoNotParseResponse(true).
		Get("/api/payments/export")
	if err != nil {
		return fmt.Errorf("failed to call export: %w", err)
	}
	body := r.RawBody()
	defer body.Close()
	if r.StatusCode() != http.StatusOK {
		return &APIError{Status: r.StatusCode(), Message: "export failed"}
	}
	_, err = io.Copy(w, body)
	return err
}

// =============================================================================
// SCENARIOS
// =============================================================================

func (c *Client) LoadScenario(ctx context.Context, id string) error {
	r, err := c.request(ctx).
		SetBody(api.LoadScenarioRequest{ScenarioID: id}).
		Post("/api/scenarios/load")
	return c.check(r, err)
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&api.ErrorResponse{})
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	r, err := c.request(ctx).SetResult(result).Get(path)
	return c.check(r, err)
}

func (c *Client) check(r *resty.Response, err error) error {
	if err != nil {
		c.logger.Error("household API call failed", zap.Error(err))
		return fmt.Errorf("failed to call household API: %w", err)
	}
	if !r.IsError() {
		return nil
	}

	apiErr := &APIError{Status: r.StatusCode(), Message: r.Status()}
	if e, ok := r.Error().(*api.ErrorResponse); ok && e.Error != "" {
		apiErr.Message = e.Error
		apiErr.Details = e.Details
	}
	c.logger.Debug("household API returned error",
		zap.String("path", r.Request.URL),
		zap.Int("status", apiErr.Status),
		zap.String("msg", apiErr.Message))
	return apiErr
}
