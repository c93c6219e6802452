package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fleetops/dt-ingest/internal/clock"
)

const (
	defaultHTTPTimeout = 30 * time.Second

	maxAttempts429   = 5
	backoffBase429   = 10 * time.Second
	maxAttemptsTimeout = 3
	backoffBaseTimeout = time.Second

	defaultCircuitMaxFailures = 5
	defaultCircuitTimeout     = 60 * time.Second
)

// ErrNoData is the typed "no-data" sentinel returned for HTTP 404 responses
// from the fleet-tracking service, per §4.3.
var ErrNoData = errors.New("fleet: no data")

// FleetClient is the set of operations the orchestrator needs from the
// upstream fleet-tracking service.
type FleetClient interface {
	ListRouteLists(ctx context.Context, from, to time.Time) ([]RouteList, error)
	ListRequests(ctx context.Context, from, to time.Time) ([]Request, error)
	FetchMonitoring(ctx context.Context, vehicleID int, from, to time.Time) (Monitoring, error)
}

// RetryingFleetClient implements FleetClient against the real service:
// token rotation, per-vehicle rate limiting, a circuit breaker around each
// logical operation, and two independent retry budgets (linear for 429,
// exponential for timeouts), grounded on the teacher's SpaceTradersClient.
type RetryingFleetClient struct {
	httpClient *http.Client
	baseURL    string
	tokens     *TokenPool
	limiter    *PerVehicleRateLimiter
	breaker    *CircuitBreaker
	clock      clock.Clock
}

// NewRetryingFleetClient builds a client against baseURL using tokens as the
// credential pool and limiter for per-vehicle pacing.
func NewRetryingFleetClient(baseURL string, tokens *TokenPool, limiter *PerVehicleRateLimiter, c clock.Clock) *RetryingFleetClient {
	if c == nil {
		c = clock.New()
	}
	return &RetryingFleetClient{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:    baseURL,
		tokens:     tokens,
		limiter:    limiter,
		breaker:    NewCircuitBreaker(defaultCircuitMaxFailures, defaultCircuitTimeout, c),
		clock:      c,
	}
}

// ListRouteLists implements FleetClient.
func (c *RetryingFleetClient) ListRouteLists(ctx context.Context, from, to time.Time) ([]RouteList, error) {
	var payload routeListResponse
	err := c.call(ctx, "getRouteListsByDateOut", url.Values{
		"fromDate": {FormatDateOnly(from)},
		"toDate":   {FormatDateOnly(to)},
	}, &payload)
	if errors.Is(err, ErrNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, NewError(classifyFleetErr(err), "ListRouteLists", err)
	}
	return payload.toDomain(), nil
}

// ListRequests implements FleetClient.
func (c *RetryingFleetClient) ListRequests(ctx context.Context, from, to time.Time) ([]Request, error) {
	var payload requestListResponse
	err := c.call(ctx, "getRequests", url.Values{
		"fromDate": {FormatDateOnly(from)},
		"toDate":   {FormatDateOnly(to)},
	}, &payload)
	if errors.Is(err, ErrNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, NewError(classifyFleetErr(err), "ListRequests", err)
	}
	return payload.toDomain(), nil
}

// FetchMonitoring implements FleetClient, rate-limited per vehicleID.
func (c *RetryingFleetClient) FetchMonitoring(ctx context.Context, vehicleID int, from, to time.Time) (Monitoring, error) {
	if err := c.limiter.Acquire(ctx, vehicleID); err != nil {
		return Monitoring{}, NewError(KindFleetTransient, "FetchMonitoring", err)
	}

	var payload monitoringResponse
	var raw []byte
	err := c.callCapturingRaw(ctx, "getMonitoringStats", url.Values{
		"idMO":     {fmt.Sprintf("%d", vehicleID)},
		"fromDate": {FormatDateMinute(from)},
		"toDate":   {FormatDateMinute(to)},
	}, &payload, &raw)
	if errors.Is(err, ErrNoData) {
		return Monitoring{}, ErrNoData
	}
	if err != nil {
		return Monitoring{}, NewError(classifyFleetErr(err), "FetchMonitoring", err)
	}
	mon := payload.toDomain()
	mon.Raw = raw
	return mon, nil
}

func classifyFleetErr(err error) Kind {
	if errors.Is(err, errRetryExhausted) {
		return KindFleetExhausted
	}
	return KindFleetTransient
}

var errRetryExhausted = errors.New("fleet: retry budget exhausted")

// call performs one circuit-breaker-wrapped logical operation: it issues the
// HTTP POST, applying the independent 429/timeout retry loops described in
// §4.3, and unmarshals the bare response body into result on success.
func (c *RetryingFleetClient) call(ctx context.Context, command string, params url.Values, result interface{}) error {
	return c.callCapturingRaw(ctx, command, params, result, nil)
}

// callCapturingRaw behaves like call but additionally stores the raw response
// bytes into rawOut when non-nil, for payloads persisted verbatim.
func (c *RetryingFleetClient) callCapturingRaw(ctx context.Context, command string, params url.Values, result interface{}, rawOut *[]byte) error {
	noData := false
	err := c.breaker.Call(func() error {
		err := c.attemptWithRetries(ctx, command, params, result, rawOut)
		if errors.Is(err, ErrNoData) {
			noData = true
			return nil
		}
		return err
	})
	if noData {
		return ErrNoData
	}
	return err
}

func (c *RetryingFleetClient) attemptWithRetries(ctx context.Context, command string, params url.Values, result interface{}, rawOut *[]byte) error {
	attempt429 := 0
	attemptTimeout := 0

	for {
		status, body, err := c.doRequest(ctx, command, params)
		if err != nil {
			if isTimeoutErr(err) {
				if attemptTimeout >= maxAttemptsTimeout-1 {
					return fmt.Errorf("%w: timeout after %d attempts: %v", errRetryExhausted, maxAttemptsTimeout, err)
				}
				if sleepErr := c.sleep(ctx, backoffBaseTimeout*time.Duration(1<<attemptTimeout)); sleepErr != nil {
					return sleepErr
				}
				attemptTimeout++
				continue
			}
			return fmt.Errorf("fleet transport error: %w", err)
		}

		switch {
		case status == http.StatusNotFound:
			return ErrNoData
		case status == http.StatusTooManyRequests:
			if attempt429 >= maxAttempts429-1 {
				return fmt.Errorf("%w: 429 after %d attempts", errRetryExhausted, maxAttempts429)
			}
			if sleepErr := c.sleep(ctx, backoffBase429*time.Duration(attempt429+1)); sleepErr != nil {
				return sleepErr
			}
			attempt429++
			continue
		case status >= 500:
			return fmt.Errorf("fleet service error (status %d)", status)
		case status >= 400:
			return fmt.Errorf("fleet client error (status %d): %s", status, string(body))
		}

		if result != nil {
			if rawOut != nil {
				*rawOut = append([]byte(nil), body...)
			}
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
		}
		return nil
	}
}

func (c *RetryingFleetClient) doRequest(ctx context.Context, command string, params url.Values) (int, []byte, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("command", command)
	q.Set("format", "json")
	q.Set("credential", c.tokens.Next())

	fullURL := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *RetryingFleetClient) sleep(ctx context.Context, d time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.clock.Sleep(d)
	return nil
}

func isTimeoutErr(err error) bool {
	type timeout interface{ Timeout() bool }
	var t timeout
	if errors.As(err, &t) {
		return t.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
