package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"eco-route-engine/internal/domain"

	"github.com/sirupsen/logrus"
)

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// orsMessage extracts the provider's human-readable error message from an
// ORS error body, falling back to the raw body.
func (e *httpStatusError) orsMessage() string {
	var decoded struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(e.Body), &decoded); err == nil && decoded.Error.Message != "" {
		return decoded.Error.Message
	}
	return e.Body
}

func (o *ORSRouteProvider) newRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (o *ORSRouteProvider) do(req *http.Request) (*http.Response, error) {
	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429/5xx responses)
// using exponential backoff while respecting context cancellation. The final
// error is classified into the oracle fault taxonomy: a definitive provider
// rejection (4xx) is non-retriable, everything else exhausts the attempt
// budget and surfaces as oracle-unavailable.
func (o *ORSRouteProvider) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	backoff := 200 * time.Millisecond

	var lastErr error

	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := o.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}

		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == o.maxAttempts {
			return nil, o.classify(lastErr)
		}

		o.log.WithFields(logrus.Fields{"attempt": attempt, "err": err}).Warn("retrying oracle call")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, o.classify(lastErr)
}

// classify maps a transport-level failure onto the domain fault taxonomy.
func (o *ORSRouteProvider) classify(err error) error {
	if err == nil {
		return nil
	}

	var he *httpStatusError
	if errors.As(err, &he) {
		if he.Code >= 400 && he.Code < 500 && he.Code != 429 {
			// The provider definitively rejected the query (e.g. a point not
			// reachable by road). Retrying or approximating would be wrong.
			return domain.WrapError(domain.KindOracleRejected, err, "routing provider rejected query: %s", he.orsMessage())
		}
		return domain.WrapError(domain.KindOracleUnavailable, err, "routing provider error (status %d)", he.Code)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	return domain.WrapError(domain.KindOracleUnavailable, err, "routing provider unreachable")
}
