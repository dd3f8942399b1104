package metaclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	metadomain "github.com/vfg2006/ads-sync/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/ads-sync/internal/metrics"
)

// RetryPolicy waits BaseDelay*2^attempt between attempts, MaxRetries times,
// and only for rate-limit errors. The last attempt's error is returned.
type RetryPolicy struct {
	BaseDelay  time.Duration
	MaxRetries int
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = p.BaseDelay << p.MaxRetries
	exp.MaxElapsedTime = 0
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.MaxRetries)), ctx)
}

// IsRateLimited reports whether err carries a Graph throttling signature
func IsRateLimited(err error) bool {
	var graphErr *metadomain.GraphError
	if errors.As(err, &graphErr) {
		return graphErr.IsRateLimited()
	}
	return err != nil && metadomain.IsRateLimitMessage(err.Error())
}

func (c *MetaClient) getWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte

	operation := func() error {
		var err error
		body, err = c.get(ctx, rawURL)
		if err != nil && !IsRateLimited(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		metrics.GraphRetries.Inc()
		logrus.WithFields(logrus.Fields{
			"wait":  wait.String(),
			"error": err.Error(),
		}).Warn("graph api rate limited, backing off")
	}

	if err := backoff.RetryNotify(operation, c.retry.backOff(ctx), notify); err != nil {
		return nil, err
	}

	return body, nil
}

func (c *MetaClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating graph request: %w", err)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.GraphRequests.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()

	metrics.GraphRequestDuration.Observe(time.Since(started).Seconds())
	metrics.GraphRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	return HandleResponse(resp)
}

// HandleResponse returns the body of a 200 response and a *GraphError otherwise
func HandleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading graph response: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	graphErr := &metadomain.GraphError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}

	var errResp metadomain.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		graphErr.Details = errResp.Error
	}

	if errResp.IsTokenExpired() {
		logrus.WithField("fbtrace_id", errResp.Error.FBTraceID).Error("meta access token expired or revoked")
	}

	return nil, graphErr
}
