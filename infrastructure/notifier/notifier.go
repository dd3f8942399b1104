package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/vfg2006/ads-sync/internal/config"
	"github.com/vfg2006/ads-sync/internal/domain"
	"github.com/vfg2006/ads-sync/internal/metrics"
)

//go:generate mockgen -source=notifier.go -destination=mocks/notifier_mock.go -package=mocks

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNoChannels = errors.New("no notification channel configured")

// Notifier delivers a notification to staff
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Channel is one delivery target
type Channel interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, n domain.Notification) error
}

type guardedChannel struct {
	Channel
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// Dispatcher fans a notification out to every enabled channel. Each channel
// sits behind its own circuit breaker.
type Dispatcher struct {
	channels []guardedChannel
}

type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

func NewDispatcher(settings BreakerSettings, channels ...Channel) *Dispatcher {
	d := &Dispatcher{}
	for _, ch := range channels {
		if !ch.Enabled() {
			logrus.WithField("channel", ch.Name()).Warn("notification channel not configured, skipping")
			continue
		}

		maxFailures := settings.MaxFailures
		d.channels = append(d.channels, guardedChannel{
			Channel: ch,
			breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
				Name:    ch.Name(),
				Timeout: settings.OpenTimeout,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= maxFailures
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					logrus.WithFields(logrus.Fields{
						"channel": name,
						"from":    from.String(),
						"to":      to.String(),
					}).Warn("notification channel breaker changed state")
				},
			}),
		})
	}
	return d
}

// NewFromConfig builds the LINE and Discord channels from configuration
func NewFromConfig(cfg *config.Config) *Dispatcher {
	httpClient := &http.Client{Timeout: time.Duration(cfg.Notification.TimeoutSeconds) * time.Second}

	return NewDispatcher(
		BreakerSettings{
			MaxFailures: cfg.Breaker.MaxFailures,
			OpenTimeout: time.Duration(cfg.Breaker.OpenTimeoutSeconds) * time.Second,
		},
		NewLine(httpClient, cfg.Notification.LineAPIURL, cfg.Notification.LineChannelAccessToken, cfg.Notification.LineGroupID),
		NewDiscord(httpClient, cfg.Notification.DiscordWebhookURL),
	)
}

// Notify sends to every channel and joins the failures. A failing channel
// does not stop delivery to the others.
func (d *Dispatcher) Notify(ctx context.Context, n domain.Notification) error {
	if len(d.channels) == 0 {
		metrics.Notifications.WithLabelValues("none", "skipped").Inc()
		return ErrNoChannels
	}

	var errs []error
	for _, ch := range d.channels {
		_, err := ch.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, ch.Send(ctx, n)
		})
		if err != nil {
			metrics.Notifications.WithLabelValues(ch.Name(), "failed").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		metrics.Notifications.WithLabelValues(ch.Name(), "sent").Inc()
	}

	return errors.Join(errs...)
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, readSnippet(resp))
	}

	return nil
}

func readSnippet(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return strings.TrimSpace(string(b))
}
