package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	defaultHTTPStatusThreshold = 300
	webhookTimeout             = 5 * time.Second
)

// WebhookService posts security events (logins) to an external sink.
// Delivery is fire-and-forget behind a circuit breaker so a dead sink
// cannot pile up goroutines waiting on timeouts.
type WebhookService struct {
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *zap.SugaredLogger
	webhookURL string
}

func NewWebhookService(log *zap.SugaredLogger, webhookURL string) *WebhookService {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "security-webhook",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &WebhookService{
		client:     &http.Client{Timeout: webhookTimeout},
		breaker:    breaker,
		log:        log,
		webhookURL: webhookURL,
	}
}

func (s *WebhookService) NotifyLogin(ctx context.Context, data map[string]interface{}) {
	if s.webhookURL == "" {
		return
	}

	// Outlives the request that triggered it.
	notifyCtx := context.WithoutCancel(ctx)

	go func() {
		_, err := s.breaker.Execute(func() (interface{}, error) {
			return nil, s.post(notifyCtx, data)
		})
		if err != nil {
			s.log.Errorw("failed to send security webhook", "error", err)
		}
	}()
}

func (s *WebhookService) post(ctx context.Context, data map[string]interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, s.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= defaultHTTPStatusThreshold {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
