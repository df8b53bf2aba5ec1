package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nexconsult/cnpj-enricher/internal/config"
	"github.com/nexconsult/cnpj-enricher/internal/models"
	"github.com/sirupsen/logrus"
)

const notFoundMessage = "CNPJ não encontrado"

// BrasilAPIClient looks up companies on the BrasilAPI CNPJ endpoint
type BrasilAPIClient struct {
	config         config.LookupConfig
	client         *http.Client
	logger         *logrus.Logger
	requestCounter int64
}

// NewBrasilAPIClient creates a new lookup client. A nil httpClient gets one
// with the configured timeout.
func NewBrasilAPIClient(cfg config.LookupConfig, httpClient *http.Client, logger *logrus.Logger) *BrasilAPIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &BrasilAPIClient{
		config: cfg,
		client: httpClient,
		logger: logger,
	}
}

// Lookup fetches one CNPJ, retrying rate-limited responses with a linear delay
// of RetryDelay*attempt for at most MaxRetries retries.
func (c *BrasilAPIClient) Lookup(ctx context.Context, cnpj string) models.LookupOutcome {
	start := time.Now()
	url := strings.TrimRight(c.config.BaseURL, "/") + "/" + cnpj

	for attempt := 1; attempt <= c.config.MaxRetries+1; attempt++ {
		requestID := atomic.AddInt64(&c.requestCounter, 1)
		log := c.logger.WithFields(logrus.Fields{
			"cnpj":       cnpj,
			"attempt":    attempt,
			"request_id": requestID,
		})

		status, body, err := c.get(ctx, url)
		if err != nil {
			log.WithError(err).Warn("BrasilAPI request failed")
			return models.LookupOutcome{Err: &LookupError{
				Kind:    LookupTransport,
				Message: fmt.Sprintf("Erro de conexão: %v", err),
				Err:     err,
			}}
		}

		log = log.WithField("status", status)

		switch {
		case status == http.StatusOK:
			if !json.Valid(body) {
				log.Warn("BrasilAPI returned a non-JSON body")
				return models.LookupOutcome{Err: &LookupError{
					Kind:       LookupTransport,
					StatusCode: status,
					Message:    "Erro de conexão: resposta não é um JSON válido",
				}}
			}
			log.WithField("duration", time.Since(start)).Debug("BrasilAPI lookup succeeded")
			return models.LookupOutcome{Payload: body}

		case status == http.StatusTooManyRequests && attempt <= c.config.MaxRetries:
			delay := c.config.RetryDelay * time.Duration(attempt)
			log.WithField("delay", delay).Warn("BrasilAPI rate limited, backing off")
			if err := sleepContext(ctx, delay); err != nil {
				return models.LookupOutcome{Err: &LookupError{
					Kind:    LookupTransport,
					Message: fmt.Sprintf("Erro de conexão: %v", err),
					Err:     err,
				}}
			}

		case status == http.StatusTooManyRequests:
			log.Warn("BrasilAPI rate limit retries exhausted")
			return models.LookupOutcome{Err: &LookupError{
				Kind:       LookupRateLimited,
				StatusCode: status,
				Message:    fmt.Sprintf("HTTP %d", status),
			}}

		case status == http.StatusNotFound:
			log.Info("CNPJ not found on BrasilAPI")
			return models.LookupOutcome{Err: &LookupError{
				Kind:       LookupNotFound,
				StatusCode: status,
				Message:    notFoundMessage,
			}}

		default:
			log.Warn("BrasilAPI returned an unexpected status")
			return models.LookupOutcome{Err: &LookupError{
				Kind:       LookupHTTPStatus,
				StatusCode: status,
				Message:    fmt.Sprintf("HTTP %d", status),
			}}
		}
	}

	// only reached when MaxRetries is negative
	return models.LookupOutcome{Err: &LookupError{
		Kind:       LookupRateLimited,
		StatusCode: http.StatusTooManyRequests,
		Message:    fmt.Sprintf("HTTP %d", http.StatusTooManyRequests),
	}}
}

// get issues one GET and returns the status and body
func (c *BrasilAPIClient) get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// Health returns client health status
func (c *BrasilAPIClient) Health() map[string]interface{} {
	return map[string]interface{}{
		"status":        "healthy",
		"base_url":      c.config.BaseURL,
		"request_count": atomic.LoadInt64(&c.requestCounter),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestCount returns the number of HTTP requests sent so far
func (c *BrasilAPIClient) RequestCount() int64 {
	return atomic.LoadInt64(&c.requestCounter)
}
