package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wipeout_enterprise/internal/config"
	"wipeout_enterprise/internal/logging"
)

// Client — клиент сервиса сертификации затирания
type Client struct {
	baseURL       string
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
	enabled       bool
	logger        *logging.AuditLogger
}

// SubmitResponse — ответ сервиса на отправку результата затирания
type SubmitResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		SubmissionID string `json:"submissionId,omitempty"`
		Certificate  struct {
			ID          string `json:"id,omitempty"`
			DownloadURL string `json:"downloadUrl,omitempty"`
		} `json:"certificate"`
	} `json:"data"`
}

// StatusResponse — ответ на запрос состояния отправки
type StatusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewClient создает клиента по конфигурации
func NewClient(cfg *config.Config, logger *logging.AuditLogger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}

	return &Client{
		baseURL: cfg.API.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.API.TimeoutSec) * time.Second,
		},
		retryAttempts: cfg.API.RetryAttempts,
		retryDelay:    time.Duration(cfg.API.RetryDelaySec * float64(time.Second)),
		enabled:       cfg.API.Enabled,
		logger:        logger,
	}
}

// Enabled сообщает, включена ли отправка в сервис сертификации
func (c *Client) Enabled() bool {
	return c.enabled
}

// SubmitWipeResult отправляет результат затирания для генерации сертификата
func (c *Client) SubmitWipeResult(ctx context.Context, payload interface{}) (*SubmitResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wipe result: %w", err)
	}

	var resp SubmitResponse
	if err := c.doWithRetry(ctx, http.MethodPost, c.baseURL+"/api/wipe/submit", body, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// GetWipeStatus запрашивает состояние отправленного результата
func (c *Client) GetWipeStatus(ctx context.Context, submissionID string) (*StatusResponse, error) {
	var resp StatusResponse
	url := fmt.Sprintf("%s/api/wipe/status/%s", c.baseURL, submissionID)
	if err := c.doWithRetry(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// VerifyCertificate проверяет сертификат по идентификатору
func (c *Client) VerifyCertificate(ctx context.Context, certificateID string) (*StatusResponse, error) {
	var resp StatusResponse
	url := fmt.Sprintf("%s/api/certificate/verify/%s", c.baseURL, certificateID)
	if err := c.doWithRetry(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// doWithRetry выполняет запрос с ограниченным числом повторов
func (c *Client) doWithRetry(ctx context.Context, method, url string, body []byte, out interface{}) error {
	attempts := c.retryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			c.logger.Log("WARN", "Повтор запроса к сервису сертификации",
				"attempt", attempt, "url", url, "error", lastErr.Error())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		lastErr = c.do(ctx, method, url, body, out)
		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "WipeOut/1.0.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error: %s", resp.Status)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("request rejected: %s: %s", resp.Status, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
