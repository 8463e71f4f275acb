package report

import (
	"bytes"
	"context"
	"doraform/internal/config"
	"doraform/internal/logger"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"time"
)

// TelegramClient sends documents through the Telegram Bot API
type TelegramClient struct {
	cfg        *config.DeliveryConfig
	httpClient *http.Client
	maxRetries int           // retries after the first attempt
	backoff    time.Duration // base delay, doubled per attempt
	log        *logger.Logger
}

// NewTelegramClient creates a new Bot API client
func NewTelegramClient(cfg *config.DeliveryConfig, log *logger.Logger) *TelegramClient {
	if log == nil {
		log = logger.Nop()
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &TelegramClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		maxRetries: retries,
		backoff:    time.Second,
		log:        log.With("client", "TelegramClient"),
	}
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
	Parameters  struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters"`
}

var errRateLimited = errors.New("rate limited")

// APIError is a non-retryable rejection from the Bot API
type APIError struct {
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error %d: %s", e.StatusCode, e.Description)
}

// SendDocument uploads data as a document to chatID. Rate limits, 5xx
// responses and transport errors are retried with exponential backoff.
func (c *TelegramClient) SendDocument(ctx context.Context, chatID, filename, caption string, data []byte) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn("retrying sendDocument", "chat_id", chatID, "attempt", attempt+1, "max_attempts", c.maxRetries+1, "error", lastErr)
		}

		wait, err := c.sendOnce(ctx, chatID, filename, caption, data)
		if err == nil {
			c.log.Info("document sent", "chat_id", chatID, "filename", filename, "bytes", len(data))
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return err
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}
		if wait == 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * c.backoff
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// sendOnce performs a single upload. It returns the server-requested wait on
// rate limiting.
func (c *TelegramClient) sendOnce(ctx context.Context, chatID, filename, caption string, data []byte) (time.Duration, error) {
	body, contentType, err := documentForm(chatID, filename, caption, data)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.MethodEndpoint("sendDocument"), body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send document: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	var tr telegramResponse
	_ = json.Unmarshal(raw, &tr)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return time.Duration(tr.Parameters.RetryAfter) * time.Second, errRateLimited
	case resp.StatusCode >= 500:
		return 0, fmt.Errorf("telegram server error %d", resp.StatusCode)
	case resp.StatusCode >= 400 || !tr.OK:
		return 0, &APIError{StatusCode: resp.StatusCode, Description: tr.Description}
	}
	return 0, nil
}

func documentForm(chatID, filename, caption string, data []byte) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("chat_id", chatID); err != nil {
		return nil, "", err
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return nil, "", err
		}
	}
	part, err := w.CreateFormFile("document", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &body, w.FormDataContentType(), nil
}
