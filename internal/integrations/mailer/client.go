package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client клиент HTTP-сервиса отправки писем
type Client struct {
	baseURL    string
	from       string
	httpClient *http.Client
}

// NewClient создает новый экземпляр клиента почтового сервиса
func NewClient(baseURL, from string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		from:    from,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send отправляет письмо
func (c *Client) Send(ctx context.Context, email *Email) error {
	if email.To == "" {
		return ErrNoRecipient
	}
	if email.From == "" {
		email.From = c.from
	}

	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("%w: failed to encode email: %v", ErrInternal, err)
	}

	url := fmt.Sprintf("%s/internal/emails", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		return nil
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s", ErrRejected, string(respBody))
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrUnavailable, resp.StatusCode, string(respBody))
	}
}
