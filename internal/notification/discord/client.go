package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client는 Discord 웹훅 클라이언트입니다.
// 웹훅 URL이 비어 있는 채널은 전송하지 않고 무시합니다.
type Client struct {
	signalWebhook string
	infoWebhook   string
	errorWebhook  string
	client        *http.Client
	logger        *zap.Logger
}

// ClientOption은 클라이언트 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 요청 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// WithHTTPClient는 HTTP 클라이언트를 교체합니다
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithErrorWebhook은 에러 알림 전용 웹훅을 설정합니다 (기본값: info 웹훅)
func WithErrorWebhook(url string) ClientOption {
	return func(c *Client) {
		c.errorWebhook = url
	}
}

// WithLogger는 로거를 설정합니다
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient는 새로운 Discord 클라이언트를 생성합니다
func NewClient(signalWebhook, infoWebhook string, opts ...ClientOption) *Client {
	c := &Client{
		signalWebhook: signalWebhook,
		infoWebhook:   infoWebhook,
		errorWebhook:  infoWebhook,
		client:        &http.Client{Timeout: 10 * time.Second},
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("discord")
	return c
}

// sendToWebhook은 메시지를 웹훅으로 전송합니다
func (c *Client) sendToWebhook(webhookURL string, msg WebhookMessage) error {
	if webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("메시지 마샬링 실패: %w", err)
	}

	ctx := context.Background()
	if c.client.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.client.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("요청 생성 실패: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("웹훅 전송 실패: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("웹훅 응답 오류 (status %d): %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("웹훅 전송 완료", zap.Int("embeds", len(msg.Embeds)))
	return nil
}
