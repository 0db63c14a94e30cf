package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"time"
)

// Transport delivers a single notification. Implementations are
// fire-and-forget from the dispatcher's point of view: an error is
// logged by the caller and otherwise dropped.
type Transport interface {
	SendEmail(ctx context.Context, to, subject, htmlBody, textBody string) error
	SendWebhook(ctx context.Context, url string, payload []byte) error
}

// SMTPTransport sends mail through a relay and webhooks through a
// plain HTTP client with a short timeout, so a slow receiver cannot
// pile up dispatcher goroutines.
type SMTPTransport struct {
	addr   string
	from   string
	client *http.Client
}

func NewSMTPTransport(addr, from string) *SMTPTransport {
	return &SMTPTransport{
		addr:   addr,
		from:   from,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *SMTPTransport) SendEmail(ctx context.Context, to, subject, htmlBody, textBody string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", t.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	if htmlBody != "" {
		msg.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		msg.WriteString(htmlBody)
	} else {
		msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		msg.WriteString(textBody)
	}

	if err := smtp.SendMail(t.addr, nil, t.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (t *SMTPTransport) SendWebhook(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
