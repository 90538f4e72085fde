// Package notify sends best-effort operational alerts to Telegram.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Telegram posts alert messages to a chat via the Bot API. Token and
// chat id are injected from configuration; a zero-value Telegram (empty
// token) silently drops every message.
type Telegram struct {
	botToken   string
	chatID     string
	httpClient *http.Client
	baseURL    string
}

// NewTelegram creates a Telegram notifier. An empty botToken disables it.
func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken:   botToken,
		chatID:     chatID,
		httpClient: &http.Client{},
		baseURL:    "https://api.telegram.org",
	}
}

// Enabled reports whether the notifier is configured to send.
func (t *Telegram) Enabled() bool {
	return t != nil && t.botToken != "" && t.chatID != ""
}

// Notify sends one message. Errors are returned for logging only;
// callers must treat delivery as best-effort.
func (t *Telegram) Notify(ctx context.Context, message string) error {
	if !t.Enabled() {
		return nil
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	form := url.Values{
		"chat_id": {t.chatID},
		"text":    {message},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram sendMessage returned status %d", resp.StatusCode)
	}
	return nil
}
