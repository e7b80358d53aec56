package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stockwizard/internal/domain"
	"stockwizard/internal/utils"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	sendAttempts   = 3
)

// NotificationService delivers price alert messages to a Telegram chat
type NotificationService struct {
	botToken   string
	chatID     string
	enabled    bool
	apiBase    string
	httpClient *http.Client
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// NewNotificationService creates a notifier. It is a no-op unless both
// botToken and chatID are set.
func NewNotificationService(botToken, chatID string) *NotificationService {
	return &NotificationService{
		botToken: botToken,
		chatID:   chatID,
		enabled:  botToken != "" && chatID != "",
		apiBase:  defaultAPIBase,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether messages are actually sent
func (s *NotificationService) Enabled() bool {
	return s.enabled
}

// SendAlert sends a triggered price alert notification
func (s *NotificationService) SendAlert(alert domain.PriceAlert, price float64) error {
	if !s.enabled {
		return nil // Silently skip if Telegram is not configured
	}

	arrow := "📈"
	verb := "rose above"
	if alert.Direction == domain.DirectionBelow {
		arrow = "📉"
		verb = "fell below"
	}

	symbol := escapeMarkdown(alert.Symbol)
	message := fmt.Sprintf(
		"%s *PRICE ALERT: %s*\n\n"+
			"%s %s `$%.2f`\n"+
			"━━━━━━━━━━━━━━━━━\n"+
			"💵 Last close: `$%.2f`\n"+
			"🕒 Set on: `%s`",
		arrow,
		symbol,
		symbol,
		verb,
		alert.TargetPrice,
		price,
		alert.CreatedAt.Format("2006-01-02 15:04"),
	)

	return s.sendMessage(message)
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "`", "\\`")

// escapeMarkdown escapes the entity markers of Telegram's legacy Markdown
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// sendMessage sends a message to Telegram using the Bot API
func (s *NotificationService) sendMessage(text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(s.apiBase, "/"), s.botToken)

	payload := telegramMessage{
		ChatID:    s.chatID,
		Text:      text,
		ParseMode: "Markdown",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram message: %w", err)
	}

	// Transport failures are retried; an API rejection is final
	var apiErr error
	err = utils.Retry(context.Background(), sendAttempts, time.Second, func() error {
		resp, err := s.httpClient.Post(url, "application/json", bytes.NewBuffer(jsonData))
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			apiErr = fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return apiErr
}
