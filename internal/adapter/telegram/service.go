package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"copydesk/internal/utils"
)

// DefaultAPIURL is the Telegram Bot API endpoint
const DefaultAPIURL = "https://api.telegram.org"

// NotificationService sends operator alerts to a Telegram chat
type NotificationService struct {
	botToken   string
	chatID     string
	enabled    bool
	apiURL     string
	httpClient *http.Client
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// NewNotificationService creates a notifier. It is disabled when the token or chat id is empty.
func NewNotificationService(botToken, chatID string) *NotificationService {
	return &NotificationService{
		botToken: botToken,
		chatID:   chatID,
		enabled:  botToken != "" && chatID != "",
		apiURL:   DefaultAPIURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithAPIURL points the notifier at another Bot API host
func (s *NotificationService) WithAPIURL(url string) *NotificationService {
	s.apiURL = url
	return s
}

// Enabled reports whether alerts are actually sent
func (s *NotificationService) Enabled() bool {
	return s.enabled
}

// Alert sends an operator alert
func (s *NotificationService) Alert(ctx context.Context, message string) error {
	if !s.enabled {
		return nil // Silently skip if Telegram is not configured
	}

	text := fmt.Sprintf(
		"⚠️ *COPYDESK ALERT*\n\n"+
			"%s\n"+
			"━━━━━━━━━━━━━━━━━\n"+
			"🕒 Time: `%s`",
		message,
		utils.FormatLocal(time.Now()),
	)

	return s.sendMessage(ctx, text)
}

// sendMessage sends a message to Telegram using the Bot API
func (s *NotificationService) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, s.botToken)

	payload := telegramMessage{
		ChatID:    s.chatID,
		Text:      text,
		ParseMode: "Markdown",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}
