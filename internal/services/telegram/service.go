// Package telegram provides Telegram notification services.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/fgeck/gomysqlmb/internal/report"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Service defines the interface for Telegram notification operations.
type Service interface {
	SendNotification(ctx context.Context, cfg models.TelegramConfig, r *models.Report) (*models.NotificationResult, error)
}

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Impl implements the Telegram Service interface.
type Impl struct {
	httpClient HTTPClient
	logger     zerolog.Logger
	baseURL    string
}

// New creates a new Telegram service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:  logger,
		baseURL: "https://api.telegram.org",
	}
}

// NewWithClient creates a new Telegram service with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, httpClient HTTPClient, baseURL string) *Impl {
	return &Impl{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// sendMessageRequest is the request body for Telegram sendMessage API.
type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendNotification sends the maintenance report via Telegram.
func (s *Impl) SendNotification(ctx context.Context, cfg models.TelegramConfig, r *models.Report) (*models.NotificationResult, error) {
	result := &models.NotificationResult{}

	s.logger.Info().
		Str("chat_id", cfg.ChatID).
		Bool("success", r.Success()).
		Msg("sending Telegram notification")

	reqBody := sendMessageRequest{
		ChatID:    cfg.ChatID,
		Text:      formatMessage(r),
		ParseMode: "HTML",
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		result.Error = fmt.Errorf("failed to marshal request: %w", err)
		return result, nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, cfg.BotToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		result.Error = fmt.Errorf("failed to create request: %w", err)
		return result, nil
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Errorf("failed to send request: %w", err)
		return result, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Errorf("telegram API returned status %d", resp.StatusCode)
		return result, nil
	}

	result.MessageSent = true
	s.logger.Info().Msg("Telegram notification sent successfully")

	return result, nil
}

func formatMessage(r *models.Report) string {
	var b bytes.Buffer

	title := fmt.Sprintf("MySQL %s", r.Action)
	if r.Success() {
		b.WriteString(fmt.Sprintf("✅ <b>%s successful</b>\n\n", escapeHTML(title)))
	} else {
		b.WriteString(fmt.Sprintf("❌ <b>%s failed</b>\n\n", escapeHTML(title)))
	}

	b.WriteString(fmt.Sprintf("🖥 <b>Host:</b> %s\n", escapeHTML(r.Host)))
	if r.Selection != "" {
		b.WriteString(fmt.Sprintf("🗄 <b>Databases:</b> %s\n", escapeHTML(r.Selection)))
	}
	b.WriteString(fmt.Sprintf("⏰ <b>Started:</b> %s\n", r.StartTime.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("⏱ <b>Duration:</b> %s\n", report.FormatDuration(r.Duration)))

	if r.Batch != nil {
		b.WriteString("\n<b>📊 Batch:</b>\n")
		b.WriteString(fmt.Sprintf("  • %s\n", escapeHTML(r.Batch.Message)))
		for _, item := range r.Batch.Items {
			if item.Error != nil {
				b.WriteString(fmt.Sprintf("  • %s: <code>%s</code>\n", escapeHTML(item.Database), escapeHTML(item.Error.Error())))
			}
		}
		if r.Batch.Action == models.ActionBackup {
			b.WriteString(fmt.Sprintf("  • Archive size: %s\n", report.FormatSize(r.BackupSize)))
		}
	}

	if r.Retention != nil {
		b.WriteString("\n<b>🗑 Retention:</b>\n")
		b.WriteString(fmt.Sprintf("  • Window: %d days\n", r.Retention.RetentionDays))
		b.WriteString(fmt.Sprintf("  • Expired: %d\n", len(r.Retention.Expired)))
		b.WriteString(fmt.Sprintf("  • Deleted: %d\n", len(r.Retention.Deleted)))
	}

	if r.Check != nil {
		status := "ok"
		if r.Check.Error != nil {
			status = r.Check.Error.Error()
		}
		b.WriteString(fmt.Sprintf("\n🔧 <b>Optimization:</b> %s\n", escapeHTML(status)))
	}

	if r.Error != nil {
		b.WriteString("\n<b>⚠️ Error Details:</b>\n")
		if r.FailedStep != "" {
			b.WriteString(fmt.Sprintf("  • Failed step: %s\n", escapeHTML(r.FailedStep)))
		}
		b.WriteString(fmt.Sprintf("  • Error: <code>%s</code>\n", escapeHTML(r.Error.Error())))
	}

	return b.String()
}

// escapeHTML escapes HTML special characters.
func escapeHTML(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
