package models

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string `validate:"required"`
	ChatID   string `validate:"required"`
}

// NotificationResult holds the result of delivering a report.
type NotificationResult struct {
	MessageSent bool
	Error       error
}
