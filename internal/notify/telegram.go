package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"alertengine/internal/config"
	"alertengine/internal/domain"
	"alertengine/internal/listener"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// TelegramNotifier sends operator-facing alert messages to a Telegram chat.
// Params: bot client and target chat id.
// Returns: chat channel notifier.
type TelegramNotifier struct {
	client  *tgbot.Bot
	chatID  any
	initErr error
}

// NewTelegramNotifier creates the Telegram notifier.
// Params: Telegram notify config.
// Returns: initialized notifier, init errors surface on first send.
func NewTelegramNotifier(cfg config.TelegramNotifyConfig) *TelegramNotifier {
	notifier := &TelegramNotifier{
		chatID: normalizeChatID(cfg.ChatID),
	}

	if strings.TrimSpace(cfg.BotToken) == "" {
		notifier.initErr = errors.New("telegram bot token is required")
		return notifier
	}
	if strings.TrimSpace(cfg.ChatID) == "" {
		notifier.initErr = errors.New("telegram chat_id is required")
		return notifier
	}

	options := []tgbot.Option{
		tgbot.WithSkipGetMe(),
		tgbot.WithServerURL(strings.TrimRight(cfg.APIBase, "/")),
	}
	botClient, err := tgbot.New(cfg.BotToken, options...)
	if err != nil {
		notifier.initErr = fmt.Errorf("init telegram bot: %w", err)
		return notifier
	}
	notifier.client = botClient
	return notifier
}

// Listener returns the fan-out callback for this notifier.
// Params: none.
// Returns: listener messaging created and severity-changed transitions.
func (n *TelegramNotifier) Listener() listener.Func {
	return func(change domain.Change) error {
		text := formatChatMessage(change)
		if text == "" {
			return nil
		}
		if n.initErr != nil {
			return n.initErr
		}
		if n.client == nil {
			return errors.New("telegram client is not initialized")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := n.client.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID:    n.chatID,
			Text:      text,
			ParseMode: tgmodels.ParseModeHTML,
		})
		if err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
		return nil
	}
}

// formatChatMessage renders one chat line for operator-relevant transitions.
// Params: change payload.
// Returns: HTML message text, empty for transitions not worth a chat post.
func formatChatMessage(change domain.Change) string {
	alert := change.Alert
	switch change.Kind {
	case domain.ChangeCreated:
		return fmt.Sprintf("\U0001F6A8 <b>%s</b> alert for <code>%s</code> (tenant %s)\n%s",
			alert.Severity, alert.UEI, alert.TenantID, alert.LogMessage)
	case domain.ChangeSeverity:
		if alert.Severity == domain.SeverityCleared {
			return fmt.Sprintf("✅ alert for <code>%s</code> cleared (tenant %s)",
				alert.UEI, alert.TenantID)
		}
		return fmt.Sprintf("⚠ alert for <code>%s</code> moved from %s to %s (tenant %s)",
			alert.UEI, change.PreviousSeverity, alert.Severity, alert.TenantID)
	default:
		return ""
	}
}

// normalizeChatID converts numeric chat IDs to int64 and keeps non-numeric IDs as string.
// Params: configured chat ID value from TOML.
// Returns: Telegram API chat id union value.
func normalizeChatID(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if numeric, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return numeric
	}
	return trimmed
}
