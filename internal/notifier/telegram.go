// Package notifier posts admin-facing events to a Telegram chat. Delivery is
// best effort: a failed send is logged and dropped, never surfaced to the
// workflow that produced the event.
package notifier

import (
	"fmt"

	"rewards_academy/internal/model"
	"rewards_academy/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Config struct {
	BotToken    string `json:"botToken"`
	AdminChatID int64  `json:"adminChatId"`
}

type TelegramNotifier struct {
	bot         *tgbotapi.BotAPI
	adminChatID int64
}

func NewTelegramNotifier(cfg Config) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:         bot,
		adminChatID: cfg.AdminChatID,
	}, nil
}

func (n *TelegramNotifier) NotifySubmission(submission *model.TaskSubmission) {
	text := fmt.Sprintf(
		"New submission\nUser: %s (%d)\nTask #%d: %s\n\n%s",
		submission.Username,
		submission.UserID,
		submission.TaskNumber,
		submission.TaskTitle,
		submission.Proof,
	)
	n.send(text)
}

func (n *TelegramNotifier) NotifyPayout(payout *model.Payout, txHash string) {
	text := fmt.Sprintf(
		"Payout sent\nUser: %d\nTokens: %s\nTx: %s",
		payout.UserID,
		payout.TokenAmount.String(),
		txHash,
	)
	n.send(text)
}

func (n *TelegramNotifier) send(text string) {
	msg := tgbotapi.NewMessage(n.adminChatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		logger.Logger().Warn("failed to send admin notification", zap.Error(err))
	}
}
