package notify

import (
	"context"
	"fmt"

	"github.com/poderjkapk-ux/cur-sub000/internal/structs"
	"github.com/poderjkapk-ux/cur-sub000/pkg/config"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(NewBotAPI),
	fx.Provide(New),
)

// Gateway sends a message to an external party. Fire-and-forget from the
// caller's point of view: the result is for logging only.
type Gateway interface {
	Notify(ctx context.Context, ch structs.Channel, text string) error
}

type Params struct {
	fx.In
	Logger logger.Logger
	Bot    *tgbotapi.BotAPI
}

type gateway struct {
	logger logger.Logger
	bot    *tgbotapi.BotAPI
}

func NewBotAPI(cfg config.IConfig) (*tgbotapi.BotAPI, error) {
	token := cfg.GetString("bot_token_dispatch")
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	return bot, nil
}

func New(p Params) Gateway {
	return &gateway{
		logger: p.Logger,
		bot:    p.Bot,
	}
}

func (g *gateway) Notify(ctx context.Context, ch structs.Channel, text string) error {
	if ch.Empty() {
		return structs.ErrNotificationFailed
	}

	// telegram is the only delivery medium; a push token alone means the
	// courier registered from the app without the bot
	if ch.TelegramChatID == 0 {
		g.logger.Debug(ctx, "notify: no telegram channel, push-only recipient skipped",
			zap.String("push_token", ch.PushToken))
		return structs.ErrNotificationFailed
	}

	msg := tgbotapi.NewMessage(ch.TelegramChatID, text)
	if _, err := g.bot.Send(msg); err != nil {
		g.logger.Warn(ctx, "notify: telegram send failed",
			zap.Int64("chat_id", ch.TelegramChatID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", structs.ErrNotificationFailed, err)
	}
	return nil
}
