package bot

import (
	"context"
	"sync"

	"github.com/poderjkapk-ux/cur-sub000/internal/verify"
	"github.com/poderjkapk-ux/cur-sub000/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Invoke(NewBot),
)

type Params struct {
	fx.In
	fx.Lifecycle

	Logger logger.Logger
	Bot    *tgbotapi.BotAPI
	Verify verify.Service
}

type dispatchBot struct {
	logger logger.Logger
	bot    *tgbotapi.BotAPI
	verify verify.Service

	mu     sync.Mutex
	tokens map[int64]string
}

// NewBot runs the contact verification bot. Couriers open a deep link
// /start <token>, share their phone number and the pending verification
// flips to verified.
func NewBot(p Params) {
	b := &dispatchBot{
		logger: p.Logger,
		bot:    p.Bot,
		verify: p.Verify,
		tokens: make(map[int64]string),
	}

	ctx, cancel := context.WithCancel(context.Background())

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			go b.listen(ctx)
			p.Logger.Info(startCtx, "bot started!")
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			b.bot.StopReceivingUpdates()
			p.Logger.Info(stopCtx, "bot stopped!")
			return nil
		},
	})
}

func (b *dispatchBot) listen(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.bot.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			if upd.Message == nil {
				continue
			}
			b.handleMessage(ctx, upd.Message)
		}
	}
}

func (b *dispatchBot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.Contact != nil {
		b.handleContact(ctx, chatID, msg.Contact)
		return
	}

	if msg.Command() == "start" {
		token := msg.CommandArguments()
		if token == "" {
			b.send(ctx, tgbotapi.NewMessage(chatID, "Open the registration link from the app to continue."))
			return
		}
		if _, err := b.verify.Status(ctx, token); err != nil {
			b.logger.Warn(ctx, "verification token rejected", zap.Error(err))
			b.send(ctx, tgbotapi.NewMessage(chatID, "This verification link has expired. Request a new one from the app."))
			return
		}

		b.mu.Lock()
		b.tokens[chatID] = token
		b.mu.Unlock()

		reply := tgbotapi.NewMessage(chatID, "Share your phone number to confirm your account.")
		reply.ReplyMarkup = tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButtonContact("Share phone number"),
			),
		)
		b.send(ctx, reply)
	}
}

func (b *dispatchBot) handleContact(ctx context.Context, chatID int64, contact *tgbotapi.Contact) {
	b.mu.Lock()
	token, ok := b.tokens[chatID]
	delete(b.tokens, chatID)
	b.mu.Unlock()

	if !ok {
		b.send(ctx, tgbotapi.NewMessage(chatID, "Open the registration link from the app first."))
		return
	}

	if err := b.verify.Confirm(ctx, token, contact.PhoneNumber, chatID); err != nil {
		b.logger.Error(ctx, "failed to confirm verification", zap.Error(err), zap.Int64("chat_id", chatID))
		b.send(ctx, tgbotapi.NewMessage(chatID, "Verification failed, request a new link from the app."))
		return
	}

	reply := tgbotapi.NewMessage(chatID, "Phone number confirmed. Go back to the app to finish signing up.")
	reply.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	b.send(ctx, reply)
}

func (b *dispatchBot) send(ctx context.Context, msg tgbotapi.MessageConfig) {
	if _, err := b.bot.Send(msg); err != nil {
		b.logger.Error(ctx, "failed to send bot message", zap.Error(err), zap.Int64("chat_id", msg.ChatID))
	}
}
