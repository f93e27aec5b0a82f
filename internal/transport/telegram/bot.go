package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/tusk/internal/config"
	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

type Bot struct {
	bot        *tele.Bot
	sender     *sender
	dispatcher core.Dispatcher
	commands   []core.CommandInfo
	ownerID    int64
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	dispatcher core.Dispatcher,
	commands []core.CommandInfo,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:        b,
		sender:     newSender(b),
		dispatcher: dispatcher,
		commands:   commands,
		ownerID:    cfg.OwnerID,
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil || !isAllowed(bot.ownerID, c.Sender().ID) {
				return nil
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	if menu := menuCommands(b.commands); len(menu) > 0 {
		if err := b.bot.SetCommands(menu); err != nil {
			logger.Warn().Err(err).Msg("failed to register telegram commands")
		}
	}

	logger.Info().Int64("owner_id", b.ownerID).Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	identity := identityFor(c.Chat().ID)
	ctx = log.WithStr(ctx, "identity", identity)

	_ = c.Notify(tele.Typing)

	reply := b.dispatcher.Handle(ctx, identity, c.Text())
	if strings.TrimSpace(reply) == "" {
		return nil
	}
	return b.sender.sendMarkdown(ctx, c.Chat(), reply)
}

func identityFor(chatID int64) string {
	return fmt.Sprintf("telegram-%d", chatID)
}

// isAllowed accepts everyone when no owner is configured.
func isAllowed(ownerID, senderID int64) bool {
	return ownerID == 0 || ownerID == senderID
}

// menuCommands keeps the commands Telegram can show in its menu. Telegram
// only accepts lowercase letters, digits and underscores there.
func menuCommands(commands []core.CommandInfo) []tele.Command {
	var menu []tele.Command
	for _, c := range commands {
		name := strings.TrimPrefix(c.Token, "/")
		if name == "" || strings.IndexFunc(name, func(r rune) bool {
			return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_')
		}) >= 0 {
			continue
		}
		menu = append(menu, tele.Command{Text: name, Description: c.Description})
	}
	return menu
}
