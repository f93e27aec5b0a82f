package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/internal/service/chatlog"
	"github.com/sandevgo/tusk/pkg/log"
)

// ConversationLog is the part of the conversation log the commands use.
type ConversationLog interface {
	ReadHistory(ctx context.Context, identity string) (chatlog.History, bool, error)
	Clear(ctx context.Context, identity string) (bool, error)
}

// Observer is notified of every handled command.
type Observer interface {
	ObserveCommand(kind string)
}

// catalog is the help listing, in display order.
var catalog = []core.CommandInfo{
	{Token: "/clear", Description: "Reset the bot"},
	{Token: "/history", Description: "Display conversation history"},
	{Token: "/model", Description: "Display bot model"},
	{Token: "/help", Description: "Display help"},
	{Token: "/?", Description: "Display help"},
}

type Router struct {
	log      ConversationLog
	models   core.ModelLister
	cfg      core.ProviderConfig
	observer Observer
}

func New(conversations ConversationLog, models core.ModelLister, cfg core.ProviderConfig, observer Observer) *Router {
	return &Router{
		log:      conversations,
		models:   models,
		cfg:      cfg,
		observer: observer,
	}
}

// Execute handles input when it starts with "/". The first field selects the
// command, further fields are ignored. It reports false for plain chat text.
func (r *Router) Execute(ctx context.Context, identity, input string) (string, bool) {
	if !strings.HasPrefix(input, "/") {
		return "", false
	}

	kind := ParseKind(strings.Fields(input)[0])
	if r.observer != nil {
		r.observer.ObserveCommand(kind.String())
	}

	logger := log.FromCtx(ctx)
	logger.Debug().Str("identity", identity).Stringer("kind", kind).Msg("executing command")

	var (
		result string
		err    error
	)
	switch kind {
	case KindClear:
		result, err = r.clear(ctx, identity)
	case KindHistory:
		result, err = r.history(ctx, identity)
	case KindModel:
		result, err = r.model(ctx)
	case KindHelp:
		result = r.help()
	default:
		return fmt.Sprintf("Invalid command: %s", input), true
	}

	if err != nil {
		logger.Error().Err(err).Str("identity", identity).Stringer("kind", kind).Msg("command failed")
		return ErrorReply(err), true
	}
	return result, true
}

func (r *Router) ListCommands() []core.CommandInfo {
	res := make([]core.CommandInfo, len(catalog))
	copy(res, catalog)
	return res
}
