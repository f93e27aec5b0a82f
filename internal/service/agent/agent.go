package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/tusk/internal/core"
	"github.com/sandevgo/tusk/internal/service/chatlog"
	"github.com/sandevgo/tusk/internal/service/command"
	"github.com/sandevgo/tusk/pkg/log"
)

const defaultRequestTimeout = 60 * time.Second

// ConversationLog is the part of the conversation log the chat path uses.
type ConversationLog interface {
	EnsureInitialized(ctx context.Context, identity string) error
	ReadHistory(ctx context.Context, identity string) (chatlog.History, bool, error)
	Append(ctx context.Context, identity, userText, assistantText string) (uint64, error)
	Trim(ctx context.Context, identity string) (chatlog.TrimResult, error)
}

// ChatObserver is notified once per completed or failed chat turn.
type ChatObserver interface {
	ObserveChat(d time.Duration, err error)
}

type Options struct {
	RequestTimeout time.Duration
	// PromptTokenBudget caps the history passed to the provider. Zero sends
	// the whole visible window.
	PromptTokenBudget int
	// CountTokens defaults to the cl100k_base tokenizer.
	CountTokens TokenCounter
	Observer    ChatObserver
}

type Agent struct {
	log         ConversationLog
	router      core.CmdRouter
	ai          core.Completer
	timeout     time.Duration
	budget      int
	countTokens TokenCounter
	observer    ChatObserver
}

func NewAgent(
	conversations ConversationLog,
	router core.CmdRouter,
	ai core.Completer,
	opts Options,
) *Agent {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	count := opts.CountTokens
	if count == nil {
		count = CountTokens
	}

	return &Agent{
		log:         conversations,
		router:      router,
		ai:          ai,
		timeout:     timeout,
		budget:      opts.PromptTokenBudget,
		countTokens: count,
		observer:    opts.Observer,
	}
}

// Handle answers one message. Commands go to the router, everything else
// runs a chat turn. Failures, panics included, come back as "Error: ..."
// replies.
func (a *Agent) Handle(ctx context.Context, identity, text string) (reply string) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	logger := log.FromCtx(ctx)
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("identity", identity).Interface("panic", r).Msg("recovered from panic in handler")
			reply = fmt.Sprintf("Error: %v", r)
		}
	}()

	if out, ok := a.router.Execute(ctx, identity, text); ok {
		return out
	}

	out, err := a.chat(ctx, identity, text)
	if err != nil {
		logger.Error().Err(err).Str("identity", identity).Msg("chat turn failed")
		return command.ErrorReply(err)
	}
	return out
}

func (a *Agent) chat(ctx context.Context, identity, text string) (string, error) {
	logger := log.FromCtx(ctx)

	if err := a.log.EnsureInitialized(ctx, identity); err != nil {
		return "", err
	}

	// absent history is read as empty here
	history, _, err := a.log.ReadHistory(ctx, identity)
	if err != nil {
		return "", err
	}

	promptContext := fitBudget(history.Records, a.budget, a.countTokens)

	start := time.Now()
	reply, err := a.ai.Complete(ctx, promptContext, text)
	if a.observer != nil {
		a.observer.ObserveChat(time.Since(start), err)
	}
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	ordinal, err := a.log.Append(ctx, identity, text, reply)
	if err != nil {
		return "", err
	}

	// the exchange is already stored, a failed trim is retried on the next turn
	if _, err := a.log.Trim(ctx, identity); err != nil {
		logger.Warn().Err(err).Str("identity", identity).Uint64("ordinal", ordinal).Msg("failed to trim conversation window")
	}

	return reply, nil
}
