package core

import "context"

type CmdRouter interface {
	Execute(ctx context.Context, identity, input string) (string, bool)
	ListCommands() []CommandInfo
}

type CommandInfo struct {
	Token       string
	Description string
}

// Dispatcher answers one inbound message of an identity. It never fails,
// errors are rendered into the reply.
type Dispatcher interface {
	Handle(ctx context.Context, identity, text string) string
}
