package command

import "context"

const (
	msgCleared        = "Conversation history cleared"
	msgAlreadyCleared = "Conversation history already cleared"
)

func (r *Router) clear(ctx context.Context, identity string) (string, error) {
	cleared, err := r.log.Clear(ctx, identity)
	if err != nil {
		return "", err
	}
	if !cleared {
		return msgAlreadyCleared, nil
	}
	return msgCleared, nil
}
