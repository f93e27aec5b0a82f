package command

import "context"

const (
	msgNoHistory    = "No conversation history"
	msgEmptyHistory = "Conversation history is empty"
)

func (r *Router) history(ctx context.Context, identity string) (string, error) {
	h, found, err := r.log.ReadHistory(ctx, identity)
	if err != nil {
		return "", err
	}
	if !found {
		return msgNoHistory, nil
	}
	if len(h.Records) == 0 {
		return msgEmptyHistory, nil
	}
	return h.Text(), nil
}
