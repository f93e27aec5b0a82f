package command

import (
	"context"
	"fmt"
	"strings"
)

// model lists the provider's models of the configured family, one per line,
// marking the configured default.
func (r *Router) model(ctx context.Context) (string, error) {
	models, err := r.models.ListModels(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list models: %w", err)
	}

	family := r.cfg.GetModelFamily()
	active := r.cfg.GetModel()

	var sb strings.Builder
	for _, m := range models {
		if !strings.HasPrefix(m.ID, family) {
			continue
		}
		sb.WriteString(m.ID)
		if m.ID == active {
			sb.WriteString(" (active)")
		}
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		return fmt.Sprintf("No %q models available, active model is %s", family, active), nil
	}
	return sb.String(), nil
}
