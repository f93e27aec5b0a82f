package core

import "context"

type Completer interface {
	Complete(ctx context.Context, promptContext, userText string) (string, error)
}

type ModelLister interface {
	ListModels(ctx context.Context) ([]Model, error)
}

type AIProvider interface {
	Completer
	ModelLister
}
