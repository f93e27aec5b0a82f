package core

// ProviderConfig is the part of the LLM configuration the command layer
// needs to describe the active model.
type ProviderConfig interface {
	GetProvider() string
	GetModel() string
	GetModelFamily() string
}
