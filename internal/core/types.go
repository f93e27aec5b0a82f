package core

const (
	TuskName          = "Tusk"
	TuskUserAgent     = "Tusk-Chat/0.1"
	TuskRepositoryURL = "https://github.com/sandevgo/tusk"
	TuskVersion       = "0.1.0"
)

// Model is a completion model advertised by the provider.
type Model struct {
	ID   string
	Name string
}
