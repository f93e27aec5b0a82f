package command

// Kind enumerates the supported slash commands.
type Kind int

const (
	KindUnknown Kind = iota
	KindClear
	KindHistory
	KindModel
	KindHelp
)

// ParseKind resolves a command token such as "/clear". Both "/help" and
// "/?" resolve to KindHelp.
func ParseKind(token string) Kind {
	switch token {
	case "/clear":
		return KindClear
	case "/history":
		return KindHistory
	case "/model":
		return KindModel
	case "/help", "/?":
		return KindHelp
	default:
		return KindUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindClear:
		return "clear"
	case KindHistory:
		return "history"
	case KindModel:
		return "model"
	case KindHelp:
		return "help"
	default:
		return "unknown"
	}
}
