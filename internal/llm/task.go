package llm

// Kind tags the analysis a Task asks for
type Kind int

const (
	KindUnknown Kind = iota
	KindCategorize
	KindExtractActions
	KindDraftReply
)

func (k Kind) String() string {
	switch k {
	case KindCategorize:
		return "categorize"
	case KindExtractActions:
		return "extract_actions"
	case KindDraftReply:
		return "draft_reply"
	default:
		return "unknown"
	}
}

// Task is one generation request. Prompt is the rendered template sent to
// a backend; Text and Tone feed the heuristic for Kind.
type Task struct {
	Kind   Kind
	Prompt string
	Text   string
	Tone   *string
}
