package llm

// Purpose is the role a model instance serves in a request.
type Purpose string

const (
	PurposeReasoning  Purpose = "REASONING"
	PurposeGeneration Purpose = "GENERATION"
)

func (p Purpose) Valid() bool {
	return p == PurposeReasoning || p == PurposeGeneration
}

func (p Purpose) String() string { return string(p) }
