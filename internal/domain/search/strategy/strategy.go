package strategy

// Strategy identifies a knowledge retrieval strategy.
type Strategy string

// Retrieval strategy constants, in dispatch order.
const (
	// KnowledgeBase searches the general knowledge corpus.
	KnowledgeBase Strategy = "knowledge-base"
	// CodeExamples searches technical and implementation examples.
	CodeExamples Strategy = "code-examples"
	// Specialized searches domain-specialized content semantically.
	Specialized Strategy = "specialized"
)

// All returns the strategies in their fixed dispatch order.
// Aggregation tie-breaks depend on this order being stable.
func All() []Strategy {
	return []Strategy{KnowledgeBase, CodeExamples, Specialized}
}

// IsValid checks if the strategy is one of the supported values.
func (s Strategy) IsValid() bool {
	return s == KnowledgeBase || s == CodeExamples || s == Specialized
}

// Weight returns the source-type contribution to the composite
// relevance score.
func (s Strategy) Weight() float64 {
	switch s {
	case KnowledgeBase:
		return 0.3
	case CodeExamples:
		return 0.2
	case Specialized:
		return 0.35
	default:
		return 0
	}
}
