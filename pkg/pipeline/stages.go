// Package pipeline defines the domain types shared by the AutoDistil KG
// client: the fixed stage set, run configurations, lifecycle events, and the
// wire shapes exchanged with the pipeline service.
package pipeline

// Stage identifies one unit of pipeline work.
type Stage string

const (
	StageGraphTraverser  Stage = "graph_traverser"
	StageChatMLConverter Stage = "chatml_converter"
	StageFinetuner       Stage = "finetuner"
	StageEvaluator       Stage = "evaluator"
)

// CanonicalOrder returns the stage sequence the pipeline always executes in.
// Run configurations are ordered by this sequence, never by selection order.
func CanonicalOrder() []Stage {
	return []Stage{StageGraphTraverser, StageChatMLConverter, StageFinetuner, StageEvaluator}
}

// Known reports whether s is part of the fixed stage set.
func (s Stage) Known() bool {
	switch s {
	case StageGraphTraverser, StageChatMLConverter, StageFinetuner, StageEvaluator:
		return true
	}
	return false
}

// Available reports whether the stage can be selected for a run.
// The evaluator is present in the stage set but not yet runnable.
func (s Stage) Available() bool {
	return s.Known() && s != StageEvaluator
}

// DisplayName returns the human-readable stage name.
func (s Stage) DisplayName() string {
	switch s {
	case StageGraphTraverser:
		return "Graph Traverser"
	case StageChatMLConverter:
		return "ChatML Converter"
	case StageFinetuner:
		return "Finetuner"
	case StageEvaluator:
		return "Evaluator"
	}
	return string(s)
}
