// Package fusion combines independent, differently-calibrated detector
// signals into a single verdict with confidence. Decision policies are
// expressed as ordered rule lists evaluated top to bottom, first match
// wins, so the priority semantics stay explicit and each rule can be
// tested on its own.
package fusion

// SourceScore is one contributing signal, tagged with the model or
// heuristic that produced it. Absent models are simply not present in
// the slice, which keeps them distinguishable from a score of zero.
type SourceScore struct {
	Source      string  `json:"source"`
	Probability float64 `json:"probability"`
}

// Verdict is the fused decision for one analysis request. Immutable
// after creation.
type Verdict struct {
	Positive   bool          `json:"positive"`
	Confidence float64       `json:"confidence"` // 0-100
	Score      float64       `json:"score"`      // raw combined score
	Rule       string        `json:"rule"`       // name of the rule that decided
	Scores     []SourceScore `json:"scores"`
}
