package explainer

import (
	"github.com/yanqian/heartcheck/internal/domain/risk"
	"github.com/yanqian/heartcheck/pkg/metrics"
)

// Request carries a finished assessment to explain. The engine output is
// never altered; the narrative is additive.
type Request struct {
	Parameters risk.Parameters `json:"parameters"`
	Result     risk.Assessment `json:"result"`
}

// Response is the plain-language narrative plus the tokens it cost.
type Response struct {
	Narrative string             `json:"narrative"`
	Usage     metrics.TokenUsage `json:"usage,omitempty"`
}

// Config wires runtime settings for the explainer domain.
type Config struct {
	Model           string
	Temperature     float32
	Prompt          string
	MaxPromptTokens int
	MaxNarrativeLen int
}
