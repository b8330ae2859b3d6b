package explainer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/heartcheck/internal/domain/risk"
	"github.com/yanqian/heartcheck/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/heartcheck/pkg/errors"
	"github.com/yanqian/heartcheck/pkg/metrics"
)

const defaultPrompt = "You are a health educator. Rephrase the cardiovascular risk assessment below for a patient in plain, calm language. Do not change, recompute, or second-guess any number or category. Do not give a diagnosis. End by reminding the reader this is an educational estimate, not medical advice."

// Service turns a finished assessment into a plain-language narrative.
type Service interface {
	Explain(ctx context.Context, req Request) (Response, error)
	// Enabled reports whether an LLM backend is configured.
	Enabled() bool
}

type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

type service struct {
	cfg    Config
	client ChatClient
	logger *slog.Logger
}

// NewService wires up the explainer domain. A nil client disables it.
func NewService(cfg Config, client ChatClient, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "explainer.service"),
	}
}

func (s *service) Enabled() bool {
	return s.client != nil
}

func (s *service) Explain(ctx context.Context, req Request) (Response, error) {
	if s.client == nil {
		return Response{}, apperrors.Wrap("not_configured", "explainer llm is not configured", nil)
	}
	if req.Result.Interpretation == "" && req.Result.RiskPercentage == 0 {
		return Response{}, apperrors.Wrap("invalid_input", "assessment result is required", nil)
	}

	userPrompt := s.buildUserPrompt(req)
	promptTokens := s.countTokens(s.systemPrompt() + userPrompt)
	if s.cfg.MaxPromptTokens > 0 && promptTokens > s.cfg.MaxPromptTokens {
		// Recommendations are the only unbounded part of the prompt; drop
		// them rather than fail.
		userPrompt = s.buildUserPrompt(Request{
			Parameters: req.Parameters,
			Result: risk.Assessment{
				RiskPercentage: req.Result.RiskPercentage,
				Category:       req.Result.Category,
				HeartAge:       req.Result.HeartAge,
				Algorithm:      req.Result.Algorithm,
				Interpretation: req.Result.Interpretation,
			},
		})
		promptTokens = s.countTokens(s.systemPrompt() + userPrompt)
	}

	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		Messages: []chatgpt.Message{
			{Role: "system", Content: s.systemPrompt()},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return Response{}, apperrors.Wrap("llm_error", "chatgpt request failed", err)
	}
	if len(completion.Choices) == 0 {
		return Response{}, apperrors.Wrap("llm_error", "chatgpt returned no choices", nil)
	}

	narrative := strings.TrimSpace(completion.Choices[0].Message.Content)
	if narrative == "" {
		return Response{}, apperrors.Wrap("llm_error", "chatgpt returned an empty narrative", nil)
	}
	narrative = truncate(narrative, s.cfg.MaxNarrativeLen)

	usage := metrics.TokenUsage{
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
		TotalTokens:      completion.Usage.TotalTokens,
	}
	if usage.IsZero() {
		// Some OpenAI-compatible backends omit usage; fall back to the
		// local tokenizer count for the prompt side.
		usage.PromptTokens = promptTokens
		usage.TotalTokens = promptTokens
	}
	s.logger.Info("narrative generated", "promptTokens", usage.PromptTokens, "totalTokens", usage.TotalTokens)

	return Response{Narrative: narrative, Usage: usage}, nil
}

func (s *service) systemPrompt() string {
	if prompt := strings.TrimSpace(s.cfg.Prompt); prompt != "" {
		return prompt
	}
	return defaultPrompt
}

func (s *service) buildUserPrompt(req Request) string {
	var b strings.Builder
	p, r := req.Parameters, req.Result

	fmt.Fprintf(&b, "Patient: %d-year-old %s, %s, systolic blood pressure %.0f mmHg, total cholesterol %.2f %s", p.Age, p.Sex, p.Smoking, p.SystolicBP, p.TotalCholesterol, p.CholesterolUnit)
	if p.Diabetes {
		b.WriteString(", with diabetes")
	}
	b.WriteString(".\n")
	fmt.Fprintf(&b, "Assessment (%s): 10-year risk %.1f%%, category %s, estimated heart age %d.\n", r.Algorithm, r.RiskPercentage, r.Category, r.HeartAge)
	fmt.Fprintf(&b, "Interpretation: %s\n", r.Interpretation)
	if len(r.Recommendations) > 0 {
		b.WriteString("Recommendations:\n")
		for _, advice := range r.Recommendations {
			b.WriteString("- " + advice + "\n")
		}
	}
	return b.String()
}

// countTokens uses the model's tokenizer when known and falls back to a
// conservative byte estimate when the encoding is unavailable (e.g. offline).
func (s *service) countTokens(text string) int {
	encoding, err := tiktoken.EncodingForModel(s.cfg.Model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		return len(text) / 3
	}
	return len(encoding.Encode(text, nil, nil))
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	if limit <= 3 {
		return text[:limit]
	}
	return strings.TrimSpace(text[:limit-3]) + "..."
}
