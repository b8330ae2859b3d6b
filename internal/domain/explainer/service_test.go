package explainer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/heartcheck/internal/domain/risk"
	"github.com/yanqian/heartcheck/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/heartcheck/pkg/errors"
)

func sampleRequest() Request {
	params := risk.Parameters{
		Age:              58,
		Sex:              risk.SexMale,
		Region:           risk.RegionModerate,
		Smoking:          risk.Smoker,
		SystolicBP:       150,
		TotalCholesterol: 6.2,
		CholesterolUnit:  risk.UnitMmolPerL,
	}
	return Request{Parameters: params, Result: risk.Calculate(params)}
}

func newServiceUnderTest(client ChatClient) *service {
	return &service{
		cfg: Config{
			Model:           "gpt-test",
			Temperature:     0.2,
			MaxNarrativeLen: 2000,
		},
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestExplainBuildsNarrative(t *testing.T) {
	stub := &stubChatClient{
		response: chatCompletion("Your result means your heart health needs attention.", chatgpt.Usage{PromptTokens: 120, CompletionTokens: 40, TotalTokens: 160}),
	}
	svc := newServiceUnderTest(stub)

	resp, err := svc.Explain(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Equal(t, "Your result means your heart health needs attention.", resp.Narrative)
	require.Equal(t, 120, resp.Usage.PromptTokens)
	require.Equal(t, 160, resp.Usage.TotalTokens)

	require.Len(t, stub.lastRequest.Messages, 2)
	userPrompt := stub.lastRequest.Messages[1].Content
	require.Contains(t, userPrompt, "58-year-old male")
	require.Contains(t, userPrompt, "category")
	require.Contains(t, userPrompt, "Recommendations:")
}

func TestExplainFallsBackToLocalTokenCount(t *testing.T) {
	stub := &stubChatClient{response: chatCompletion("ok", chatgpt.Usage{})}
	svc := newServiceUnderTest(stub)

	resp, err := svc.Explain(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Positive(t, resp.Usage.PromptTokens)
	require.Equal(t, resp.Usage.PromptTokens, resp.Usage.TotalTokens)
}

func TestExplainDisabledWithoutClient(t *testing.T) {
	svc := newServiceUnderTest(nil)
	require.False(t, svc.Enabled())

	_, err := svc.Explain(context.Background(), sampleRequest())
	require.True(t, apperrors.IsCode(err, "not_configured"))
}

func TestExplainWrapsClientFailure(t *testing.T) {
	svc := newServiceUnderTest(&stubChatClient{err: errors.New("rate limited")})

	_, err := svc.Explain(context.Background(), sampleRequest())
	require.True(t, apperrors.IsCode(err, "llm_error"))
}

func TestExplainRejectsEmptyNarrative(t *testing.T) {
	svc := newServiceUnderTest(&stubChatClient{response: chatCompletion("   ", chatgpt.Usage{})})

	_, err := svc.Explain(context.Background(), sampleRequest())
	require.True(t, apperrors.IsCode(err, "llm_error"))
}

func TestExplainTruncatesLongNarrative(t *testing.T) {
	long := strings.Repeat("words ", 100)
	stub := &stubChatClient{response: chatCompletion(long, chatgpt.Usage{PromptTokens: 1, TotalTokens: 1})}
	svc := newServiceUnderTest(stub)
	svc.cfg.MaxNarrativeLen = 50

	resp, err := svc.Explain(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.LessOrEqual(t, len(resp.Narrative), 50)
	require.True(t, strings.HasSuffix(resp.Narrative, "..."))
}

func chatCompletion(content string, usage chatgpt.Usage) chatgpt.ChatCompletionResponse {
	resp := chatgpt.ChatCompletionResponse{Usage: usage}
	resp.Choices = []struct {
		Message chatgpt.Message `json:"message"`
	}{
		{Message: chatgpt.Message{Role: "assistant", Content: content}},
	}
	return resp
}

type stubChatClient struct {
	response    chatgpt.ChatCompletionResponse
	err         error
	lastRequest chatgpt.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.lastRequest = req
	if s.err != nil {
		return chatgpt.ChatCompletionResponse{}, s.err
	}
	return s.response, nil
}
