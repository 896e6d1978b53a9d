package chat_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ajith-kumar99/voicedesk/pkg/usecase/chat"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

// mockGemini is a mock implementation of adapter.Gemini for testing
type mockGemini struct {
	generateFunc func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, contents, config)
	}
	return nil, errors.New("not implemented")
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(text, genai.RoleModel)},
		},
	}
}

func TestIsTokenLimitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name: "actual Gemini token limit error",
			err: genai.APIError{
				Code:    400,
				Status:  "INVALID_ARGUMENT",
				Message: "The input token count (2500030) exceeds the maximum number of tokens allowed (1048576).",
			},
			expected: true,
		},
		{
			name: "400 INVALID_ARGUMENT but unrelated",
			err: genai.APIError{
				Code:    400,
				Status:  "INVALID_ARGUMENT",
				Message: "invalid parameter format",
			},
			expected: false,
		},
		{
			name: "500 error",
			err: genai.APIError{
				Code:    500,
				Status:  "INTERNAL_ERROR",
				Message: "internal server error",
			},
			expected: false,
		},
		{
			name:     "other error type",
			err:      errors.New("network timeout"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := chat.IsTokenLimitError(tt.err)
			gt.V(t, result).Equal(tt.expected)
		})
	}
}

func TestCompressHistory(t *testing.T) {
	ctx := context.Background()

	summaryOf := func(text string) *mockGemini {
		return &mockGemini{
			generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse(text), nil
			},
		}
	}

	t.Run("empty history", func(t *testing.T) {
		_, err := chat.CompressHistory(ctx, &mockGemini{}, []*genai.Content{})
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("history is empty")
	})

	t.Run("keeps the latest customer turns", func(t *testing.T) {
		contents := []*genai.Content{
			genai.NewContentFromText("Hi, I'm Priya and I need some bread", genai.RoleUser),
			genai.NewContentFromText("Sure, how many loaves?", genai.RoleModel),
			genai.NewContentFromText("Two loaves of bread please", genai.RoleUser),
			genai.NewContentFromText("Added 2 x Bread to your cart.", genai.RoleModel),
			genai.NewContentFromText("What else do you have?", genai.RoleUser),
			genai.NewContentFromText("We also have eggs, milk and peanut butter.", genai.RoleModel),
			genai.NewContentFromText("Eggs then", genai.RoleUser),
			genai.NewContentFromText("Added 1 x Eggs to your cart.", genai.RoleModel),
		}

		compressed, err := chat.CompressHistory(ctx, summaryOf("Customer is Priya. Cart: 2 x Bread."), contents)
		gt.NoError(t, err)

		gt.A(t, compressed).Length(7)
		gt.V(t, compressed[0].Role).Equal(genai.RoleUser)
		gt.S(t, compressed[0].Parts[0].Text).Contains("Earlier in this call")
		gt.S(t, compressed[0].Parts[0].Text).Contains("Cart: 2 x Bread.")
		gt.Equal(t, compressed[1].Parts[0].Text, "Two loaves of bread please")
		gt.A(t, contents).Length(8)
	})

	t.Run("always keeps the last turn", func(t *testing.T) {
		contents := []*genai.Content{
			genai.NewContentFromText("hello", genai.RoleUser),
			genai.NewContentFromText("Welcome to the coffee shop.", genai.RoleModel),
			genai.NewContentFromText("a latte please", genai.RoleUser),
		}

		compressed, err := chat.CompressHistory(ctx, summaryOf("Customer greeted."), contents)
		gt.NoError(t, err)
		gt.A(t, compressed).Length(2)
		gt.Equal(t, compressed[1].Parts[0].Text, "a latte please")
	})

	t.Run("split never lands on a function response", func(t *testing.T) {
		contents := []*genai.Content{
			genai.NewContentFromText("what is in my cart", genai.RoleUser),
			{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{Name: "list_cart"}}},
			},
			{
				Role: genai.RoleUser,
				Parts: []*genai.Part{
					{FunctionResponse: &genai.FunctionResponse{Name: "list_cart", Response: map[string]any{"count": 0}}},
				},
			},
			genai.NewContentFromText("Your cart is empty.", genai.RoleModel),
			genai.NewContentFromText("ok add milk", genai.RoleUser),
		}

		compressed, err := chat.CompressHistory(ctx, summaryOf("Cart was empty."), contents)
		gt.NoError(t, err)
		gt.A(t, compressed).Length(2)
		gt.Equal(t, compressed[1].Parts[0].Text, "ok add milk")
	})

	t.Run("summary error", func(t *testing.T) {
		contents := []*genai.Content{
			genai.NewContentFromText("first", genai.RoleUser),
			genai.NewContentFromText("second", genai.RoleModel),
			genai.NewContentFromText("third", genai.RoleUser),
		}

		mock := &mockGemini{
			generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return nil, errors.New("API error")
			},
		}

		_, err := chat.CompressHistory(ctx, mock, contents)
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("failed to summarize")
	})

	t.Run("too few turns", func(t *testing.T) {
		contents := []*genai.Content{
			genai.NewContentFromText(strings.Repeat("x", 2000), genai.RoleUser),
			genai.NewContentFromText("ok", genai.RoleModel),
		}

		_, err := chat.CompressHistory(ctx, &mockGemini{}, contents)
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("too few turns")
	})
}

func TestSummarizeContents(t *testing.T) {
	ctx := context.Background()

	t.Run("sends a rendered transcript", func(t *testing.T) {
		contents := []*genai.Content{
			genai.NewContentFromText("Add a dozen eggs please", genai.RoleUser),
			{
				Role: genai.RoleModel,
				Parts: []*genai.Part{
					{FunctionCall: &genai.FunctionCall{Name: "add_item", Args: map[string]any{"item_name": "eggs"}}},
				},
			},
			{
				Role: genai.RoleUser,
				Parts: []*genai.Part{
					{FunctionResponse: &genai.FunctionResponse{Name: "add_item", Response: map[string]any{"result": strings.Repeat("z", 1000)}}},
				},
			},
			genai.NewContentFromText("Added 1 x Eggs to your cart.", genai.RoleModel),
		}

		var sent string
		mock := &mockGemini{
			generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				gt.A(t, contents).Length(1)
				sent = contents[0].Parts[0].Text
				return textResponse("Cart: 1 x Eggs.\n"), nil
			},
		}

		summary, err := chat.SummarizeContents(ctx, mock, contents)
		gt.NoError(t, err)
		gt.Equal(t, summary, "Cart: 1 x Eggs.")
		gt.A(t, contents).Length(4)

		gt.S(t, sent).Contains("Customer: Add a dozen eggs please")
		gt.S(t, sent).Contains(`[operation add_item {"item_name":"eggs"}]`)
		gt.S(t, sent).Contains("Assistant: Added 1 x Eggs to your cart.")
		gt.False(t, strings.Contains(sent, strings.Repeat("z", 400)))
	})

	t.Run("API error", func(t *testing.T) {
		mock := &mockGemini{
			generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return nil, errors.New("network error")
			},
		}

		_, err := chat.SummarizeContents(ctx, mock, []*genai.Content{genai.NewContentFromText("Test", genai.RoleUser)})
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("failed to generate summary")
	})

	t.Run("empty response", func(t *testing.T) {
		mock := &mockGemini{
			generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{}}, nil
			},
		}

		_, err := chat.SummarizeContents(ctx, mock, []*genai.Content{genai.NewContentFromText("Test", genai.RoleUser)})
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("no summary generated")
	})

	t.Run("blank response", func(t *testing.T) {
		_, err := chat.SummarizeContents(ctx, &mockGemini{
			generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse("  "), nil
			},
		}, []*genai.Content{genai.NewContentFromText("Test", genai.RoleUser)})
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("empty summary generated")
	})
}
