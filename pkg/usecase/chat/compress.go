package chat

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ajith-kumar99/voicedesk/pkg/adapter"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const (
	// recentTurns is how many of the latest customer turns survive
	// compression verbatim; everything before them is summarized
	recentTurns = 3

	// resultPreviewRunes caps an operation result in the rendered transcript
	resultPreviewRunes = 300

	summaryHeader = "Earlier in this call:\n\n"

	// Gemini reports an oversized prompt as
	// "The input token count (2500030) exceeds the maximum number of tokens allowed (1048576)."
	tokenCountPrefix = "The input token count ("
	tokenCountLimit  = ") exceeds the maximum number of tokens allowed ("
)

//go:embed prompt/summarize.md
var summarizePromptRaw string

func isTokenLimitError(err error) bool {
	var apiErr genai.APIError
	if err == nil || !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == 400 && apiErr.Status == "INVALID_ARGUMENT" &&
		strings.HasPrefix(apiErr.Message, tokenCountPrefix) &&
		strings.Contains(apiErr.Message, tokenCountLimit)
}

// isCustomerTurn reports whether content is something the customer said.
// Function responses travel with the user role but are not turns.
func isCustomerTurn(content *genai.Content) bool {
	if content == nil || content.Role != genai.RoleUser {
		return false
	}
	for _, part := range content.Parts {
		if part.FunctionResponse != nil {
			return false
		}
	}
	return true
}

// splitIndex returns the index of the first content kept verbatim. The
// split always lands on a customer turn so a function call is never
// separated from its response. Zero means there is nothing to summarize.
func splitIndex(contents []*genai.Content) int {
	var turns []int
	for i, content := range contents {
		if isCustomerTurn(content) {
			turns = append(turns, i)
		}
	}
	if len(turns) < 2 {
		return 0
	}

	keep := min(recentTurns, len(turns)-1)
	return turns[len(turns)-keep]
}

// compressHistory replaces everything before the latest customer turns
// with a single summary message. contents is not modified.
func compressHistory(ctx context.Context, gemini adapter.Gemini, contents []*genai.Content) ([]*genai.Content, error) {
	if len(contents) == 0 {
		return nil, goerr.New("history is empty")
	}

	split := splitIndex(contents)
	if split == 0 {
		return nil, goerr.New("too few turns to compress", goerr.V("contents", len(contents)))
	}

	summary, err := summarizeContents(ctx, gemini, contents[:split])
	if err != nil {
		return nil, goerr.Wrap(err, "failed to summarize contents", goerr.V("split", split))
	}

	out := make([]*genai.Content, 0, len(contents)-split+1)
	out = append(out, genai.NewContentFromText(summaryHeader+summary, genai.RoleUser))
	return append(out, contents[split:]...), nil
}

// renderTranscript flattens contents into a plain call transcript. Voice
// turns are short, so the transcript is cheaper to summarize than the raw
// contents with their function payloads.
func renderTranscript(contents []*genai.Content) string {
	var b strings.Builder
	for _, content := range contents {
		speaker := "Assistant"
		if content.Role == genai.RoleUser {
			speaker = "Customer"
		}
		for _, part := range content.Parts {
			switch {
			case part.FunctionCall != nil:
				fmt.Fprintf(&b, "[operation %s %s]\n", part.FunctionCall.Name, preview(part.FunctionCall.Args))
			case part.FunctionResponse != nil:
				fmt.Fprintf(&b, "[%s returned %s]\n", part.FunctionResponse.Name, preview(part.FunctionResponse.Response))
			case strings.TrimSpace(part.Text) != "":
				fmt.Fprintf(&b, "%s: %s\n", speaker, strings.TrimSpace(part.Text))
			}
		}
	}
	return b.String()
}

func preview(v map[string]any) string {
	if len(v) == 0 {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "{?}"
	}
	if r := []rune(string(data)); len(r) > resultPreviewRunes {
		return string(r[:resultPreviewRunes]) + "..."
	}
	return string(data)
}

// summarizeContents asks the model for a summary of the rendered transcript
func summarizeContents(ctx context.Context, gemini adapter.Gemini, contents []*genai.Content) (string, error) {
	request := []*genai.Content{
		genai.NewContentFromText(summarizePromptRaw+"\n---\n"+renderTranscript(contents), genai.RoleUser),
	}

	noThinking := int32(0)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText("You keep notes for a voice assistant that is still on a call with a customer.", ""),
		ThinkingConfig:    &genai.ThinkingConfig{ThinkingBudget: &noThinking},
	}

	resp, err := gemini.GenerateContent(ctx, request, config)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate summary")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", goerr.New("no summary generated")
	}

	var summary []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text := strings.TrimSpace(part.Text); text != "" {
			summary = append(summary, text)
		}
	}
	if len(summary) == 0 {
		return "", goerr.New("empty summary generated")
	}
	return strings.Join(summary, "\n"), nil
}
