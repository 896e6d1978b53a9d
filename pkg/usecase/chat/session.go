package chat

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"text/template"
	"time"

	"github.com/ajith-kumar99/voicedesk/pkg/adapter"
	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/repository"
	"github.com/ajith-kumar99/voicedesk/pkg/tool"
	"github.com/ajith-kumar99/voicedesk/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// maxIterations bounds the function calls a single message can trigger
const maxIterations = 8

//go:embed prompt/system.md
var systemPromptRaw string

var systemPromptTmpl = template.Must(template.New("system").Parse(systemPromptRaw))

// Session is a text conversation with one front end. Gemini plays the
// voice host and calls the operations of the registry.
type Session struct {
	gemini   adapter.Gemini
	registry *tool.Registry
	storage  adapter.Storage
	repo     repository.Repository
	logger   *slog.Logger
	output   io.Writer
	now      func() time.Time

	agent        string
	systemPrompt string
	history      *model.History
}

// NewInput contains parameters for creating a new chat session
type NewInput struct {
	Gemini   adapter.Gemini
	Registry *tool.Registry
	// Storage keeps transcripts; nil disables saving them
	Storage adapter.Storage
	// Repo indexes transcripts; optional
	Repo      repository.Repository
	Logger    *slog.Logger
	Agent     string
	SessionID string
	// HistoryID continues an existing conversation
	HistoryID *model.HistoryID
	// Output receives a line per operation call; nil discards them
	Output io.Writer
	Now    func() time.Time
}

func New(ctx context.Context, input NewInput) (*Session, error) {
	if input.Gemini == nil {
		return nil, goerr.New("gemini client is required")
	}
	if input.Registry == nil {
		return nil, goerr.New("tool registry is required")
	}

	s := &Session{
		gemini:   input.Gemini,
		registry: input.Registry,
		storage:  input.Storage,
		repo:     input.Repo,
		logger:   input.Logger,
		output:   input.Output,
		now:      input.Now,
		agent:    input.Agent,
		history: &model.History{
			Agent:     input.Agent,
			SessionID: input.SessionID,
		},
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	if s.output == nil {
		s.output = io.Discard
	}
	if s.now == nil {
		s.now = time.Now
	}

	if input.HistoryID != nil {
		if s.storage == nil {
			return nil, goerr.New("storage is required to continue a conversation")
		}
		history, err := loadHistory(ctx, s.repo, s.storage, *input.HistoryID)
		if err != nil {
			return nil, err
		}
		s.history = history
	}

	var buf bytes.Buffer
	if err := systemPromptTmpl.Execute(&buf, map[string]any{
		"Agent":        input.Agent,
		"Tools":        s.registry.EnabledTools(),
		"Instructions": s.registry.Prompts(ctx),
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute system prompt template")
	}
	s.systemPrompt = buf.String()

	return s, nil
}

// History returns the conversation so far
func (s *Session) History() *model.History {
	return s.history
}

// Send adds a user message and runs the function call loop until the model
// answers with text. The transcript is saved after every message.
func (s *Session) Send(ctx context.Context, message string) (*genai.GenerateContentResponse, error) {
	s.history.Contents = append(s.history.Contents, genai.NewContentFromText(message, genai.RoleUser))

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(s.systemPrompt, ""),
		Tools:             s.registry.Specs(),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	}

	var resp *genai.GenerateContentResponse
	for i := 0; i < maxIterations; i++ {
		var err error
		resp, err = s.generate(ctx, config)
		if err != nil {
			return nil, err
		}

		var functionResponses []*genai.Part
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			s.history.Contents = append(s.history.Contents, candidate.Content)

			for _, part := range candidate.Content.Parts {
				if part.FunctionCall == nil {
					continue
				}
				funcResp := s.execute(ctx, *part.FunctionCall)
				functionResponses = append(functionResponses, &genai.Part{FunctionResponse: funcResp})
			}
			// only the first candidate continues the conversation
			break
		}

		if len(functionResponses) == 0 {
			break
		}
		s.history.Contents = append(s.history.Contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: functionResponses,
		})
	}

	if s.storage != nil {
		if err := saveHistory(ctx, s.repo, s.storage, s.history, s.now()); err != nil {
			s.logger.WarnContext(ctx, "failed to save chat history", "error", err)
		}
	}

	return resp, nil
}

// generate calls the model, compressing the history once when it no
// longer fits the context window
func (s *Session) generate(ctx context.Context, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := s.gemini.GenerateContent(ctx, s.history.Contents, config)
	if err == nil {
		return resp, nil
	}
	if !isTokenLimitError(err) {
		return nil, goerr.Wrap(err, "failed to generate content")
	}

	s.logger.InfoContext(ctx, "history exceeds token limit, compressing", "contents", len(s.history.Contents))
	compressed, cerr := compressHistory(ctx, s.gemini, s.history.Contents)
	if cerr != nil {
		return nil, goerr.Wrap(cerr, "failed to compress history")
	}
	s.history.Contents = compressed

	resp, err = s.gemini.GenerateContent(ctx, s.history.Contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content after compression")
	}
	return resp, nil
}

// execute runs one operation. Failures are reported to the model as an
// error response instead of aborting the conversation.
func (s *Session) execute(ctx context.Context, fc genai.FunctionCall) *genai.FunctionResponse {
	s.logger.DebugContext(ctx, "function call", "name", fc.Name, "args", fc.Args)

	resp, err := s.registry.Execute(ctx, fc)
	if err != nil {
		s.logger.ErrorContext(ctx, "function call failed", "name", fc.Name, "error", err)
		fmt.Fprintf(s.output, "   ✗ %s failed\n", fc.Name)
		return &genai.FunctionResponse{
			ID:       fc.ID,
			Name:     fc.Name,
			Response: map[string]any{"error": "the operation failed"},
		}
	}
	resp.ID = fc.ID

	if result, ok := resp.Response["result"].(string); ok {
		fmt.Fprintf(s.output, "   ⚙ %s: %s\n", fc.Name, result)
	} else {
		fmt.Fprintf(s.output, "   ⚙ %s\n", fc.Name)
	}
	return resp
}
