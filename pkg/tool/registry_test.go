package tool_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ajith-kumar99/voicedesk/pkg/tool"
	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

type stubTool struct {
	agent   string
	names   []string
	execute func(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error)
}

func (s *stubTool) Spec() *genai.Tool {
	spec := &genai.Tool{}
	for _, name := range s.names {
		spec.FunctionDeclarations = append(spec.FunctionDeclarations, &genai.FunctionDeclaration{Name: name})
	}
	return spec
}

func (s *stubTool) Init(ctx context.Context, client *tool.Client) (bool, error) {
	return client.Agent == s.agent, nil
}

func (s *stubTool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	return s.execute(ctx, fc)
}

func (s *stubTool) Prompt(ctx context.Context) string { return "prompt of " + s.agent }

func (s *stubTool) Flags() []cli.Flag { return nil }

func TestRegistryEnablesMatchingTools(t *testing.T) {
	ctx := context.Background()
	registry := tool.New(
		&stubTool{agent: "grocery", names: []string{"list_cart", "add_item"}},
		&stubTool{agent: "fraud", names: []string{"list_cases"}},
	)
	gt.NoError(t, registry.Init(ctx, &tool.Client{Agent: "grocery"}))

	gt.Equal(t, registry.EnabledTools(), []string{"add_item", "list_cart"})
	gt.NotNil(t, registry.Declaration("add_item"))
	gt.True(t, registry.Declaration("list_cases") == nil)
	gt.Equal(t, registry.Prompts(ctx), "prompt of grocery")

	_, err := registry.Execute(ctx, genai.FunctionCall{Name: "list_cases"})
	gt.True(t, errors.Is(err, tool.ErrToolNotFound))
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	registry := tool.New(
		&stubTool{agent: "sdr", names: []string{"save"}},
		&stubTool{agent: "sdr", names: []string{"save"}},
	)
	gt.Error(t, registry.Init(context.Background(), &tool.Client{Agent: "sdr"}))
}

func TestRegistryRecoversFromPanic(t *testing.T) {
	ctx := context.Background()
	registry := tool.New(&stubTool{
		agent: "grocery",
		names: []string{"add_item"},
		execute: func(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
			var p *struct{ name string }
			return &genai.FunctionResponse{Name: p.name}, nil
		},
	})
	gt.NoError(t, registry.Init(ctx, &tool.Client{Agent: "grocery"}))

	resp, err := registry.Execute(ctx, genai.FunctionCall{Name: "add_item"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, tool.ErrToolPanic))
	gt.True(t, resp == nil)
}
