package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

var (
	ErrToolNotFound = goerr.New("tool not found")
	ErrToolPanic    = goerr.New("tool panicked")
)

// Registry manages the operations available to a host
type Registry struct {
	tools     map[string]Tool
	decls     map[string]*genai.FunctionDeclaration
	allTools  []Tool
	enabled   []Tool
	toolSpecs []*genai.Tool
}

// New creates a new tool registry with the given tools. Tools are not
// callable until Init enables them.
func New(tools ...Tool) *Registry {
	return &Registry{
		tools:    make(map[string]Tool),
		decls:    make(map[string]*genai.FunctionDeclaration),
		allTools: tools,
	}
}

// Init initializes every tool with client and registers the function
// declarations of the tools that report themselves enabled
func (r *Registry) Init(ctx context.Context, client *Client) error {
	for _, t := range r.allTools {
		enabled, err := t.Init(ctx, client)
		if err != nil {
			return goerr.Wrap(err, "failed to initialize tool")
		}
		if !enabled {
			continue
		}

		spec := t.Spec()
		if spec == nil || len(spec.FunctionDeclarations) == 0 {
			continue
		}

		r.enabled = append(r.enabled, t)
		r.toolSpecs = append(r.toolSpecs, spec)
		for _, fd := range spec.FunctionDeclarations {
			if _, dup := r.tools[fd.Name]; dup {
				return goerr.New("duplicated function name", goerr.V("name", fd.Name))
			}
			r.tools[fd.Name] = t
			r.decls[fd.Name] = fd
		}
	}

	client.Log().DebugContext(ctx, "tools initialized", "functions", r.EnabledTools())
	return nil
}

// Specs returns all tool specifications for Gemini function calling
func (r *Registry) Specs() []*genai.Tool {
	return r.toolSpecs
}

// EnabledTools returns the names of every callable function, sorted
func (r *Registry) EnabledTools() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Declaration returns the function declaration of name, or nil
func (r *Registry) Declaration(name string) *genai.FunctionDeclaration {
	return r.decls[name]
}

// Prompts returns all tool prompts concatenated
func (r *Registry) Prompts(ctx context.Context) string {
	var prompts []string
	for _, t := range r.enabled {
		if prompt := t.Prompt(ctx); prompt != "" {
			prompts = append(prompts, prompt)
		}
	}
	return strings.Join(prompts, "\n\n")
}

// Flags returns all tool flags combined
func (r *Registry) Flags() []cli.Flag {
	var flags []cli.Flag
	for _, t := range r.allTools {
		if toolFlags := t.Flags(); toolFlags != nil {
			flags = append(flags, toolFlags...)
		}
	}
	return flags
}

// Execute runs the tool with the given function call. A panic inside the
// tool is returned as ErrToolPanic so one operation cannot end the session.
func (r *Registry) Execute(ctx context.Context, fc genai.FunctionCall) (resp *genai.FunctionResponse, err error) {
	tool, ok := r.tools[fc.Name]
	if !ok {
		return nil, goerr.Wrap(ErrToolNotFound, "tool not found", goerr.V("name", fc.Name))
	}

	defer func() {
		if v := recover(); v != nil {
			resp = nil
			err = goerr.Wrap(ErrToolPanic, "operation panicked",
				goerr.V("name", fc.Name), goerr.V("panic", fmt.Sprint(v)))
		}
	}()

	return tool.Execute(ctx, fc)
}
