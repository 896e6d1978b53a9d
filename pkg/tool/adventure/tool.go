package adventure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ajith-kumar99/voicedesk/pkg/dice"
	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/refdata"
	"github.com/ajith-kumar99/voicedesk/pkg/tool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
	"gopkg.in/yaml.v3"
)

// Name is the agent name that enables this tool
const Name = "adventure"

const datasetGameState = "game_state"

// defaultDC is used when a check is requested without a difficulty
const defaultDC = 10

// Tool is the text adventure front end. The world state is saved in place
// after every roll and reset.
type Tool struct {
	templateFile string

	client   *tool.Client
	resolver *dice.Resolver
	now      func() time.Time

	template *model.GameState
	state    *model.GameState
	// path is where the state is saved; empty when saving is disabled
	path string
}

type Option func(*Tool)

// WithResolver replaces the dice resolver
func WithResolver(r *dice.Resolver) Option {
	return func(t *Tool) {
		t.resolver = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tool) {
		t.now = now
	}
}

// WithTemplateFile sets the YAML starting world, as --game-template does
func WithTemplateFile(path string) Option {
	return func(t *Tool) {
		t.templateFile = path
	}
}

func New(opts ...Option) *Tool {
	t := &Tool{
		resolver: dice.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tool) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "game-template",
			Usage:       "YAML file with the starting world of the adventure",
			Sources:     cli.EnvVars("VOICEDESK_GAME_TEMPLATE"),
			Destination: &t.templateFile,
		},
	}
}

// Init loads the saved world, or starts from the template and saves it as
// the default game state file
func (t *Tool) Init(ctx context.Context, client *tool.Client) (bool, error) {
	if client.Agent != Name {
		return false, nil
	}
	t.client = client
	logger := client.Log()

	t.template = model.DefaultGameState()
	if t.templateFile != "" {
		tmpl, err := loadTemplate(t.templateFile)
		if err != nil {
			return false, err
		}
		t.template = tmpl
	}

	state, path, err := refdata.LoadDocument[model.GameState](ctx, client.Loader, datasetGameState)
	if err == nil {
		t.state = state
		t.path = path
		return true, nil
	}
	if !errors.Is(err, model.ErrDatasetUnavailable) {
		return false, err
	}

	t.state = t.template.Clone()
	path, err = client.Loader.Bootstrap(ctx, datasetGameState, t.state)
	if err != nil {
		logger.WarnContext(ctx, "game state file unavailable, progress will not be saved", "error", err)
		return true, nil
	}
	t.path = path
	return true, nil
}

func loadTemplate(path string) (*model.GameState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read game template", goerr.V("path", path))
	}

	var state model.GameState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, goerr.Wrap(err, "failed to parse game template", goerr.V("path", path))
	}
	if state.Events == nil {
		state.Events = []model.Event{}
	}
	return &state, nil
}

func (t *Tool) Prompt(ctx context.Context) string {
	return `### Text adventure

You are the game master of a voice fantasy adventure. Describe scenes in two or three vivid sentences and end each turn by asking the player what they do.
- Call get_game_state at the start and whenever you need the player, location or quest.
- When an action is risky, call roll_dice with the skill and a difficulty between 5 and 20, then narrate the outcome: critical_success, success, partial, failure or critical_failure.
- Never invent a roll result. Offer reset_game_state when the player wants to start over.`
}

func (t *Tool) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "roll_dice",
				Description: "Roll a d20 skill check against a difficulty class, record it in the adventure log and save the game",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"skill": {Type: genai.TypeString, Description: "Skill being tested, e.g. stealth or athletics"},
						"dc":    {Type: genai.TypeInteger, Description: fmt.Sprintf("Difficulty class (default: %d)", defaultDC)},
					},
					Required: []string{"skill"},
				},
			},
			{
				Name:        "get_game_state",
				Description: "Return the player, location, quest and adventure log",
				Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
			},
			{
				Name:        "reset_game_state",
				Description: "Start the adventure over from the beginning",
				Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
			},
		},
	}
}

func (t *Tool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	switch fc.Name {
	case "roll_dice":
		return t.executeRoll(ctx, fc)
	case "get_game_state":
		return tool.Value(fc, "state", t.state)
	case "reset_game_state":
		return t.executeReset(ctx, fc)
	default:
		return nil, goerr.Wrap(tool.ErrToolNotFound, "unknown function", goerr.V("name", fc.Name))
	}
}

// save writes the whole state. It reports false when the state only lives
// in memory.
func (t *Tool) save(ctx context.Context) bool {
	if t.path == "" {
		return false
	}
	if err := t.client.Persist.Replace(ctx, t.path, t.state); err != nil {
		t.client.Log().ErrorContext(ctx, "failed to save game state", "error", err)
		return false
	}
	return true
}

func (t *Tool) executeRoll(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	var in struct {
		Skill string   `json:"skill"`
		DC    tool.Int `json:"dc"`
	}
	if err := tool.DecodeArgs(fc, &in); err != nil {
		return nil, err
	}

	dc := int(in.DC)
	if dc <= 0 {
		dc = defaultDC
	}
	skill := strings.ToLower(strings.TrimSpace(in.Skill))

	check := t.resolver.Check(dc)
	t.state.Append(model.Event{
		Time:   t.now().UTC(),
		Type:   model.EventTypeSkillCheck,
		Skill:  skill,
		DC:     check.DC,
		Roll:   check.Roll,
		Total:  check.Total,
		Result: check.Outcome,
	})
	saved := t.save(ctx)

	t.client.Log().InfoContext(ctx, "skill check", "skill", skill, "dc", dc, "roll", check.Roll, "result", check.Outcome, "saved", saved)
	return &genai.FunctionResponse{
		Name: fc.Name,
		Response: map[string]any{
			"skill":  skill,
			"dc":     check.DC,
			"roll":   check.Roll,
			"total":  check.Total,
			"result": string(check.Outcome),
			"saved":  saved,
		},
	}, nil
}

func (t *Tool) executeReset(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	t.state = t.template.Clone()
	if !t.save(ctx) {
		return tool.Result(fc, "The adventure was reset, but progress cannot be saved right now."), nil
	}
	return tool.Result(fc, "The adventure has been reset."), nil
}
