package adventure_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ajith-kumar99/voicedesk/pkg/adapter"
	"github.com/ajith-kumar99/voicedesk/pkg/dice"
	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/persist"
	"github.com/ajith-kumar99/voicedesk/pkg/refdata"
	"github.com/ajith-kumar99/voicedesk/pkg/tool"
	"github.com/ajith-kumar99/voicedesk/pkg/tool/adventure"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

// sequence returns the given rolls in order
func sequence(rolls ...int) func() int {
	i := 0
	return func() int {
		r := rolls[i%len(rolls)]
		i++
		return r
	}
}

func setup(t *testing.T, dir string, opts ...adventure.Option) *adventure.Tool {
	fixed := time.Date(2025, 11, 26, 21, 0, 0, 0, time.UTC)
	opts = append([]adventure.Option{adventure.WithClock(func() time.Time { return fixed })}, opts...)
	a := adventure.New(opts...)
	enabled, err := a.Init(context.Background(), &tool.Client{
		Agent:   adventure.Name,
		Loader:  refdata.New(dir),
		Persist: persist.New(adapter.NewFileStorage(dir)),
	})
	gt.NoError(t, err)
	gt.True(t, enabled)
	return a
}

func call(t *testing.T, a *adventure.Tool, name string, args map[string]any) map[string]any {
	resp, err := a.Execute(context.Background(), genai.FunctionCall{Name: name, Args: args})
	gt.NoError(t, err)
	return resp.Response
}

func readState(t *testing.T, path string) *model.GameState {
	data, err := os.ReadFile(path)
	gt.NoError(t, err)
	var s model.GameState
	gt.NoError(t, json.Unmarshal(data, &s))
	return &s
}

func TestRollDiceRecordsAndSaves(t *testing.T) {
	dir := t.TempDir()
	a := setup(t, dir, adventure.WithResolver(dice.New(dice.WithRoller(sequence(15, 13, 11, 20, 1)))))
	path := filepath.Join(dir, "game_state.json")

	// bootstrapped from the default world
	gt.A(t, readState(t, path).Events).Length(0)

	expected := []string{"success", "partial", "failure", "critical_success", "critical_failure"}
	for i, want := range expected {
		resp := call(t, a, "roll_dice", map[string]any{"skill": "Stealth", "dc": 15})
		gt.Equal(t, resp["result"], any(want))
		gt.Equal(t, resp["saved"], any(true))
		gt.Equal(t, resp["roll"], resp["total"])

		// every roll is on disk before the call returns
		events := readState(t, path).Events
		gt.A(t, events).Length(i + 1)
		gt.Equal(t, events[i].Result, model.Outcome(want))
		gt.Equal(t, events[i].Skill, "stealth")
		gt.Equal(t, events[i].DC, 15)
		gt.Equal(t, events[i].Type, model.EventTypeSkillCheck)
	}
}

func TestRollDiceDefaultDC(t *testing.T) {
	a := setup(t, t.TempDir(), adventure.WithResolver(dice.New(dice.WithRoller(sequence(10)))))
	resp := call(t, a, "roll_dice", map[string]any{"skill": "athletics"})
	gt.Equal(t, resp["dc"], any(10))
	gt.Equal(t, resp["result"], any("success"))
}

func TestStateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	a := setup(t, dir, adventure.WithResolver(dice.New(dice.WithRoller(sequence(20)))))
	call(t, a, "roll_dice", map[string]any{"skill": "perception", "dc": 12})

	b := setup(t, dir)
	state := call(t, b, "get_game_state", nil)["state"].(map[string]any)
	events := state["events"].([]any)
	gt.A(t, events).Length(1)
	gt.Equal(t, events[0].(map[string]any)["result"], any("critical_success"))
}

func TestResetGameState(t *testing.T) {
	dir := t.TempDir()
	a := setup(t, dir)
	call(t, a, "roll_dice", map[string]any{"skill": "arcana", "dc": 8})
	call(t, a, "roll_dice", map[string]any{"skill": "arcana", "dc": 8})

	resp := call(t, a, "reset_game_state", nil)
	gt.Equal(t, resp["result"], any("The adventure has been reset."))

	state := readState(t, filepath.Join(dir, "game_state.json"))
	gt.A(t, state.Events).Length(0)
	gt.Equal(t, state.Player.Name, model.DefaultGameState().Player.Name)

	// the template is not changed by play
	call(t, a, "roll_dice", map[string]any{"skill": "arcana", "dc": 8})
	call(t, a, "reset_game_state", nil)
	gt.A(t, readState(t, filepath.Join(dir, "game_state.json")).Events).Length(0)
}

func TestTemplateFile(t *testing.T) {
	tmpl := filepath.Join(t.TempDir(), "world.yaml")
	gt.NoError(t, os.WriteFile(tmpl, []byte(`player:
  name: Mira
  class: Rogue
  hp: 12
  max_hp: 12
  inventory: [dagger, lockpicks]
location: The flooded crypt
quest: Recover the silver key
`), 0644))

	dir := t.TempDir()
	a := setup(t, dir, adventure.WithTemplateFile(tmpl))

	state := call(t, a, "get_game_state", nil)["state"].(map[string]any)
	gt.Equal(t, state["location"], any("The flooded crypt"))
	player := state["player"].(map[string]any)
	gt.Equal(t, player["name"], any("Mira"))
	gt.A(t, player["inventory"].([]any)).Length(2)
}

func TestSaveDisabledKeepsPlaying(t *testing.T) {
	dir := t.TempDir()
	// an existing but unreadable state blocks the bootstrap
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "game_state.json"), []byte("[]"), 0644))

	a := setup(t, dir, adventure.WithResolver(dice.New(dice.WithRoller(sequence(5)))))
	resp := call(t, a, "roll_dice", map[string]any{"skill": "stealth", "dc": 15})
	gt.Equal(t, resp["saved"], any(false))
	gt.Equal(t, resp["result"], any("failure"))

	state := call(t, a, "get_game_state", nil)["state"].(map[string]any)
	gt.A(t, state["events"].([]any)).Length(1)

	data, err := os.ReadFile(filepath.Join(dir, "game_state.json"))
	gt.NoError(t, err)
	gt.Equal(t, string(data), "[]")
}
