package model

import "time"

type Outcome string

const (
	OutcomeCriticalSuccess Outcome = "critical_success"
	OutcomeCriticalFailure Outcome = "critical_failure"
	OutcomeSuccess         Outcome = "success"
	OutcomePartial         Outcome = "partial"
	OutcomeFailure         Outcome = "failure"
)

const EventTypeSkillCheck = "skill_check"

// Event is an entry of the adventure log. Events are appended and never
// modified afterwards.
type Event struct {
	Time   time.Time `json:"time" yaml:"time"`
	Type   string    `json:"type" yaml:"type"`
	Skill  string    `json:"skill,omitempty" yaml:"skill,omitempty"`
	DC     int       `json:"dc,omitempty" yaml:"dc,omitempty"`
	Roll   int       `json:"roll,omitempty" yaml:"roll,omitempty"`
	Total  int       `json:"total,omitempty" yaml:"total,omitempty"`
	Result Outcome   `json:"result,omitempty" yaml:"result,omitempty"`
	Note   string    `json:"note,omitempty" yaml:"note,omitempty"`
}

type Player struct {
	Name      string         `json:"name" yaml:"name"`
	Class     string         `json:"class,omitempty" yaml:"class,omitempty"`
	HP        int            `json:"hp" yaml:"hp"`
	MaxHP     int            `json:"max_hp" yaml:"max_hp"`
	Inventory []string       `json:"inventory" yaml:"inventory"`
	Skills    map[string]int `json:"skills,omitempty" yaml:"skills,omitempty"`
}

// GameState is the persistent world of the text adventure
type GameState struct {
	Player   Player            `json:"player" yaml:"player"`
	Location string            `json:"location" yaml:"location"`
	Quest    string            `json:"quest,omitempty" yaml:"quest,omitempty"`
	Flags    map[string]string `json:"flags,omitempty" yaml:"flags,omitempty"`
	Events   []Event           `json:"events" yaml:"events"`
}

// Append adds an event to the end of the log
func (g *GameState) Append(e Event) {
	g.Events = append(g.Events, e)
}

// Clone returns a deep copy so that a template is never mutated by play
func (g *GameState) Clone() *GameState {
	c := *g
	c.Player.Inventory = append([]string(nil), g.Player.Inventory...)
	if g.Player.Skills != nil {
		c.Player.Skills = make(map[string]int, len(g.Player.Skills))
		for k, v := range g.Player.Skills {
			c.Player.Skills[k] = v
		}
	}
	if g.Flags != nil {
		c.Flags = make(map[string]string, len(g.Flags))
		for k, v := range g.Flags {
			c.Flags[k] = v
		}
	}
	c.Events = append([]Event{}, g.Events...)
	return &c
}

// DefaultGameState is the starting world used when no template is configured
func DefaultGameState() *GameState {
	return &GameState{
		Player: Player{
			Name:      "Traveler",
			Class:     "Ranger",
			HP:        20,
			MaxHP:     20,
			Inventory: []string{"short sword", "rope", "torch"},
		},
		Location: "The crossroads outside Emberfall village",
		Quest:    "Find the missing lantern of the Emberfall shrine",
		Events:   []Event{},
	}
}
