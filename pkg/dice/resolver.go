package dice

import (
	"math/rand/v2"

	"github.com/ajith-kumar99/voicedesk/pkg/model"
)

// Sides is the die used for skill checks
const Sides = 20

// PartialMargin is how far below the DC a roll still counts as partial
const PartialMargin = 3

// Check is the result of one skill check. No modifiers are applied, so
// Total always equals Roll.
type Check struct {
	DC      int
	Roll    int
	Total   int
	Outcome model.Outcome
}

// Resolver rolls a d20 against a difficulty class
type Resolver struct {
	roll func() int
}

type Option func(*Resolver)

// WithRoller replaces the random source. roll must return a value in 1..20.
func WithRoller(roll func() int) Option {
	return func(r *Resolver) {
		r.roll = roll
	}
}

// New creates a Resolver drawing uniformly from 1..20
func New(opts ...Option) *Resolver {
	r := &Resolver{
		roll: func() int { return rand.IntN(Sides) + 1 },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Check rolls against dc
func (r *Resolver) Check(dc int) *Check {
	roll := r.roll()
	return &Check{
		DC:      dc,
		Roll:    roll,
		Total:   roll,
		Outcome: Resolve(roll, dc),
	}
}

// Resolve tiers a roll: a natural 20 or 1 wins or fails regardless of dc,
// then a roll at or above dc succeeds and one within PartialMargin of it is
// a partial success.
func Resolve(roll, dc int) model.Outcome {
	switch {
	case roll == Sides:
		return model.OutcomeCriticalSuccess
	case roll == 1:
		return model.OutcomeCriticalFailure
	case roll >= dc:
		return model.OutcomeSuccess
	case roll >= dc-PartialMargin:
		return model.OutcomePartial
	default:
		return model.OutcomeFailure
	}
}
