package dice_test

import (
	"fmt"
	"testing"

	"github.com/ajith-kumar99/voicedesk/pkg/dice"
	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestResolve(t *testing.T) {
	testCases := []struct {
		roll     int
		dc       int
		expected model.Outcome
	}{
		{20, 15, model.OutcomeCriticalSuccess},
		{20, 30, model.OutcomeCriticalSuccess},
		{1, 15, model.OutcomeCriticalFailure},
		{1, 1, model.OutcomeCriticalFailure},
		{15, 15, model.OutcomeSuccess},
		{19, 15, model.OutcomeSuccess},
		{14, 15, model.OutcomePartial},
		{13, 15, model.OutcomePartial},
		{12, 15, model.OutcomePartial},
		{11, 15, model.OutcomeFailure},
		{2, 15, model.OutcomeFailure},
		{2, 2, model.OutcomeSuccess},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("roll %d dc %d", tc.roll, tc.dc), func(t *testing.T) {
			gt.Equal(t, dice.Resolve(tc.roll, tc.dc), tc.expected)
		})
	}
}

func TestCheckWithRoller(t *testing.T) {
	r := dice.New(dice.WithRoller(func() int { return 13 }))
	c := r.Check(15)
	gt.Equal(t, c.Roll, 13)
	gt.Equal(t, c.Total, 13)
	gt.Equal(t, c.DC, 15)
	gt.Equal(t, c.Outcome, model.OutcomePartial)
}

func TestCheckRange(t *testing.T) {
	r := dice.New()
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		c := r.Check(10)
		if c.Roll < 1 || c.Roll > dice.Sides {
			t.Fatalf("roll out of range: %d", c.Roll)
		}
		seen[c.Roll] = true
	}
	// 2000 draws leave a face unseen with probability ~20*(19/20)^2000
	gt.Equal(t, len(seen), dice.Sides)
}
