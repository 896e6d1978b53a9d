package model_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestProductUnmarshal(t *testing.T) {
	var p model.Product
	gt.NoError(t, json.Unmarshal([]byte(`{
		"name": "Peanut Butter",
		"category": "Pantry",
		"price": "$3.50",
		"tags": ["spread", "nuts"],
		"brand": "Skippy"
	}`), &p))

	gt.Equal(t, p.Name, "Peanut Butter")
	gt.Equal(t, p.ItemID(), "Peanut Butter")
	gt.Equal(t, p.Price, model.Cents(350))
	gt.A(t, p.Tags).Length(2)
	gt.Equal(t, p.Attributes["brand"], any("Skippy"))

	t.Run("numeric id", func(t *testing.T) {
		var p model.Product
		gt.NoError(t, json.Unmarshal([]byte(`{"id": 12, "name": "Eggs", "price": 2}`), &p))
		gt.Equal(t, p.ItemID(), "12")
		gt.Equal(t, p.Price, model.Cents(200))
	})

	t.Run("missing name is malformed", func(t *testing.T) {
		var p model.Product
		err := json.Unmarshal([]byte(`{"price": 2}`), &p)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrMalformedRecord))
	})

	t.Run("round trip keeps attributes", func(t *testing.T) {
		data, err := json.Marshal(p)
		gt.NoError(t, err)
		gt.S(t, string(data)).Contains(`"brand":"Skippy"`)
		gt.S(t, string(data)).Contains(`"price":3.50`)
	})
}

func TestFraudCaseRoundTrip(t *testing.T) {
	src := `{"caseId":"C-1","userName":"alice","securityIdentifier":"12345","transactionTime":"2025-11-20T10:00:00Z","status":"pending_review","riskScore":87}`

	var c model.FraudCase
	gt.NoError(t, json.Unmarshal([]byte(src), &c))
	gt.Equal(t, c.CaseID, "C-1")
	gt.Equal(t, c.Status, model.CaseStatusPending)

	c.Status = model.CaseStatusConfirmedSafe
	data, err := json.Marshal(c)
	gt.NoError(t, err)
	gt.S(t, string(data)).Contains(`"riskScore":87`)
	gt.S(t, string(data)).Contains(`"status":"confirmed_safe"`)
}

func TestFraudCaseTransactionAt(t *testing.T) {
	testCases := []struct {
		raw      string
		expected time.Time
	}{
		{"2025-11-20T10:00:00Z", time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)},
		{"2025-11-20 10:30:00", time.Date(2025, 11, 20, 10, 30, 0, 0, time.UTC)},
		{"2025-11-20", time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)},
		{"yesterday afternoon", time.Time{}},
		{"", time.Time{}},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			c := model.FraudCase{TransactionTime: tc.raw}
			gt.True(t, c.TransactionAt().Equal(tc.expected))
		})
	}
}

func TestCaseStatusValidate(t *testing.T) {
	gt.NoError(t, model.CaseStatusConfirmedFraud.Validate())
	gt.NoError(t, model.CaseStatusVerificationFailed.Validate())

	err := model.CaseStatus("closed").Validate()
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidStatus))
}

func TestParseLeadField(t *testing.T) {
	for _, name := range []string{"use_case", "Use Case", "use-case", " USECASE "} {
		f, err := model.ParseLeadField(name)
		gt.NoError(t, err)
		gt.Equal(t, f, model.LeadFieldUseCase)
	}

	_, err := model.ParseLeadField("budget")
	gt.True(t, errors.Is(err, model.ErrUnknownField))
}

func TestCoffeeOrderExtras(t *testing.T) {
	var o model.CoffeeOrder
	o.Set(model.CoffeeFieldExtras, "caramel, extra shot ,")
	gt.A(t, o.Extras).Length(2)
	gt.Equal(t, o.Extras[1], "extra shot")
	gt.False(t, o.IsEmpty(model.CoffeeFieldExtras))

	o.Set(model.CoffeeFieldExtras, "None")
	gt.True(t, o.IsEmpty(model.CoffeeFieldExtras))

	f, err := model.ParseCoffeeField("drink")
	gt.NoError(t, err)
	gt.Equal(t, f, model.CoffeeFieldDrinkType)
}

func TestNewSnapshotID(t *testing.T) {
	now := time.Date(2025, 11, 26, 9, 30, 15, 0, time.UTC)
	a := model.NewSnapshotID(model.SnapshotKindOrder, now)
	b := model.NewSnapshotID(model.SnapshotKindOrder, now)

	gt.True(t, strings.HasPrefix(string(a), "ORD20251126093015-"))
	gt.Equal(t, len(a), len("ORD20251126093015-")+8)
	gt.NotEqual(t, a, b)

	gt.True(t, strings.HasPrefix(string(model.NewSnapshotID(model.SnapshotKindLead, now)), "LEAD2025"))
}

func TestGameStateClone(t *testing.T) {
	base := model.DefaultGameState()
	c := base.Clone()
	c.Player.Inventory[0] = "broken sword"
	c.Events = append(c.Events, model.Event{Type: model.EventTypeSkillCheck})

	gt.Equal(t, base.Player.Inventory[0], "short sword")
	gt.A(t, base.Events).Length(0)
}
