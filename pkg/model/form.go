package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// fieldKey folds a caller supplied field name so that "use case", "Use-Case"
// and "use_case" resolve to the same field
func fieldKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}

type LeadField string

const (
	LeadFieldName     LeadField = "name"
	LeadFieldCompany  LeadField = "company"
	LeadFieldEmail    LeadField = "email"
	LeadFieldRole     LeadField = "role"
	LeadFieldUseCase  LeadField = "use_case"
	LeadFieldTeamSize LeadField = "team_size"
	LeadFieldTimeline LeadField = "timeline"
)

// LeadFields lists every lead field in the order an agent should ask for them
var LeadFields = []LeadField{
	LeadFieldName, LeadFieldCompany, LeadFieldEmail, LeadFieldRole,
	LeadFieldUseCase, LeadFieldTeamSize, LeadFieldTimeline,
}

// ParseLeadField resolves a field name; unknown names return ErrUnknownField
func ParseLeadField(s string) (LeadField, error) {
	key := fieldKey(s)
	for _, f := range LeadFields {
		if fieldKey(string(f)) == key {
			return f, nil
		}
	}
	return "", goerr.Wrap(ErrUnknownField, "unknown lead field", goerr.V("field", s))
}

// Lead is the prospect information an SDR agent collects
type Lead struct {
	Name     string `json:"name"`
	Company  string `json:"company"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	UseCase  string `json:"use_case"`
	TeamSize string `json:"team_size"`
	Timeline string `json:"timeline"`
}

func (l *Lead) ref(f LeadField) *string {
	switch f {
	case LeadFieldName:
		return &l.Name
	case LeadFieldCompany:
		return &l.Company
	case LeadFieldEmail:
		return &l.Email
	case LeadFieldRole:
		return &l.Role
	case LeadFieldUseCase:
		return &l.UseCase
	case LeadFieldTeamSize:
		return &l.TeamSize
	case LeadFieldTimeline:
		return &l.Timeline
	}
	return nil
}

func (l *Lead) Set(f LeadField, value string) {
	if p := l.ref(f); p != nil {
		*p = strings.TrimSpace(value)
	}
}

func (l *Lead) IsEmpty(f LeadField) bool {
	p := l.ref(f)
	return p == nil || *p == ""
}

// LeadRecord is the persisted form of a captured lead
type LeadRecord struct {
	LeadID    SnapshotID `json:"lead_id"`
	Timestamp time.Time  `json:"timestamp"`
	Lead      Lead       `json:"lead"`
	Missing   []string   `json:"missing_fields,omitempty"`
	Summary   string     `json:"summary"`
}

type CoffeeField string

const (
	CoffeeFieldDrinkType CoffeeField = "drinkType"
	CoffeeFieldSize      CoffeeField = "size"
	CoffeeFieldMilk      CoffeeField = "milk"
	CoffeeFieldExtras    CoffeeField = "extras"
	CoffeeFieldName      CoffeeField = "name"
)

// CoffeeFields lists every coffee order field; extras are optional
var CoffeeFields = []CoffeeField{
	CoffeeFieldDrinkType, CoffeeFieldSize, CoffeeFieldMilk, CoffeeFieldExtras, CoffeeFieldName,
}

// ParseCoffeeField resolves a field name; "drink" is accepted for drinkType
func ParseCoffeeField(s string) (CoffeeField, error) {
	key := fieldKey(s)
	if key == "drink" {
		return CoffeeFieldDrinkType, nil
	}
	for _, f := range CoffeeFields {
		if fieldKey(string(f)) == key {
			return f, nil
		}
	}
	return "", goerr.Wrap(ErrUnknownField, "unknown order field", goerr.V("field", s))
}

// CoffeeOrder is a drink order taken by the barista agent
type CoffeeOrder struct {
	DrinkType string   `json:"drinkType"`
	Size      string   `json:"size"`
	Milk      string   `json:"milk"`
	Extras    []string `json:"extras"`
	Name      string   `json:"name"`
}

// Set assigns a field. Extras are given as a comma separated list and
// replace the previous list; "none" clears it.
func (o *CoffeeOrder) Set(f CoffeeField, value string) {
	value = strings.TrimSpace(value)
	switch f {
	case CoffeeFieldDrinkType:
		o.DrinkType = value
	case CoffeeFieldSize:
		o.Size = value
	case CoffeeFieldMilk:
		o.Milk = value
	case CoffeeFieldName:
		o.Name = value
	case CoffeeFieldExtras:
		o.Extras = nil
		if strings.EqualFold(value, "none") {
			return
		}
		for _, e := range strings.Split(value, ",") {
			if e = strings.TrimSpace(e); e != "" {
				o.Extras = append(o.Extras, e)
			}
		}
	}
}

func (o *CoffeeOrder) IsEmpty(f CoffeeField) bool {
	switch f {
	case CoffeeFieldDrinkType:
		return o.DrinkType == ""
	case CoffeeFieldSize:
		return o.Size == ""
	case CoffeeFieldMilk:
		return o.Milk == ""
	case CoffeeFieldName:
		return o.Name == ""
	case CoffeeFieldExtras:
		return len(o.Extras) == 0
	}
	return true
}

// CoffeeOrderRecord is the persisted form of a completed coffee order
type CoffeeOrderRecord struct {
	OrderID   SnapshotID  `json:"order_id"`
	Timestamp time.Time   `json:"timestamp"`
	Order     CoffeeOrder `json:"order"`
	Status    string      `json:"status"`
}
