package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

type CaseStatus string

const (
	CaseStatusPending            CaseStatus = "pending_review"
	CaseStatusConfirmedSafe      CaseStatus = "confirmed_safe"
	CaseStatusConfirmedFraud     CaseStatus = "confirmed_fraud"
	CaseStatusVerificationFailed CaseStatus = "verification_failed"
)

// Validate checks if the status is one an agent may set
func (s CaseStatus) Validate() error {
	switch s {
	case CaseStatusPending, CaseStatusConfirmedSafe, CaseStatusConfirmedFraud, CaseStatusVerificationFailed:
		return nil
	default:
		return goerr.Wrap(ErrInvalidStatus, "unsupported case status", goerr.V("status", s))
	}
}

// FraudCase is a suspicious transaction awaiting customer verification
type FraudCase struct {
	CaseID             string     `json:"caseId"`
	UserName           string     `json:"userName"`
	SecurityIdentifier string     `json:"securityIdentifier"`
	CardEnding         string     `json:"cardEnding,omitempty"`
	Merchant           string     `json:"merchantName,omitempty"`
	Amount             string     `json:"transactionAmount,omitempty"`
	Location           string     `json:"location,omitempty"`
	Category           string     `json:"transactionCategory,omitempty"`
	Source             string     `json:"transactionSource,omitempty"`
	TransactionTime    string     `json:"transactionTime"`
	SecurityQuestion   string     `json:"securityQuestion,omitempty"`
	SecurityAnswer     string     `json:"securityAnswer,omitempty"`
	Status             CaseStatus `json:"status"`
	OutcomeNote        string     `json:"outcomeNote,omitempty"`
	LastUpdated        string     `json:"lastUpdated,omitempty"`

	// Extra keeps fields this version does not know so a rewrite of the
	// case file does not lose them.
	Extra map[string]json.RawMessage `json:"-"`
}

// caseTimeLayouts are tried in order when parsing TransactionTime
var caseTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// TransactionAt parses TransactionTime. An unparsable or empty value is the
// zero time, so it sorts before every real timestamp.
func (c *FraudCase) TransactionAt() time.Time {
	s := strings.TrimSpace(c.TransactionTime)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range caseTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type fraudCaseAlias FraudCase

func (c *FraudCase) UnmarshalJSON(data []byte) error {
	var alias fraudCaseAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return goerr.Wrap(ErrMalformedRecord, "invalid fraud case", goerr.V("error", err.Error()))
	}

	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return goerr.Wrap(ErrMalformedRecord, "fraud case is not an object")
	}
	for _, k := range fraudCaseKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		alias.Extra = raw
	}

	*c = FraudCase(alias)
	return nil
}

func (c FraudCase) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(fraudCaseAlias(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return known, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range c.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

var fraudCaseKeys = []string{
	"caseId", "userName", "securityIdentifier", "cardEnding", "merchantName",
	"transactionAmount", "location", "transactionCategory", "transactionSource",
	"transactionTime", "securityQuestion", "securityAnswer", "status",
	"outcomeNote", "lastUpdated",
}
