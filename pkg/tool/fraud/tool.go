package fraud

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ajith-kumar99/voicedesk/pkg/lookup"
	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/refdata"
	"github.com/ajith-kumar99/voicedesk/pkg/tool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

// Name is the agent name that enables this tool
const Name = "fraud"

const datasetCases = "fraud_cases"

// Tool is the fraud verification front end. Cases are updated in place:
// every status change rewrites the whole case file.
type Tool struct {
	client *tool.Client
	now    func() time.Time

	cases []*model.FraudCase
	// path is the case file saves go to; empty when saving is disabled
	path string
}

type Option func(*Tool)

// WithClock replaces time.Now for lastUpdated stamps
func WithClock(now func() time.Time) Option {
	return func(t *Tool) {
		t.now = now
	}
}

func New(opts ...Option) *Tool {
	t := &Tool{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tool) Flags() []cli.Flag {
	return nil
}

// Init loads the case file. When none exists an empty one is created at
// the primary location; if that fails the session runs without saving.
func (t *Tool) Init(ctx context.Context, client *tool.Client) (bool, error) {
	if client.Agent != Name {
		return false, nil
	}
	t.client = client
	logger := client.Log()

	cases, path, err := refdata.LoadRecords[*model.FraudCase](ctx, client.Loader, datasetCases)
	t.cases = cases
	t.path = path
	if err == nil {
		return true, nil
	}

	if !errors.Is(err, model.ErrDatasetUnavailable) {
		return false, err
	}
	path, err = client.Loader.Bootstrap(ctx, datasetCases, []*model.FraudCase{})
	if err != nil {
		logger.WarnContext(ctx, "case file unavailable, updates will not be saved", "error", err)
		return true, nil
	}
	t.path = path
	return true, nil
}

func (t *Tool) Prompt(ctx context.Context) string {
	return `### Fraud verification

You are a calm fraud prevention representative of the bank. Ask for the customer's name and look up their case with get_case_by_name.
- Verify identity before sharing any transaction details: ask the security question of the case and check the reply with verify_security_answer.
- If verification fails, set the case to verification_failed and end politely.
- Read out the merchant, amount, time and location, and ask whether the customer made the transaction.
- Set confirmed_safe when they did and confirmed_fraud when they did not, with a short note. Tell them the card will be blocked for fraud cases.`
}

func (t *Tool) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "get_case_by_name",
				Description: "Find the most recent fraud case of a customer by user name. The security answer is not returned; check it with verify_security_answer",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"username": {Type: genai.TypeString, Description: "Customer user name"},
					},
					Required: []string{"username"},
				},
			},
			{
				Name:        "verify_security_answer",
				Description: "Check the customer's reply to the security question of a case",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"case_id": {Type: genai.TypeString, Description: "caseId of the case"},
						"answer":  {Type: genai.TypeString, Description: "Answer given by the customer"},
					},
					Required: []string{"case_id", "answer"},
				},
			},
			{
				Name:        "update_case_status",
				Description: "Set the status of a fraud case and save it",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"case_id": {Type: genai.TypeString, Description: "caseId of the case"},
						"status": {
							Type:        genai.TypeString,
							Description: "New status",
							Enum: []string{
								string(model.CaseStatusConfirmedSafe),
								string(model.CaseStatusConfirmedFraud),
								string(model.CaseStatusVerificationFailed),
								string(model.CaseStatusPending),
							},
						},
						"note": {Type: genai.TypeString, Description: "Short outcome note"},
					},
					Required: []string{"case_id", "status"},
				},
			},
			{
				Name:        "list_cases",
				Description: "List every case with its customer, status and transaction summary",
				Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
			},
		},
	}
}

func (t *Tool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	switch fc.Name {
	case "get_case_by_name":
		return t.executeGetCase(ctx, fc)
	case "verify_security_answer":
		return t.executeVerify(ctx, fc)
	case "update_case_status":
		return t.executeUpdateStatus(ctx, fc)
	case "list_cases":
		return tool.Value(fc, "cases", t.summaries())
	default:
		return nil, goerr.Wrap(tool.ErrToolNotFound, "unknown function", goerr.V("name", fc.Name))
	}
}

// LatestCase returns the case of username with the latest transaction time.
// Case records with an unparsable time sort as the earliest; among equal
// times the first record in the file wins.
func LatestCase(cases []*model.FraudCase, username string) *model.FraudCase {
	q := lookup.Normalize(username)
	if q == "" {
		return nil
	}

	var latest *model.FraudCase
	for _, c := range cases {
		if lookup.Normalize(c.UserName) != q {
			continue
		}
		if latest == nil || c.TransactionAt().After(latest.TransactionAt()) {
			latest = c
		}
	}
	return latest
}

func (t *Tool) executeGetCase(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	var in struct {
		Username string `json:"username"`
	}
	if err := tool.DecodeArgs(fc, &in); err != nil {
		return nil, err
	}

	c := LatestCase(t.cases, in.Username)
	if c == nil {
		t.client.Log().InfoContext(ctx, "no case for user", "username", in.Username)
		return &genai.FunctionResponse{
			Name: fc.Name,
			Response: map[string]any{
				"found":  false,
				"result": fmt.Sprintf("No case found for '%s'.", in.Username),
			},
		}, nil
	}

	// the expected answer never leaves the tool
	view := *c
	view.SecurityAnswer = ""
	resp, err := tool.Value(fc, "case", view)
	if err != nil {
		return nil, err
	}
	resp.Response["found"] = true
	return resp, nil
}

func (t *Tool) findCase(caseID string) *model.FraudCase {
	id := strings.TrimSpace(caseID)
	for _, c := range t.cases {
		if strings.EqualFold(c.CaseID, id) {
			return c
		}
	}
	return nil
}

// executeVerify compares the reply with the stored answer after
// normalization. A case without a stored answer never verifies.
func (t *Tool) executeVerify(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	var in struct {
		CaseID string `json:"case_id"`
		Answer string `json:"answer"`
	}
	if err := tool.DecodeArgs(fc, &in); err != nil {
		return nil, err
	}

	reply := func(verified bool, msg string) *genai.FunctionResponse {
		return &genai.FunctionResponse{
			Name:     fc.Name,
			Response: map[string]any{"verified": verified, "result": msg},
		}
	}

	c := t.findCase(in.CaseID)
	if c == nil {
		return reply(false, "I couldn't find that case."), nil
	}
	expected := lookup.Normalize(c.SecurityAnswer)
	if expected == "" {
		t.client.Log().InfoContext(ctx, "no security answer on file", "case_id", c.CaseID)
		return reply(false, "This case has no security answer on file."), nil
	}
	if lookup.Normalize(in.Answer) != expected {
		t.client.Log().InfoContext(ctx, "security answer mismatch", "case_id", c.CaseID)
		return reply(false, "The answer does not match."), nil
	}
	return reply(true, "Identity verified."), nil
}

func (t *Tool) executeUpdateStatus(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	var in struct {
		CaseID string `json:"case_id"`
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := tool.DecodeArgs(fc, &in); err != nil {
		return nil, err
	}
	logger := t.client.Log()

	status := model.CaseStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if err := status.Validate(); err != nil {
		logger.InfoContext(ctx, "rejected case status", "error", err)
		return tool.Result(fc, fmt.Sprintf("'%s' is not a valid case status.", in.Status)), nil
	}

	target := t.findCase(in.CaseID)
	if target == nil {
		return tool.Result(fc, "I couldn't find that case."), nil
	}

	target.Status = status
	if note := strings.TrimSpace(in.Note); note != "" {
		target.OutcomeNote = note
	}
	target.LastUpdated = t.now().UTC().Format(time.RFC3339)

	if t.path == "" {
		logger.WarnContext(ctx, "case updated in memory only", "case_id", target.CaseID)
		return tool.Result(fc, "The case was updated but could not be saved."), nil
	}
	if err := t.client.Persist.Replace(ctx, t.path, t.cases); err != nil {
		logger.ErrorContext(ctx, "failed to save case file", "case_id", target.CaseID, "error", err)
		return tool.Result(fc, "The case was updated but could not be saved."), nil
	}

	logger.InfoContext(ctx, "case status updated", "case_id", target.CaseID, "status", status)
	return tool.Result(fc, fmt.Sprintf("Case %s marked as %s.", target.CaseID, status)), nil
}

// caseSummary is the list view of a case without security details
type caseSummary struct {
	CaseID          string           `json:"caseId"`
	UserName        string           `json:"userName"`
	Status          model.CaseStatus `json:"status"`
	Merchant        string           `json:"merchantName,omitempty"`
	Amount          string           `json:"transactionAmount,omitempty"`
	TransactionTime string           `json:"transactionTime"`
}

func (t *Tool) summaries() []caseSummary {
	out := make([]caseSummary, 0, len(t.cases))
	for _, c := range t.cases {
		out = append(out, caseSummary{
			CaseID:          c.CaseID,
			UserName:        c.UserName,
			Status:          c.Status,
			Merchant:        c.Merchant,
			Amount:          c.Amount,
			TransactionTime: c.TransactionTime,
		})
	}
	return out
}
