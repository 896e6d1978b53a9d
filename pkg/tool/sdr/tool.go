package sdr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ajith-kumar99/voicedesk/pkg/lookup"
	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/persist"
	"github.com/ajith-kumar99/voicedesk/pkg/refdata"
	"github.com/ajith-kumar99/voicedesk/pkg/session"
	"github.com/ajith-kumar99/voicedesk/pkg/tool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

// Name is the agent name that enables this tool
const Name = "sdr"

const datasetFAQ = "company_faq"

// LeadSchema lists the lead fields an SDR collects; team size and timeline
// are asked for but not required
var LeadSchema = session.Schema[model.LeadField]{
	Required: []model.LeadField{
		model.LeadFieldName,
		model.LeadFieldCompany,
		model.LeadFieldEmail,
		model.LeadFieldRole,
		model.LeadFieldUseCase,
	},
	Optional: []model.LeadField{
		model.LeadFieldTeamSize,
		model.LeadFieldTimeline,
	},
	Parse: model.ParseLeadField,
}

// Tool is the sales development front end: company FAQ answers and lead
// capture
type Tool struct {
	client *tool.Client
	faq    []*model.FAQEntry
	lead   *session.Form[model.LeadField, *model.Lead]
}

func New() *Tool {
	return &Tool{
		lead: session.NewForm(LeadSchema, func() *model.Lead { return &model.Lead{} }),
	}
}

func (t *Tool) Flags() []cli.Flag {
	return nil
}

func (t *Tool) Init(ctx context.Context, client *tool.Client) (bool, error) {
	if client.Agent != Name {
		return false, nil
	}
	t.client = client

	faq, _, err := refdata.LoadRecords[*model.FAQEntry](ctx, client.Loader, datasetFAQ)
	if err != nil {
		client.Log().WarnContext(ctx, "no company FAQ, answering without it", "error", err)
	}
	t.faq = faq
	return true, nil
}

func (t *Tool) Prompt(ctx context.Context) string {
	return `### Sales development

You are a friendly sales development representative. Answer questions about the company and its product, and capture the visitor as a lead.
- Answer product, pricing and company questions only from search_faq results. If nothing matches, say you will have the team follow up.
- Collect name, company, email, role and use case naturally during the conversation, plus team size and timeline when offered. Record each answer with update_lead.
- When the visitor is done, summarise what you heard in one sentence and call save_lead with that summary.`
}

func (t *Tool) Spec() *genai.Tool {
	fields := make([]string, 0, len(model.LeadFields))
	for _, f := range model.LeadFields {
		fields = append(fields, string(f))
	}

	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "get_company_faq",
				Description: "Return every question and answer of the company FAQ",
				Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
			},
			{
				Name:        "search_faq",
				Description: "Find the FAQ entry that best matches a question by keyword overlap",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"query": {Type: genai.TypeString, Description: "The visitor's question"},
					},
					Required: []string{"query"},
				},
			},
			{
				Name:        "update_lead",
				Description: "Record one lead field. Returns which required fields are still missing.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"field": {Type: genai.TypeString, Description: "Lead field", Enum: fields},
						"value": {Type: genai.TypeString, Description: "Value given by the visitor"},
					},
					Required: []string{"field", "value"},
				},
			},
			{
				Name:        "save_lead",
				Description: "Save the collected lead with a one sentence summary of the conversation",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"summary": {Type: genai.TypeString, Description: "Summary of the visitor's needs"},
					},
				},
			},
		},
	}
}

func (t *Tool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	switch fc.Name {
	case "get_company_faq":
		return tool.Value(fc, "faq", t.faq)
	case "search_faq":
		return t.executeSearch(ctx, fc)
	case "update_lead":
		return t.executeUpdateLead(ctx, fc)
	case "save_lead":
		return t.executeSaveLead(ctx, fc)
	default:
		return nil, goerr.Wrap(tool.ErrToolNotFound, "unknown function", goerr.V("name", fc.Name))
	}
}

func (t *Tool) executeSearch(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := tool.DecodeArgs(fc, &in); err != nil {
		return nil, err
	}

	entry, ok := lookup.SearchScored(in.Query, t.faq)
	if !ok {
		return &genai.FunctionResponse{
			Name: fc.Name,
			Response: map[string]any{
				"found":  false,
				"result": "I don't have that in the FAQ. I can have the team follow up.",
			},
		}, nil
	}

	return &genai.FunctionResponse{
		Name: fc.Name,
		Response: map[string]any{
			"found":    true,
			"question": entry.Question,
			"answer":   entry.Answer,
		},
	}, nil
}

func joinFields[F ~string](fields []F) string {
	s := make([]string, len(fields))
	for i, f := range fields {
		s[i] = string(f)
	}
	return strings.Join(s, ", ")
}

func (t *Tool) executeUpdateLead(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	var in struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := tool.DecodeArgs(fc, &in); err != nil {
		return nil, err
	}

	missing, err := t.lead.Update(in.Field, in.Value)
	if err != nil {
		if errors.Is(err, model.ErrUnknownField) {
			t.client.Log().InfoContext(ctx, "rejected lead field", "error", err)
			return tool.Result(fc, fmt.Sprintf("'%s' is not a lead field. Fields are: %s.", in.Field, joinFields(model.LeadFields))), nil
		}
		return nil, err
	}

	field, _ := model.ParseLeadField(in.Field)
	if len(missing) == 0 {
		return tool.Result(fc, fmt.Sprintf("Saved %s. No missing fields.", field)), nil
	}
	return tool.Result(fc, fmt.Sprintf("Saved %s. Missing fields: %s.", field, joinFields(missing))), nil
}

func (t *Tool) executeSaveLead(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	var in struct {
		Summary string `json:"summary"`
	}
	if err := tool.DecodeArgs(fc, &in); err != nil {
		return nil, err
	}
	logger := t.client.Log()

	lead := t.lead.Record()
	if isBlank(lead) {
		return tool.Result(fc, "There are no lead details to save yet."), nil
	}

	record := &model.LeadRecord{
		Lead:    *lead,
		Missing: make([]string, 0),
		Summary: strings.TrimSpace(in.Summary),
	}
	for _, f := range t.lead.Missing() {
		record.Missing = append(record.Missing, string(f))
	}

	decision, err := t.client.Policy.Check(ctx, model.SnapshotKindLead, record)
	if err != nil {
		logger.ErrorContext(ctx, "failed to check lead policy", "error", err)
		return tool.Result(fc, "Sorry, I couldn't save your details right now."), nil
	}
	if !decision.Allowed() {
		return tool.Result(fc, "Sorry, I can't save these details: "+strings.Join(decision.Deny, "; ")+"."), nil
	}

	id, err := t.client.Persist.Append(ctx, persist.Record{
		Kind:   model.SnapshotKindLead,
		Status: "captured",
		Key:    lead.Company,
		Build: func(id model.SnapshotID, now time.Time) any {
			record.LeadID = id
			record.Timestamp = now
			return record
		},
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to save lead", "error", err)
		return tool.Result(fc, "Sorry, I couldn't save your details right now."), nil
	}

	t.lead.Reset()
	logger.InfoContext(ctx, "lead saved", "lead_id", id, "missing", record.Missing)
	return tool.Result(fc, "Thanks! Your details are saved and the team will be in touch."), nil
}

func isBlank(lead *model.Lead) bool {
	for _, f := range model.LeadFields {
		if !lead.IsEmpty(f) {
			return false
		}
	}
	return true
}
