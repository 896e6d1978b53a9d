package barista

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/persist"
	"github.com/ajith-kumar99/voicedesk/pkg/session"
	"github.com/ajith-kumar99/voicedesk/pkg/tool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
)

// Name is the agent name that enables this tool
const Name = "barista"

// OrderSchema lists the coffee order fields; extras are optional
var OrderSchema = session.Schema[model.CoffeeField]{
	Required: []model.CoffeeField{
		model.CoffeeFieldDrinkType,
		model.CoffeeFieldSize,
		model.CoffeeFieldMilk,
		model.CoffeeFieldName,
	},
	Optional: []model.CoffeeField{model.CoffeeFieldExtras},
	Parse:    model.ParseCoffeeField,
}

// Tool is the coffee shop front end. An order is saved as soon as every
// required field is filled, then a new order starts.
type Tool struct {
	client *tool.Client
	order  *session.Form[model.CoffeeField, *model.CoffeeOrder]
}

func New() *Tool {
	return &Tool{
		order: session.NewForm(OrderSchema, func() *model.CoffeeOrder { return &model.CoffeeOrder{} }),
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
	return true, nil
}

func (t *Tool) Prompt(ctx context.Context) string {
	return `### Coffee shop

You are a cheerful barista taking a coffee order by voice. Ask for one missing detail at a time: drink, size, milk, any extras, and the customer's name.
- Record each answer with update_order as soon as you hear it. Extras are a comma separated list, or "none".
- The order is placed automatically once it is complete; confirm it back to the customer in one sentence.`
}

func (t *Tool) Spec() *genai.Tool {
	fields := make([]string, 0, len(model.CoffeeFields))
	for _, f := range model.CoffeeFields {
		fields = append(fields, string(f))
	}

	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "update_order",
				Description: "Set one field of the current coffee order. The order is placed when every required field is set.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"field": {Type: genai.TypeString, Description: "Order field", Enum: fields},
						"value": {Type: genai.TypeString, Description: "Value for the field"},
					},
					Required: []string{"field", "value"},
				},
			},
			{
				Name:        "get_order",
				Description: "Return the current order and the fields still missing",
				Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
			},
		},
	}
}

func (t *Tool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	switch fc.Name {
	case "update_order":
		return t.executeUpdate(ctx, fc)
	case "get_order":
		return t.executeGet(ctx, fc)
	default:
		return nil, goerr.Wrap(tool.ErrToolNotFound, "unknown function", goerr.V("name", fc.Name))
	}
}

func fieldNames(fields []model.CoffeeField) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

func (t *Tool) executeUpdate(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	var in struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := tool.DecodeArgs(fc, &in); err != nil {
		return nil, err
	}

	missing, err := t.order.Update(in.Field, in.Value)
	if err != nil {
		if errors.Is(err, model.ErrUnknownField) {
			t.client.Log().InfoContext(ctx, "rejected order field", "error", err)
			return tool.Result(fc, fmt.Sprintf("'%s' is not part of a coffee order. Fields are: %s.",
				in.Field, strings.Join(fieldNames(model.CoffeeFields), ", "))), nil
		}
		return nil, err
	}

	if len(missing) > 0 {
		return tool.Result(fc, "Got it. Still need: "+strings.Join(fieldNames(missing), ", ")+"."), nil
	}
	return tool.Result(fc, t.place(ctx)), nil
}

// place saves the complete order and starts a new one. A failed save keeps
// the order so the next update or a retry can place it.
func (t *Tool) place(ctx context.Context) string {
	logger := t.client.Log()
	order := *t.order.Record()
	record := &model.CoffeeOrderRecord{
		Order:  order,
		Status: model.OrderStatusReceived,
	}

	decision, err := t.client.Policy.Check(ctx, model.SnapshotKindCoffeeOrder, record)
	if err != nil {
		logger.ErrorContext(ctx, "failed to check coffee order policy", "error", err)
		return "Your order is complete but couldn't be placed right now."
	}
	if !decision.Allowed() {
		return "Sorry, I can't place this order: " + strings.Join(decision.Deny, "; ") + "."
	}

	id, err := t.client.Persist.Append(ctx, persist.Record{
		Kind:   model.SnapshotKindCoffeeOrder,
		Status: record.Status,
		Key:    order.Name,
		Build: func(id model.SnapshotID, now time.Time) any {
			record.OrderID = id
			record.Timestamp = now
			return record
		},
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to save coffee order", "error", err)
		return "Your order is complete but couldn't be placed right now."
	}

	t.order.Reset()
	logger.InfoContext(ctx, "coffee order placed", "order_id", id)
	return fmt.Sprintf("Order placed: %s.", describe(order))
}

// describe renders an order as "a small latte with oat milk, extra shot for Sam"
func describe(o model.CoffeeOrder) string {
	s := fmt.Sprintf("a %s %s with %s milk", strings.ToLower(o.Size), strings.ToLower(o.DrinkType), strings.ToLower(o.Milk))
	if len(o.Extras) > 0 {
		s += ", " + strings.Join(o.Extras, ", ")
	}
	return s + " for " + o.Name
}

func (t *Tool) executeGet(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	return tool.Object(fc, struct {
		Order    *model.CoffeeOrder `json:"order"`
		Missing  []string           `json:"missing_fields"`
		Complete bool               `json:"complete"`
	}{
		Order:    t.order.Record(),
		Missing:  fieldNames(t.order.Missing()),
		Complete: t.order.Complete(),
	})
}
