package policy

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/topdown/print"
)

// Gate evaluates acceptance rules before a record is saved. A policy file
// declares a package per record kind (order, lead, coffee_order) with a
// deny set of messages:
//
//	package order
//
//	deny contains "orders above 500.00 need a call back" if {
//		input.total > 500
//	}
//
// A nil Gate, or a kind without rules, accepts everything.
type Gate struct {
	queries map[model.SnapshotKind]*rego.PreparedEvalQuery
	logger  *slog.Logger
}

// printHook forwards Rego print() output to the logger
type printHook struct {
	logger *slog.Logger
}

func (h *printHook) Print(ctx print.Context, message string) error {
	h.logger.Debug("rego print", "message", message)
	return nil
}

type Option func(*Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New loads the policies in policyDir. An empty directory name disables
// the gate and returns nil.
func New(ctx context.Context, policyDir string, opts ...Option) (*Gate, error) {
	if policyDir == "" {
		return nil, nil
	}

	queries, err := loadPolicies(ctx, policyDir)
	if err != nil {
		return nil, err
	}

	g := &Gate{
		queries: queries,
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Decision is the outcome of a policy check
type Decision struct {
	Deny []string
}

// Allowed reports whether no rule denied the record
func (d *Decision) Allowed() bool {
	return len(d.Deny) == 0
}

// Check evaluates the rules of kind against record. record is converted to
// its JSON form first, so the policy sees the same field names as the
// persisted file.
func (g *Gate) Check(ctx context.Context, kind model.SnapshotKind, record any) (*Decision, error) {
	if g == nil {
		return &Decision{}, nil
	}
	query, ok := g.queries[kind]
	if !ok || query == nil {
		return &Decision{}, nil
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal policy input", goerr.V("kind", kind))
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, goerr.Wrap(err, "failed to convert policy input", goerr.V("kind", kind))
	}

	rs, err := query.Eval(ctx, rego.EvalInput(input), rego.EvalPrintHook(&printHook{logger: g.logger}))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate policy", goerr.V("kind", kind))
	}

	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return &Decision{}, nil
	}

	data, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return &Decision{}, nil
	}

	denyData, ok := data["deny"]
	if !ok {
		return &Decision{}, nil
	}
	items, ok := denyData.([]any)
	if !ok {
		return nil, goerr.New("invalid policy result: deny is not a set", goerr.V("kind", kind))
	}

	d := &Decision{Deny: make([]string, 0, len(items))}
	for _, item := range items {
		msg, ok := item.(string)
		if !ok {
			return nil, goerr.New("invalid policy result: deny message is not a string", goerr.V("kind", kind))
		}
		d.Deny = append(d.Deny, msg)
	}
	sort.Strings(d.Deny)

	if !d.Allowed() {
		g.logger.InfoContext(ctx, "record denied by policy", "kind", kind, "deny", d.Deny)
	}
	return d, nil
}
