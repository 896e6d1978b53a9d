package policy

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
)

// packages maps a record kind to the Rego package that guards it
var packages = map[model.SnapshotKind]string{
	model.SnapshotKindOrder:       "order",
	model.SnapshotKindLead:        "lead",
	model.SnapshotKindCoffeeOrder: "coffee_order",
}

// loadPolicies loads all Rego files from policyDir and prepares a query for
// each record kind
func loadPolicies(ctx context.Context, policyDir string) (map[model.SnapshotKind]*rego.PreparedEvalQuery, error) {
	files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files")
	}

	if len(files) == 0 {
		return nil, nil
	}

	modules := make([]func(*rego.Rego), 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.Value("path", file))
		}
		modules = append(modules, rego.Module(file, string(data)))
	}

	queries := make(map[model.SnapshotKind]*rego.PreparedEvalQuery, len(packages))
	for kind, pkg := range packages {
		q, err := prepareQuery(ctx, modules, "data."+pkg)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to prepare policy query", goerr.Value("kind", kind))
		}
		queries[kind] = q
	}

	return queries, nil
}

// prepareQuery prepares a Rego query with all loaded modules
func prepareQuery(ctx context.Context, modules []func(*rego.Rego), query string) (*rego.PreparedEvalQuery, error) {
	options := make([]func(*rego.Rego), 0, len(modules)+1)
	options = append(options, rego.Query(query))
	options = append(options, modules...)

	r := rego.New(options...)

	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare query", goerr.Value("query", query))
	}

	return &prepared, nil
}
