package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/ajith-kumar99/voicedesk/pkg/adapter"
	"github.com/ajith-kumar99/voicedesk/pkg/policy"
	"github.com/ajith-kumar99/voicedesk/pkg/repository"
	"github.com/ajith-kumar99/voicedesk/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	logLevel string
	dataDir  string

	// Storage
	storageBucket string
	storagePrefix string

	// Repository
	firestoreProject  string
	firestoreDatabase string

	// Session
	agent     string
	policyDir string

	// Adapters
	geminiAPIKey   string
	geminiProject  string
	geminiLocation string
	geminiModel    string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("VOICEDESK_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory holding the reference data and output files of the agent",
			Value:       ".",
			Sources:     cli.EnvVars("VOICEDESK_DATA_DIR"),
			Destination: &cfg.dataDir,
		},
		&cli.StringFlag{
			Name:        "storage-bucket",
			Usage:       "Cloud Storage bucket for orders, leads and transcripts; the data directory is used when empty",
			Sources:     cli.EnvVars("VOICEDESK_STORAGE_BUCKET"),
			Destination: &cfg.storageBucket,
		},
		&cli.StringFlag{
			Name:        "storage-prefix",
			Usage:       "Object prefix in the storage bucket",
			Sources:     cli.EnvVars("VOICEDESK_STORAGE_PREFIX"),
			Destination: &cfg.storagePrefix,
		},
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "Google Cloud project ID of the Firestore index; indexing is disabled when empty",
			Sources:     cli.EnvVars("VOICEDESK_FIRESTORE_PROJECT"),
			Destination: &cfg.firestoreProject,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("VOICEDESK_FIRESTORE_DATABASE"),
			Destination: &cfg.firestoreDatabase,
		},
	}
}

// agentFlags returns flags that select and configure the front end
func agentFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "agent",
			Aliases:     []string{"a"},
			Usage:       "Front end to run (grocery, fraud, adventure, sdr, barista)",
			Sources:     cli.EnvVars("VOICEDESK_AGENT"),
			Destination: &cfg.agent,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego policies checked before an order or lead is saved",
			Sources:     cli.EnvVars("VOICEDESK_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key; Vertex AI is used when empty",
			Sources:     cli.EnvVars("VOICEDESK_GEMINI_API_KEY", "GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Sources:     cli.EnvVars("VOICEDESK_GEMINI_PROJECT"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini on Vertex AI",
			Value:       "us-central1",
			Sources:     cli.EnvVars("VOICEDESK_GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("VOICEDESK_GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

// newLogger creates the process logger and makes it the default
func (cfg *config) newLogger() *slog.Logger {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logger
}

// newRepository creates a Firestore repository, or returns nil when no
// project is configured
func (cfg *config) newRepository(ctx context.Context) (*repository.Firestore, error) {
	if cfg.firestoreProject == "" {
		return nil, nil
	}

	repo, err := repository.New(ctx, cfg.firestoreProject, cfg.firestoreDatabase)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// requireRepository is newRepository for commands that only read the index
func (cfg *config) requireRepository(ctx context.Context) (*repository.Firestore, error) {
	if cfg.firestoreProject == "" {
		return nil, goerr.New("firestore-project is required")
	}
	return cfg.newRepository(ctx)
}

// newStorage creates a Cloud Storage adapter when a bucket is configured,
// otherwise a file storage rooted at the data directory
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.storageBucket == "" {
		return adapter.NewFileStorage(cfg.dataDir), nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.storageBucket, cfg.storagePrefix)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiAPIKey == "" && cfg.geminiProject == "" {
		return nil, goerr.New("gemini-api-key or gemini-project is required")
	}

	gemini, err := adapter.NewGemini(ctx, adapter.GeminiConfig{
		APIKey:   cfg.geminiAPIKey,
		Project:  cfg.geminiProject,
		Location: cfg.geminiLocation,
	}, adapter.WithGenerativeModel(cfg.geminiModel))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return gemini, nil
}

// newPolicy loads the policy gate; nil when no policy directory is set
func (cfg *config) newPolicy(ctx context.Context, logger *slog.Logger) (*policy.Gate, error) {
	gate, err := policy.New(ctx, cfg.policyDir, policy.WithLogger(logger))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load policies", goerr.V("dir", cfg.policyDir))
	}
	return gate, nil
}
