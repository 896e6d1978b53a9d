package cli

import (
	"context"
	"log/slog"

	"github.com/ajith-kumar99/voicedesk/pkg/adapter"
	"github.com/ajith-kumar99/voicedesk/pkg/persist"
	"github.com/ajith-kumar99/voicedesk/pkg/refdata"
	"github.com/ajith-kumar99/voicedesk/pkg/repository"
	"github.com/ajith-kumar99/voicedesk/pkg/tool"
	"github.com/ajith-kumar99/voicedesk/pkg/tool/adventure"
	"github.com/ajith-kumar99/voicedesk/pkg/tool/barista"
	"github.com/ajith-kumar99/voicedesk/pkg/tool/fraud"
	"github.com/ajith-kumar99/voicedesk/pkg/tool/grocery"
	"github.com/ajith-kumar99/voicedesk/pkg/tool/sdr"
	"github.com/ajith-kumar99/voicedesk/pkg/utils/logging"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// newRegistry returns every front end. Only the one named by --agent is
// enabled when the session starts, but all of them contribute flags.
func newRegistry() *tool.Registry {
	return tool.New(
		grocery.New(),
		fraud.New(),
		adventure.New(),
		sdr.New(),
		barista.New(),
	)
}

// agentSession holds the resources of one conversation
type agentSession struct {
	id      string
	logger  *slog.Logger
	storage adapter.Storage
	repo    repository.Repository
	closers []func() error
}

func (s *agentSession) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			s.logger.Warn("failed to close resource", "error", err)
		}
	}
}

// startSession builds the per-session client and enables the selected
// front end of registry
func (cfg *config) startSession(ctx context.Context, registry *tool.Registry) (context.Context, *agentSession, error) {
	base := cfg.newLogger()
	sessionID := uuid.NewString()
	ctx, logger := logging.Session(ctx, base, sessionID, cfg.agent)

	sess := &agentSession{id: sessionID, logger: logger}

	storage, err := cfg.newStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	sess.storage = storage

	persistOpts := []persist.Option{persist.WithLogger(logger)}
	fs, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, nil, err
	}
	if fs != nil {
		sess.repo = fs
		sess.closers = append(sess.closers, fs.Close)
		persistOpts = append(persistOpts, persist.WithRepository(fs))
	}

	gate, err := cfg.newPolicy(ctx, logger)
	if err != nil {
		sess.Close()
		return nil, nil, err
	}

	client := &tool.Client{
		Agent:     cfg.agent,
		SessionID: sessionID,
		Logger:    logger,
		Loader:    refdata.New(cfg.dataDir, refdata.WithLogger(logger)),
		Persist:   persist.New(storage, persistOpts...),
		Policy:    gate,
	}
	if err := registry.Init(ctx, client); err != nil {
		sess.Close()
		return nil, nil, goerr.Wrap(err, "failed to initialize tools")
	}
	if len(registry.EnabledTools()) == 0 {
		sess.Close()
		return nil, nil, goerr.New("unknown agent", goerr.V("agent", cfg.agent),
			goerr.V("available", []string{grocery.Name, fraud.Name, adventure.Name, sdr.Name, barista.Name}))
	}

	logger.InfoContext(ctx, "session started", "data_dir", cfg.dataDir, "functions", registry.EnabledTools())
	return ctx, sess, nil
}
