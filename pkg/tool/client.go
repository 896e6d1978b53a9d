package tool

import (
	"log/slog"

	"github.com/ajith-kumar99/voicedesk/pkg/persist"
	"github.com/ajith-kumar99/voicedesk/pkg/policy"
	"github.com/ajith-kumar99/voicedesk/pkg/refdata"
	"github.com/ajith-kumar99/voicedesk/pkg/utils/logging"
)

// Client contains the per-session resources that tools use
type Client struct {
	// Agent is the front end selected for the session
	Agent string
	// SessionID identifies the conversation in logs
	SessionID string

	Logger  *slog.Logger
	Loader  *refdata.Loader
	Persist *persist.Manager
	// Policy may be nil, which accepts every record
	Policy *policy.Gate
}

// Log returns the session logger, or the default logger when none is set
func (c *Client) Log() *slog.Logger {
	if c == nil || c.Logger == nil {
		return logging.Default()
	}
	return c.Logger
}
