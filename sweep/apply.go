package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	appbsky "github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/atproto/syntax"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"

	"golang.org/x/time/rate"
)

// Action is the moderation action applied to each enumerated account.
type Action string

const (
	ActionBlock Action = "block"
	ActionMute  Action = "mute"
)

// ParseAction validates a CLI-supplied action name.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionBlock, ActionMute:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown action %q (want block or mute)", s)
}

// DefaultPace is the interval between write calls, chosen to stay well under
// the PDS rate limit.
const DefaultPace = 500 * time.Millisecond

// Result summarizes an apply pass.
type Result struct {
	Processed int
	Errors    int
}

// Apply runs action against every user, one call at a time in order, spaced
// pace apart regardless of outcome. A failure on one user is logged and
// counted and the loop moves on; nothing already applied is rolled back.
// Returns early only if ctx is cancelled.
func Apply(ctx context.Context, c *xrpc.Client, action Action, users []UserRecord, pace time.Duration, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if pace <= 0 {
		pace = DefaultPace
	}
	limiter := rate.NewLimiter(rate.Every(pace), 1)

	var res Result
	for _, u := range users {
		if err := limiter.Wait(ctx); err != nil {
			return &res, err
		}
		if err := applyOne(ctx, c, action, u); err != nil {
			logger.Error("action failed", "action", action, "did", u.DID, "handle", u.Handle, "err", err)
			res.Errors++
			continue
		}
		logger.Info("applied action", "action", action, "did", u.DID, "handle", u.Handle)
		res.Processed++
	}
	return &res, nil
}

func applyOne(ctx context.Context, c *xrpc.Client, action Action, u UserRecord) error {
	switch action {
	case ActionBlock:
		block := appbsky.GraphBlock{
			LexiconTypeID: "app.bsky.graph.block",
			CreatedAt:     syntax.DatetimeNow().String(),
			Subject:       u.DID,
		}
		_, err := comatproto.RepoCreateRecord(ctx, c, &comatproto.RepoCreateRecord_Input{
			Collection: "app.bsky.graph.block",
			Repo:       c.Auth.Did,
			Record:     &lexutil.LexiconTypeDecoder{Val: &block},
		})
		return err
	case ActionMute:
		return appbsky.GraphMuteActor(ctx, c, &appbsky.GraphMuteActor_Input{
			Actor: u.DID,
		})
	}
	return fmt.Errorf("unknown action %q", action)
}
