// Package sweep turns a Bluesky list or feed into a bulk block or mute: it
// logs in, resolves the target, enumerates the referenced accounts, writes
// them to a JSON snapshot, and then either reports (dry run) or applies the
// action to each account in turn.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/bluesky-social/indigo/xrpc"

	"github.com/skyshoo/shoo/target"
)

// Config carries everything a run needs. It is built once by the caller;
// nothing in this package reads the environment.
type Config struct {
	PDSHost    string
	Identifier string // handle or DID to log in as
	Password   string

	Target     string // raw web URL or at:// URI
	Action     Action
	DryRun     bool
	OutputPath string
	FeedLimit  int64         // max posts fetched from a feed target
	Pace       time.Duration // interval between write calls; DefaultPace if zero

	Logger     *slog.Logger
	HTTPClient *http.Client // nil means the xrpc client's robust default
	UserAgent  *string
}

// Outcome reports what a run did. Applied is nil under dry run.
type Outcome struct {
	URI     syntax.ATURI
	Users   []UserRecord
	Applied *Result
}

// Run executes one full sweep. The snapshot file is written before any
// action is attempted, so it reflects the enumeration even under dry run or
// a partially failed apply pass.
func Run(ctx context.Context, cfg Config) (*Outcome, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FeedLimit <= 0 {
		cfg.FeedLimit = 100
	}

	tgt, err := target.Parse(cfg.Target)
	if err != nil {
		return nil, err
	}

	xrpcc := &xrpc.Client{
		Host:      cfg.PDSHost,
		Client:    cfg.HTTPClient,
		UserAgent: cfg.UserAgent,
	}

	logger.Info("logging in", "host", cfg.PDSHost, "identifier", cfg.Identifier)
	sess, err := comatproto.ServerCreateSession(ctx, xrpcc, &comatproto.ServerCreateSession_Input{
		Identifier: cfg.Identifier,
		Password:   cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	xrpcc.Auth = &xrpc.AuthInfo{
		AccessJwt:  sess.AccessJwt,
		RefreshJwt: sess.RefreshJwt,
		Did:        sess.Did,
		Handle:     sess.Handle,
	}

	uri := tgt.URI
	if tgt.NeedsResolution() {
		logger.Info("resolving handle", "handle", tgt.Handle)
		resp, err := comatproto.IdentityResolveHandle(ctx, xrpcc, tgt.Handle.String())
		if err != nil {
			return nil, fmt.Errorf("resolving handle %s: %w", tgt.Handle, err)
		}
		did, err := syntax.ParseDID(resp.Did)
		if err != nil {
			return nil, fmt.Errorf("resolving handle %s: %w", tgt.Handle, err)
		}
		uri = tgt.URIForDID(did)
	}
	logger.Info("using target", "uri", uri, "kind", tgt.Family.String())

	users, err := CollectUsers(ctx, xrpcc, uri, tgt.Family, cfg.FeedLimit)
	if err != nil {
		return nil, err
	}

	if err := WriteUserFile(cfg.OutputPath, users); err != nil {
		return nil, err
	}
	logger.Info("wrote user snapshot", "path", cfg.OutputPath, "users", len(users))

	out := &Outcome{URI: uri, Users: users}
	if cfg.DryRun {
		for _, u := range users {
			logger.Info("dry run, would apply action", "action", cfg.Action, "did", u.DID, "handle", u.Handle)
		}
		return out, nil
	}

	res, err := Apply(ctx, xrpcc, cfg.Action, users, cfg.Pace, logger)
	out.Applied = res
	if err != nil {
		return out, err
	}
	logger.Info("sweep complete", "action", cfg.Action, "processed", res.Processed, "errors", res.Errors)
	return out, nil
}
