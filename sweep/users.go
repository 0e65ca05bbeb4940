package sweep

import (
	"context"
	"fmt"

	appbsky "github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/bluesky-social/indigo/xrpc"

	"github.com/skyshoo/shoo/target"
)

// UserRecord is one account pulled off the target list or feed.
type UserRecord struct {
	DID    string `json:"did"`
	Handle string `json:"handle"`
}

// The getList lexicon requires a limit param; this is its maximum page size.
const listPageLimit = 100

// CollectUsers fetches the accounts referenced by uri. For a feed this is
// every distinct post author across up to limit posts; for a list it is the
// full membership of one page, in server order. One remote call either way,
// no pagination.
func CollectUsers(ctx context.Context, c *xrpc.Client, uri syntax.ATURI, family target.Family, limit int64) ([]UserRecord, error) {
	if family == target.FamilyFeedGenerator {
		return feedAuthors(ctx, c, uri, limit)
	}
	return listMembers(ctx, c, uri)
}

// Deduplicates by DID, first seen wins, insertion order preserved.
func feedAuthors(ctx context.Context, c *xrpc.Client, uri syntax.ATURI, limit int64) ([]UserRecord, error) {
	resp, err := appbsky.FeedGetFeed(ctx, c, "", uri.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}

	seen := make(map[string]bool, len(resp.Feed))
	var users []UserRecord
	for _, item := range resp.Feed {
		// some feed items hydrate without an author attached; skip those
		if item.Post == nil || item.Post.Author == nil {
			continue
		}
		author := item.Post.Author
		if seen[author.Did] {
			continue
		}
		seen[author.Did] = true
		users = append(users, UserRecord{DID: author.Did, Handle: author.Handle})
	}
	return users, nil
}

// List membership is unique by construction, so no dedup.
func listMembers(ctx context.Context, c *xrpc.Client, uri syntax.ATURI) ([]UserRecord, error) {
	resp, err := appbsky.GraphGetList(ctx, c, "", listPageLimit, uri.String())
	if err != nil {
		return nil, fmt.Errorf("fetching list members: %w", err)
	}

	users := make([]UserRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Subject == nil {
			continue
		}
		users = append(users, UserRecord{DID: item.Subject.Did, Handle: item.Subject.Handle})
	}
	return users, nil
}
