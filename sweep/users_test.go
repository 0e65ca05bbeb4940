package sweep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bluesky-social/indigo/atproto/syntax"
	"github.com/bluesky-social/indigo/xrpc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyshoo/shoo/target"
)

func newTestClient(srv *httptest.Server) *xrpc.Client {
	return &xrpc.Client{
		Host:   srv.URL,
		Client: srv.Client(),
		Auth: &xrpc.AuthInfo{
			AccessJwt:  "access",
			RefreshJwt: "refresh",
			Did:        "did:plc:me",
			Handle:     "me.test",
		},
	}
}

// alice posts twice, one item has no hydrated author, so the distinct set is
// alice, bob, carol in first-seen order.
const feedFixture = `{
  "feed": [
    {"post": {"uri": "at://did:plc:alice/app.bsky.feed.post/1", "cid": "bafyreia", "author": {"did": "did:plc:alice", "handle": "alice.test"}, "record": {"$type": "app.bsky.feed.post", "text": "one", "createdAt": "2024-01-01T00:00:00Z"}, "indexedAt": "2024-01-01T00:00:00Z"}},
    {"post": {"uri": "at://did:plc:bob/app.bsky.feed.post/2", "cid": "bafyreib", "author": {"did": "did:plc:bob", "handle": "bob.test"}, "record": {"$type": "app.bsky.feed.post", "text": "two", "createdAt": "2024-01-01T00:00:01Z"}, "indexedAt": "2024-01-01T00:00:01Z"}},
    {"post": {"uri": "at://did:plc:alice/app.bsky.feed.post/3", "cid": "bafyreic", "author": {"did": "did:plc:alice", "handle": "alice.test"}, "record": {"$type": "app.bsky.feed.post", "text": "three", "createdAt": "2024-01-01T00:00:02Z"}, "indexedAt": "2024-01-01T00:00:02Z"}},
    {"post": {"uri": "at://did:plc:ghost/app.bsky.feed.post/4", "cid": "bafyreid", "record": {"$type": "app.bsky.feed.post", "text": "four", "createdAt": "2024-01-01T00:00:03Z"}, "indexedAt": "2024-01-01T00:00:03Z"}},
    {"post": {"uri": "at://did:plc:carol/app.bsky.feed.post/5", "cid": "bafyreie", "author": {"did": "did:plc:carol", "handle": "carol.test"}, "record": {"$type": "app.bsky.feed.post", "text": "five", "createdAt": "2024-01-01T00:00:04Z"}, "indexedAt": "2024-01-01T00:00:04Z"}}
  ]
}`

const listFixture = `{
  "items": [
    {"uri": "at://did:plc:owner/app.bsky.graph.listitem/1", "subject": {"did": "did:plc:zara", "handle": "zara.test"}},
    {"uri": "at://did:plc:owner/app.bsky.graph.listitem/2", "subject": {"did": "did:plc:yan", "handle": "yan.test"}},
    {"uri": "at://did:plc:owner/app.bsky.graph.listitem/3", "subject": {"did": "did:plc:xavier", "handle": "xavier.test"}}
  ]
}`

func TestFeedAuthorsDeduplicated(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	uri := syntax.ATURI("at://did:plc:owner/app.bsky.feed.generator/hot")
	mux := http.NewServeMux()
	mux.HandleFunc("/xrpc/app.bsky.feed.getFeed", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(uri.String(), r.URL.Query().Get("feed"))
		assert.Equal("25", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feedFixture))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	users, err := CollectUsers(ctx, newTestClient(srv), uri, target.FamilyFeedGenerator, 25)
	require.NoError(t, err)

	assert.Equal([]UserRecord{
		{DID: "did:plc:alice", Handle: "alice.test"},
		{DID: "did:plc:bob", Handle: "bob.test"},
		{DID: "did:plc:carol", Handle: "carol.test"},
	}, users)
}

func TestListMembersPreserveOrder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	uri := syntax.ATURI("at://did:plc:owner/app.bsky.graph.list/xyz")
	mux := http.NewServeMux()
	mux.HandleFunc("/xrpc/app.bsky.graph.getList", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(uri.String(), r.URL.Query().Get("list"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(listFixture))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	users, err := CollectUsers(ctx, newTestClient(srv), uri, target.FamilyList, 100)
	require.NoError(t, err)

	assert.Equal([]UserRecord{
		{DID: "did:plc:zara", Handle: "zara.test"},
		{DID: "did:plc:yan", Handle: "yan.test"},
		{DID: "did:plc:xavier", Handle: "xavier.test"},
	}, users)
}

func TestCollectUsersRemoteFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mux := http.NewServeMux()
	mux.HandleFunc("/xrpc/app.bsky.feed.getFeed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "InvalidRequest", "message": "no such feed"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	uri := syntax.ATURI("at://did:plc:owner/app.bsky.feed.generator/gone")
	_, err := CollectUsers(ctx, newTestClient(srv), uri, target.FamilyFeedGenerator, 10)
	require.Error(t, err)
	assert.Contains(err.Error(), "fetching feed")
}
