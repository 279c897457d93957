package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readwatch/internal/config"
	"readwatch/internal/handler"
	"readwatch/internal/httputil"
	"readwatch/internal/logger"
	"readwatch/internal/model"
	"readwatch/internal/repository/repotest"
	"readwatch/internal/service"
	"readwatch/internal/summarizer"
)

const testSecret = "router-test-secret"

type fixedSummarizer struct {
	outcome summarizer.Outcome
	calls   int
}

func (s *fixedSummarizer) RequestSummary(ctx context.Context, title, url, itemType string) summarizer.Outcome {
	s.calls++
	return s.outcome
}

type testServer struct {
	t      *testing.T
	router http.Handler
	db     *repotest.Store
	sum    *fixedSummarizer
}

func newTestServer(t *testing.T, requireAuth bool) *testServer {
	t.Helper()

	db := repotest.NewStore()
	log := logger.NewNop()
	sum := &fixedSummarizer{outcome: summarizer.Outcome{Status: summarizer.StatusOK, Text: "Short summary."}}

	users := service.NewUserService(db.Users(), db.Follows())
	items := service.NewItemService(db.Items(), db.Users(), log)
	follows := service.NewFollowService(db.Follows(), db.Users(), log)
	feed := service.NewFeedService(follows, db.Items())
	ingest := service.NewIngestService(db.Items(), sum, nil, time.Second, log)
	export, err := service.NewExportService(context.Background(), &config.Config{}, items, users)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		ItemHandler:   handler.NewItemHandler(ingest, items, users, requireAuth, log),
		UserHandler:   handler.NewUserHandler(users, log),
		FollowHandler: handler.NewFollowHandler(follows, users, log),
		FeedHandler:   handler.NewFeedHandler(feed, log),
		ExportHandler: handler.NewExportHandler(export, log),
		JWTSecret:     testSecret,
		Logger:        log,
	})

	return &testServer{t: t, router: router, db: db, sum: sum}
}

func (s *testServer) token(userID int64) string {
	s.t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(username string) model.User {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/users", map[string]string{"username": username}, "")
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var u model.User
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &u))
	return u
}

func (s *testServer) addItem(username, title, url, itemType string) model.Item {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/items", map[string]string{
		"username": username, "title": title, "url": url, "type": itemType,
	}, "")
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var it model.Item
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &it))
	return it
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.ErrorResponse
	decode(t, rec, &body)
	return body.Error.Code
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealth_PingFailure(t *testing.T) {
	log := logger.NewNop()
	router := NewRouter(RouterConfig{
		ItemHandler:   &handler.ItemHandler{},
		UserHandler:   &handler.UserHandler{},
		FollowHandler: &handler.FollowHandler{},
		FeedHandler:   &handler.FeedHandler{},
		ExportHandler: &handler.ExportHandler{},
		JWTSecret:     testSecret,
		Logger:        log,
		Ping:          func(ctx context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, false)
	s.do(http.MethodGet, "/health", nil, "")

	rec := s.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRegister(t *testing.T) {
	s := newTestServer(t, false)

	u := s.register("alice")
	assert.Equal(t, "alice", u.Username)
	assert.NotZero(t, u.ID)

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
	}{
		{"duplicate", map[string]string{"username": "alice"}, http.StatusConflict},
		{"empty", map[string]string{"username": ""}, http.StatusBadRequest},
		{"invalid characters", map[string]string{"username": "a b c"}, http.StatusBadRequest},
		{"malformed json", "{not json", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/users", tt.body, "")
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateItem(t *testing.T) {
	s := newTestServer(t, false)
	alice := s.register("alice")
	bob := s.register("bob")

	t.Run("anonymous submission creates item with summary", func(t *testing.T) {
		it := s.addItem("alice", "Go memory model", "https://go.dev/ref/mem", "article")
		assert.Equal(t, alice.ID, it.OwnerID)
		assert.Equal(t, "alice", it.OwnerUsername)
		require.NotNil(t, it.Summary)
		assert.Equal(t, "Short summary.", *it.Summary)
	})

	t.Run("duplicate returns existing item without summarizing", func(t *testing.T) {
		calls := s.sum.calls
		rec := s.do(http.MethodPost, "/items", map[string]string{
			"username": "alice", "title": "Again", "url": "https://go.dev/ref/mem", "type": "article",
		}, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Message string     `json:"message"`
			Item    model.Item `json:"item"`
		}
		decode(t, rec, &body)
		assert.Equal(t, "already tracked", body.Message)
		assert.Equal(t, "Go memory model", body.Item.Title)
		assert.Equal(t, calls, s.sum.calls)
	})

	t.Run("video variants collapse and type is inferred", func(t *testing.T) {
		it := s.addItem("alice", "Talk", "https://youtu.be/abc123", "")
		assert.Equal(t, model.ItemTypeVideo, it.Type)
		assert.Equal(t, "https://www.youtube.com/watch?v=abc123", it.URL)

		rec := s.do(http.MethodPost, "/items", map[string]string{
			"username": "alice", "title": "Talk", "url": "https://m.youtube.com/watch?v=abc123&feature=share",
		}, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("matching token accepted", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/items", map[string]string{
			"username": "bob", "title": "Notes", "url": "", "type": "article",
		}, s.token(bob.ID))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	failures := []struct {
		name     string
		body     interface{}
		token    string
		wantCode int
	}{
		{"malformed json", "{", "", http.StatusBadRequest},
		{"missing username", map[string]string{"title": "x"}, "", http.StatusBadRequest},
		{"missing title", map[string]string{"username": "alice", "title": "  "}, "", http.StatusBadRequest},
		{"invalid type", map[string]string{"username": "alice", "title": "x", "type": "podcast"}, "", http.StatusBadRequest},
		{"unknown user", map[string]string{"username": "nobody", "title": "x"}, "", http.StatusNotFound},
		{"token for another user", map[string]string{"username": "alice", "title": "x"}, s.token(bob.ID), http.StatusForbidden},
		{"invalid token", map[string]string{"username": "alice", "title": "x"}, "garbage", http.StatusUnauthorized},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/items", tt.body, tt.token)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateItem_PlaceholderSummaryOnFailure(t *testing.T) {
	s := newTestServer(t, false)
	s.register("alice")
	s.sum.outcome = summarizer.Outcome{Status: summarizer.StatusTimeout}

	it := s.addItem("alice", "Slow page", "https://example.com/slow", "article")
	require.NotNil(t, it.Summary)
	assert.Equal(t, summarizer.Outcome{Status: summarizer.StatusTimeout}.SummaryText(), *it.Summary)
}

func TestCreateItem_RequireAuth(t *testing.T) {
	s := newTestServer(t, true)
	alice := s.register("alice")

	body := map[string]string{"username": "alice", "title": "x", "type": "article"}

	rec := s.do(http.MethodPost, "/items", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/items", body, s.token(alice.ID))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestDeleteItem(t *testing.T) {
	s := newTestServer(t, false)
	alice := s.register("alice")
	bob := s.register("bob")
	it := s.addItem("alice", "Keep me", "https://example.com/a", "article")

	path := "/item/" + jsonNumber(it.ID)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodDelete, path, nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/item/abc", nil, s.token(alice.ID)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/item/9999", nil, s.token(alice.ID)).Code)

	rec := s.do(http.MethodDelete, path, nil, s.token(bob.ID))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, httputil.ErrCodeForbidden, errorCode(t, rec))

	rec = s.do(http.MethodDelete, path, nil, s.token(alice.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, s.db.ItemCount())
}

func TestListItemsAndStats(t *testing.T) {
	s := newTestServer(t, false)
	s.register("alice")
	s.addItem("alice", "Article", "https://example.com/a", "article")
	s.addItem("alice", "Video", "https://www.youtube.com/watch?v=zzz", "video")

	rec := s.do(http.MethodGet, "/user/alice/items", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []model.Item
	decode(t, rec, &items)
	require.Len(t, items, 2)
	assert.Equal(t, "Video", items[0].Title)

	rec = s.do(http.MethodGet, "/user/nobody/items", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/user/alice/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"article":1,"video":1,"total":2}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/user/nobody/stats", nil, "").Code)
}

func TestFollowLifecycle(t *testing.T) {
	s := newTestServer(t, false)
	alice := s.register("alice")
	s.register("bob")
	tok := s.token(alice.ID)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/follow/bob", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/follow/nobody", nil, tok).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/follow/alice", nil, tok).Code)

	rec := s.do(http.MethodPost, "/follow/bob", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/follow/bob", nil, tok).Code)

	var list model.FollowListResponse
	decode(t, s.do(http.MethodGet, "/user/bob/followers", nil, ""), &list)
	assert.Equal(t, []string{"alice"}, list.Usernames)
	decode(t, s.do(http.MethodGet, "/user/alice/following", nil, ""), &list)
	assert.Equal(t, []string{"bob"}, list.Usernames)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/user/nobody/followers", nil, "").Code)

	var profile model.ProfileResponse
	decode(t, s.do(http.MethodGet, "/user/bob", nil, tok), &profile)
	assert.Equal(t, 1, profile.FollowerCount)
	assert.True(t, profile.IsFollowing)

	decode(t, s.do(http.MethodGet, "/user/bob", nil, ""), &profile)
	assert.False(t, profile.IsFollowing)

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/unfollow/bob", nil, tok).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/unfollow/bob", nil, tok).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/user/nobody", nil, "").Code)
}

func TestFeed(t *testing.T) {
	s := newTestServer(t, false)
	alice := s.register("alice")
	s.register("bob")
	s.register("carol")
	tok := s.token(alice.ID)

	rec := s.do(http.MethodGet, "/feed", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/follow/bob", nil, tok).Code)
	s.addItem("bob", "First", "https://example.com/1", "article")
	s.addItem("alice", "Mine", "https://example.com/mine", "article")
	s.addItem("carol", "Unfollowed", "https://example.com/c", "article")
	s.addItem("bob", "Second", "https://example.com/2", "article")

	var feed []model.Item
	decode(t, s.do(http.MethodGet, "/feed", nil, tok), &feed)
	require.Len(t, feed, 2)
	assert.Equal(t, "Second", feed[0].Title)
	assert.Equal(t, "First", feed[1].Title)
	assert.Equal(t, "bob", feed[0].OwnerUsername)

	decode(t, s.do(http.MethodGet, "/feed?limit=1", nil, tok), &feed)
	assert.Len(t, feed, 1)

	decode(t, s.do(http.MethodGet, "/feed?limit=500", nil, tok), &feed)
	assert.Len(t, feed, 2)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/feed?limit=abc", nil, tok).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/feed", nil, "").Code)
}

func TestExport(t *testing.T) {
	s := newTestServer(t, false)
	alice := s.register("alice")
	s.addItem("alice", "Article", "https://example.com/a", "article")

	rec := s.do(http.MethodGet, "/user/alice/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment;"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "alice-reading-list.json")

	var doc model.ReadingListExport
	decode(t, rec, &doc)
	assert.Equal(t, "alice", doc.Username)
	assert.Len(t, doc.Items, 1)
	assert.Equal(t, 1, doc.Stats.Total)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/user/nobody/export", nil, "").Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/me/export", nil, "").Code)
	rec = s.do(http.MethodPost, "/me/export", nil, s.token(alice.ID))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, httputil.ErrCodeUnavailable, errorCode(t, rec))
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
