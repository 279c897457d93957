package service

import (
	"context"
	"sync"
	"time"

	"readwatch/internal/logger"
	"readwatch/internal/model"
	"readwatch/internal/repository/repotest"
	"readwatch/internal/summarizer"
)

// =============================================================================
// SUMMARIZER AND GUARD STUBS
// =============================================================================

type stubSummarizer struct {
	mu      sync.Mutex
	outcome summarizer.Outcome
	calls   []summaryCall
}

type summaryCall struct {
	Title, URL, Type string
}

func (s *stubSummarizer) RequestSummary(ctx context.Context, title, url, itemType string) summarizer.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, summaryCall{Title: title, URL: url, Type: itemType})
	return s.outcome
}

func (s *stubSummarizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubGuard struct {
	acquired     bool
	waitResult   bool
	waitCalls    int
	releaseCalls int
}

func (g *stubGuard) Acquire(ctx context.Context, ownerID int64, url string) (func(), bool) {
	return func() { g.releaseCalls++ }, g.acquired
}

func (g *stubGuard) WaitReleased(ctx context.Context, ownerID int64, url string, maxWait time.Duration) bool {
	g.waitCalls++
	return g.waitResult
}

// =============================================================================
// WIRING
// =============================================================================

type testEnv struct {
	db      *repotest.Store
	sum     *stubSummarizer
	users   *UserService
	items   *ItemService
	follows *FollowService
	feed    *FeedService
	ingest  *IngestService
}

func newTestEnv() *testEnv {
	db := repotest.NewStore()
	sum := &stubSummarizer{outcome: summarizer.Outcome{Status: summarizer.StatusOK, Text: "A summary."}}
	log := logger.NewNop()

	follows := NewFollowService(db.Follows(), db.Users(), log)
	return &testEnv{
		db:      db,
		sum:     sum,
		users:   NewUserService(db.Users(), db.Follows()),
		items:   NewItemService(db.Items(), db.Users(), log),
		follows: follows,
		feed:    NewFeedService(follows, db.Items()),
		ingest:  NewIngestService(db.Items(), sum, nil, time.Second, log),
	}
}

func (e *testEnv) mustRegister(name string) *model.User {
	u, err := e.users.Register(context.Background(), &model.RegisterRequest{Username: name})
	if err != nil {
		panic(err)
	}
	return u
}
