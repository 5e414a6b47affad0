package activity

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"forumhub-activity-svc/src/internal/models"
	"forumhub-activity-svc/src/internal/requestmeta"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeRepository struct {
	mu      sync.Mutex
	err     error
	entries map[string][]*Entry
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{entries: make(map[string][]*Entry)}
}

func (f *fakeRepository) Append(ctx context.Context, userID string, entry *Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries[userID] = append(f.entries[userID], entry)
	return nil
}

func (f *fakeRepository) GetByUserID(ctx context.Context, userID string) (*Log, error) {
	return nil, models.ErrRecordNotFound
}

func (f *fakeRepository) FindAll(ctx context.Context, userID string) ([]*Log, error) {
	return nil, nil
}

func (f *fakeRepository) Clear(ctx context.Context, userID string) error {
	return nil
}

func (f *fakeRepository) entriesFor(userID string) []*Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Entry(nil), f.entries[userID]...)
}

type fakePublisher struct {
	mu       sync.Mutex
	payloads []models.EventPayload
}

func (f *fakePublisher) Publish(payload models.EventPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
}

func (f *fakePublisher) published() []models.EventPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.EventPayload(nil), f.payloads...)
}

func testRequest() *requestmeta.Request {
	h := http.Header{}
	h.Set("Authorization", "Bearer tok-1")
	h.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0 Safari/537.36")
	h.Set("X-Forwarded-For", "198.51.100.3")
	return &requestmeta.Request{
		Headers:    h,
		Cookies:    map[string]string{},
		RemoteAddr: "10.0.0.5:40000",
		Method:     "POST",
		Path:       "/api/v1/votes",
	}
}

const testUserID = "64f1b2a3c4d5e6f7a8b9c0d1"

func TestRecordAppendsAndPublishes(t *testing.T) {
	repo := newFakeRepository()
	pub := &fakePublisher{}
	rec := NewRecorder(repo, pub, nil)

	rec.Record(context.Background(), testUserID, EventUpvote, "alice upvoted post", testRequest(), nil)

	entries := repo.entriesFor(testUserID)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, EventUpvote, entry.EventType)
	assert.Equal(t, "alice upvoted post", entry.Description)
	assert.Equal(t, "tok-1", entry.SessionID)
	assert.Equal(t, "198.51.100.3", entry.Props["ip_address"])
	assert.Equal(t, "Chrome", entry.Props["browser"])
	assert.Equal(t, "Windows", entry.Props["platform"])
	assert.Equal(t, "Desktop", entry.Props["device"])

	payloads := pub.published()
	require.Len(t, payloads, 1)
	assert.Equal(t, testUserID, payloads[0].UserID)
	assert.Equal(t, EventUpvote, payloads[0].EventType)
	assert.Equal(t, "tok-1", payloads[0].SessionID)
	assert.Equal(t, entry.Props, payloads[0].Props)
	// Same instant on both sides, for correlation.
	assert.Equal(t, entry.CreatedAt.Format(time.RFC3339Nano), payloads[0].OccurredAt)
}

func TestRecordStoreFailureSuppressesPublish(t *testing.T) {
	repo := newFakeRepository()
	repo.err = models.ErrDatabaseUpdate
	pub := &fakePublisher{}
	rec := NewRecorder(repo, pub, nil)

	rec.Record(context.Background(), testUserID, EventLogin, "login", testRequest(), nil)

	assert.Empty(t, repo.entriesFor(testUserID))
	assert.Empty(t, pub.published())
}

func TestRecordNeverPanicsOnNilCollaborators(t *testing.T) {
	repo := newFakeRepository()
	rec := NewRecorder(repo, nil, nil)

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), testUserID, EventLogin, "login", nil, nil)
	})
}

func TestRecordStringifiesProps(t *testing.T) {
	repo := newFakeRepository()
	pub := &fakePublisher{}
	rec := NewRecorder(repo, pub, nil)

	opts := &RecordOptions{
		Props: map[string]interface{}{
			"plain":   "value",
			"number":  42,
			"boolean": true,
			"nothing": nil,
			"object":  map[string]string{"a": "b"},
		},
	}
	rec.Record(context.Background(), testUserID, EventPost, "posted", testRequest(), opts)

	entries := repo.entriesFor(testUserID)
	require.Len(t, entries, 1)
	props := entries[0].Props
	assert.Equal(t, "value", props["plain"])
	assert.Equal(t, "42", props["number"])
	assert.Equal(t, "true", props["boolean"])
	assert.Equal(t, "", props["nothing"])
	assert.Equal(t, `{"a":"b"}`, props["object"])
}

func TestRecordCallerPropsOverrideDerived(t *testing.T) {
	repo := newFakeRepository()
	pub := &fakePublisher{}
	rec := NewRecorder(repo, pub, nil)

	opts := &RecordOptions{
		Props: map[string]interface{}{"geo_location": "51.5,0.1"},
	}
	rec.Record(context.Background(), testUserID, EventLogin, "login", testRequest(), opts)

	entries := repo.entriesFor(testUserID)
	require.Len(t, entries, 1)
	assert.Equal(t, "51.5,0.1", entries[0].Props["geo_location"])
}

func TestRecordEntityReference(t *testing.T) {
	repo := newFakeRepository()
	pub := &fakePublisher{}
	rec := NewRecorder(repo, pub, nil)

	postID := primitive.NewObjectID()
	rec.Record(context.Background(), testUserID, EventUpvote, "upvoted", testRequest(), &RecordOptions{
		EntityType: EntityPost,
		EntityID:   postID.Hex(),
	})

	// Malformed ids are stored as null, never raised.
	rec.Record(context.Background(), testUserID, EventUpvote, "upvoted", testRequest(), &RecordOptions{
		EntityType: EntityPost,
		EntityID:   "not-an-object-id",
	})

	entries := repo.entriesFor(testUserID)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].EntityID)
	assert.Equal(t, postID, *entries[0].EntityID)
	assert.Nil(t, entries[1].EntityID)

	payloads := pub.published()
	require.Len(t, payloads, 2)
	assert.Equal(t, postID.Hex(), payloads[0].EntityID)
}

func TestRecordSessionFallback(t *testing.T) {
	repo := newFakeRepository()
	pub := &fakePublisher{}
	rec := NewRecorder(repo, pub, nil)

	rec.Record(context.Background(), testUserID, EventLogout, "logged out", nil, &RecordOptions{
		SessionID: "session-hint",
	})

	entries := repo.entriesFor(testUserID)
	require.Len(t, entries, 1)
	assert.Equal(t, "session-hint", entries[0].SessionID)
}

func TestConcurrentRecordsAllLand(t *testing.T) {
	repo := newFakeRepository()
	pub := &fakePublisher{}
	rec := NewRecorder(repo, pub, nil)

	const calls = 16
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Record(context.Background(), testUserID, EventUpvote, "alice upvoted post", testRequest(), nil)
		}()
	}
	wg.Wait()

	assert.Len(t, repo.entriesFor(testUserID), calls)
	assert.Len(t, pub.published(), calls)
}
