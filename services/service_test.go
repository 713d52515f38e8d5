package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mkucukkoc/fitcal-backend/config"
	"github.com/mkucukkoc/fitcal-backend/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an in-memory sqlite database scoped to the test. Shared cache
// keeps all connections of one test on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := config.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func newTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Email:         fmt.Sprintf("%s@example.com", strings.ToLower(strings.ReplaceAll(t.Name(), "/", "-"))),
		Password:      "hashed",
		FullName:      "Test User",
		Gender:        "male",
		HeightCm:      170,
		WeightKg:      70,
		Birthday:      time.Now().AddDate(-30, 0, 0),
		Goal:          "maintain",
		ActivityLevel: "moderate",
		Locale:        "tr",
		Timezone:      "UTC",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// fakeModel is a scripted ChatModel: fixed blocking reply, fixed stream deltas
// with an optional terminal error, fixed digest.
type fakeModel struct {
	mu sync.Mutex

	completeReply string
	completeErr   error
	streamDeltas  []string
	streamErr     error
	summary       string

	completeCalls  int
	streamCalls    int
	summarizeCalls int
}

func (f *fakeModel) CompleteChat(ctx context.Context, chatContext string, history []ChatTurn, image *InlineImage) (string, error) {
	f.mu.Lock()
	f.completeCalls++
	f.mu.Unlock()
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.completeReply, nil
}

func (f *fakeModel) StreamChat(ctx context.Context, chatContext string, history []ChatTurn, image *InlineImage, onDelta func(string)) (string, error) {
	f.mu.Lock()
	f.streamCalls++
	f.mu.Unlock()
	var b strings.Builder
	for _, d := range f.streamDeltas {
		b.WriteString(d)
		if onDelta != nil {
			onDelta(d)
		}
	}
	return b.String(), f.streamErr
}

func (f *fakeModel) Summarize(ctx context.Context, conversation string) string {
	f.mu.Lock()
	f.summarizeCalls++
	f.mu.Unlock()
	return f.summary
}

type sinkEvent struct {
	userID  uint
	event   string
	payload map[string]any
}

// fakeSink records every pushed chunk in order.
type fakeSink struct {
	mu     sync.Mutex
	events []sinkEvent
}

func (f *fakeSink) SendToUser(userID uint, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, _ := payload.(map[string]any)
	f.events = append(f.events, sinkEvent{userID: userID, event: event, payload: m})
}

func (f *fakeSink) all() []sinkEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sinkEvent, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeSink) last(t *testing.T) sinkEvent {
	t.Helper()
	events := f.all()
	if len(events) == 0 {
		t.Fatal("sink received no events")
	}
	return events[len(events)-1]
}
