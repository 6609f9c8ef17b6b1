package housekeeping

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderbot-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
	"github.com/angelmondragon/orderbot-backend/pkg/enums"
	"github.com/angelmondragon/orderbot-backend/pkg/outbox"
)

func TestOutboxRetentionPurgesSettledRows(t *testing.T) {
	client := dbtest.Open(t)
	conn := client.DB()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -40)
	recent := now.AddDate(0, 0, -2)

	oldPublished := seedOutboxRow(t, conn, old, &old, 0)
	recentPublished := seedOutboxRow(t, conn, recent, &recent, 0)
	oldParked := seedOutboxRow(t, conn, old, nil, 5)
	oldPending := seedOutboxRow(t, conn, old, nil, 2)

	job, err := NewOutboxRetentionJob(OutboxRetentionParams{
		Logger:        testLogger(),
		DB:            client,
		Repository:    outbox.NewRepository(conn),
		RetentionDays: 30,
		MaxAttempts:   5,
		Now:           func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var remaining []models.OutboxEvent
	if err := conn.Order("created_at ASC").Find(&remaining).Error; err != nil {
		t.Fatalf("list rows: %v", err)
	}
	kept := map[uuid.UUID]bool{}
	for _, row := range remaining {
		kept[row.ID] = true
	}
	if kept[oldPublished] || kept[oldParked] {
		t.Fatalf("settled rows older than retention must be purged")
	}
	if !kept[recentPublished] || !kept[oldPending] {
		t.Fatalf("recent and still-retryable rows must be kept")
	}
}

func TestOutboxRetentionPropagatesError(t *testing.T) {
	job, err := NewOutboxRetentionJob(OutboxRetentionParams{
		Logger:      testLogger(),
		DB:          passthroughTx{},
		Repository:  failingPurger{},
		MaxAttempts: 3,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewOutboxRetentionJobValidates(t *testing.T) {
	_, err := NewOutboxRetentionJob(OutboxRetentionParams{
		Logger:     testLogger(),
		DB:         passthroughTx{},
		Repository: failingPurger{},
	})
	if err == nil {
		t.Fatalf("expected error without max attempts")
	}
}

func seedOutboxRow(t *testing.T, conn *gorm.DB, createdAt time.Time, publishedAt *time.Time, attempts int) uuid.UUID {
	t.Helper()
	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   1,
		Payload:       json.RawMessage(`{}`),
		CreatedAt:     createdAt,
		PublishedAt:   publishedAt,
		AttemptCount:  attempts,
	}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed outbox row: %v", err)
	}
	return row.ID
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type failingPurger struct{}

func (failingPurger) DeleteSettledBefore(*gorm.DB, time.Time, int) (int64, error) {
	return 0, errors.New("boom")
}
