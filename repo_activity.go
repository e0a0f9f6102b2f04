package accounts

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultActivityPageSize bounds activity listings when no limit is given
const DefaultActivityPageSize = 50

// ActivityLogs is the append-only audit store
type ActivityLogs interface {
	ActivityRecorder
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*ActivityLog, error)
}

type activityLogs struct {
	repository.Repository[*ActivityLog]
	db  *bun.DB
	now func() time.Time
}

var _ ActivityLogs = (*activityLogs)(nil)

// NewActivityLogsRepository returns the bun backed audit store
func NewActivityLogsRepository(db *bun.DB) ActivityLogs {
	repo := repository.NewRepository[*ActivityLog](db, repository.ModelHandlers[*ActivityLog]{
		NewRecord: func() *ActivityLog { return &ActivityLog{} },
		GetID: func(record *ActivityLog) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *ActivityLog, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})

	return &activityLogs{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
}

// Record appends one row inside tx. created_at is always assigned here.
func (r *activityLogs) Record(ctx context.Context, tx bun.IDB, entry ActivityEntry) error {
	userID, err := ParseUserID(entry.UserID)
	if err != nil {
		return err
	}

	if !entry.Kind.Valid() {
		return NewValidationError("unknown activity type", map[string][]string{
			"activity_type": {string(entry.Kind)},
		})
	}

	description := entry.Description
	if description == "" {
		description = entry.Kind.Description()
	}

	if tx == nil {
		tx = r.db
	}

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	record := &ActivityLog{
		ID:           id,
		UserID:       userID,
		ActivityType: entry.Kind,
		Description:  description,
		IPAddress:    optionalString(entry.Client.IP),
		UserAgent:    entry.Client.UserAgent,
		CreatedAt:    r.now().UTC(),
	}

	_, err = r.Repository.CreateTx(ctx, tx, record)
	return err
}

// ListForUser returns the user's entries most recent first
func (r *activityLogs) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*ActivityLog, error) {
	if limit <= 0 {
		limit = DefaultActivityPageSize
	}

	records := make([]*ActivityLog, 0)
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.created_at DESC, ?TableAlias.id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return records, nil
}
