// Package storage keeps submitted cases and the model replies they produced.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Skufu/vetddx/internal/model"
)

var ErrNotFound = errors.New("case not found")

const DefaultListLimit = 50

type Store interface {
	// Save assigns an ID and timestamp when missing and stores the record.
	Save(ctx context.Context, rec *model.CaseRecord) error
	Get(ctx context.Context, id string) (model.CaseRecord, error)
	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]model.CaseRecord, error)
	Ping(ctx context.Context) error
}

func prepare(rec *model.CaseRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Replies == nil {
		rec.Replies = []model.ModelReply{}
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
