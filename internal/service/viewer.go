package service

import (
	"context"
	"time"

	"github.com/bobaboard/bobaserver/internal/domain"
)

// ViewerStateStorage supplies the reference timestamps aggregation compares
// against: per-thread visit times and the viewer's dismiss-all instant.
// Absence of a record comes back as nil (never visited / never dismissed).
type ViewerStateStorage interface {
	LastVisit(ctx context.Context, user domain.UserId, thread domain.ThreadId) (*time.Time, error)
	LastVisits(ctx context.Context, user domain.UserId, threads []domain.ThreadId) (map[domain.ThreadId]time.Time, error)
	DismissedAt(ctx context.Context, user domain.UserId) (*time.Time, error)
}
