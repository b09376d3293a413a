package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bobaboard/bobaserver/internal/activity"
	"github.com/bobaboard/bobaserver/internal/api"
	"github.com/bobaboard/bobaserver/internal/config"
	"github.com/bobaboard/bobaserver/internal/domain"
	"github.com/bobaboard/bobaserver/internal/logger"
	"github.com/bobaboard/bobaserver/internal/pagination"
)

// to mock service in tests
type FeedService interface {
	BoardFeed(ctx context.Context, slug domain.BoardSlug, viewer *domain.UserId, opts FeedOptions) (*api.FeedResponse, error)
	UserFeed(ctx context.Context, viewer domain.UserId, opts FeedOptions) (*api.FeedResponse, error)
}

// FeedOptions carries the client's pagination and filtering inputs.
// Cursor is the raw token as received; a malformed token is treated as
// absent and pagination restarts.
type FeedOptions struct {
	Cursor      string
	PageSize    int // 0 means default
	UpdatedOnly bool
	OwnOnly     bool
}

// FeedStorage returns feed rows pre-sorted by last_activity_at descending.
// Callers pass limit = page size + 1; the extra row is the look-ahead that
// signals another page exists. before, when set, is an exclusive upper
// bound on last_activity_at. The viewer is only used for per-viewer join
// columns (muted/hidden/starred) and filter predicates, never for counts.
type FeedStorage interface {
	BoardActivity(ctx context.Context, slug domain.BoardSlug, viewer *domain.UserId, before *time.Time, limit int) ([]domain.ThreadSummary, error)
	UserActivity(ctx context.Context, viewer domain.UserId, updatedOnly, ownOnly bool, before *time.Time, limit int) ([]domain.ThreadSummary, error)
	ThreadActivityRows(ctx context.Context, threads []domain.ThreadId) (map[domain.ThreadId][]domain.ActivityRow, error)
}

type Feed struct {
	storage FeedStorage
	visits  ViewerStateStorage
	cfg     *config.Public
}

func NewFeed(storage FeedStorage, visits ViewerStateStorage, cfg *config.Public) FeedService {
	return &Feed{storage: storage, visits: visits, cfg: cfg}
}

// BoardFeed returns one page of a board's threads ordered by last activity,
// annotated for the viewer.
func (s *Feed) BoardFeed(ctx context.Context, slug domain.BoardSlug, viewer *domain.UserId, opts FeedOptions) (*api.FeedResponse, error) {
	cursor := s.decodeCursor(opts.Cursor)
	pageSize := s.resolvePageSize(cursor, opts.PageSize)

	rows, err := s.storage.BoardActivity(ctx, slug, viewer, cursorBound(cursor), pageSize+1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board activity: %w", err)
	}

	return s.assemble(ctx, rows, viewer, pageSize)
}

// UserFeed returns one page of the viewer's activity across all boards.
func (s *Feed) UserFeed(ctx context.Context, viewer domain.UserId, opts FeedOptions) (*api.FeedResponse, error) {
	cursor := s.decodeCursor(opts.Cursor)
	pageSize := s.resolvePageSize(cursor, opts.PageSize)

	rows, err := s.storage.UserActivity(ctx, viewer, opts.UpdatedOnly, opts.OwnOnly, cursorBound(cursor), pageSize+1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user activity: %w", err)
	}

	return s.assemble(ctx, rows, &viewer, pageSize)
}

// assemble applies the look-ahead pagination rule: storage fetched
// pageSize+1 rows; an extra row means another page exists, and the next
// cursor is computed from the last *retained* row before the extra one is
// dropped.
func (s *Feed) assemble(ctx context.Context, rows []domain.ThreadSummary, viewer *domain.UserId, pageSize int) (*api.FeedResponse, error) {
	// A single row with a null thread id is the storage sentinel for
	// "board exists but has no activity".
	if len(rows) == 0 || (len(rows) == 1 && rows[0].Id == "") {
		return api.EmptyFeed(), nil
	}

	var next *string
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		token, err := pagination.Encode(pagination.Cursor{
			LastActivityCursor: rows[len(rows)-1].LastActivityAt,
			PageSize:           pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode next cursor: %w", err)
		}
		next = &token
	}

	if err := s.annotate(ctx, rows, viewer); err != nil {
		return nil, err
	}

	return &api.FeedResponse{Cursor: api.CursorResponse{Next: next}, Activity: rows}, nil
}

// annotate runs the aggregation engine over every retained row. Anonymous
// viewers skip the whole pass: storage returns rows with zeroed new-state.
func (s *Feed) annotate(ctx context.Context, rows []domain.ThreadSummary, viewer *domain.UserId) error {
	if viewer == nil {
		return nil
	}

	threadIds := make([]domain.ThreadId, len(rows))
	for i, row := range rows {
		threadIds[i] = row.Id
	}

	activityRows, err := s.storage.ThreadActivityRows(ctx, threadIds)
	if err != nil {
		return fmt.Errorf("failed to fetch thread activity rows: %w", err)
	}
	lastVisits, err := s.visits.LastVisits(ctx, *viewer, threadIds)
	if err != nil {
		return fmt.Errorf("failed to fetch visit timestamps: %w", err)
	}
	dismissedAt, err := s.visits.DismissedAt(ctx, *viewer)
	if err != nil {
		return fmt.Errorf("failed to fetch dismissal timestamp: %w", err)
	}

	for i := range rows {
		vc := activity.ViewerContext{UserId: viewer, DismissedAt: dismissedAt}
		if visit, ok := lastVisits[rows[i].Id]; ok {
			vc.LastVisit = &visit
		}
		activity.AnnotateSummary(&rows[i], activityRows[rows[i].Id], vc)
	}
	return nil
}

// decodeCursor demotes malformed tokens to "no cursor".
func (s *Feed) decodeCursor(token string) *pagination.Cursor {
	if token == "" {
		return nil
	}
	cursor, err := pagination.Decode(token)
	if err != nil {
		logger.Log.Warn("malformed feed cursor, restarting pagination", "error", err)
		return nil
	}
	return &cursor
}

// resolvePageSize: a cursor's embedded page size is authoritative for the
// rest of its sequence; an explicit request applies to fresh sequences only.
func (s *Feed) resolvePageSize(cursor *pagination.Cursor, requested int) int {
	size := 0
	switch {
	case cursor != nil && cursor.PageSize > 0:
		size = cursor.PageSize
	case requested > 0:
		size = requested
	default:
		size = s.cfg.DefaultFeedPageSize
	}
	return min(size, s.cfg.MaxFeedPageSize)
}

func cursorBound(cursor *pagination.Cursor) *time.Time {
	if cursor == nil {
		return nil
	}
	return &cursor.LastActivityCursor
}
