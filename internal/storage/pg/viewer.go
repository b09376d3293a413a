package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/bobaboard/bobaserver/internal/domain"
	internal_errors "github.com/bobaboard/bobaserver/internal/errors"
)

// UserIdByExternalId resolves an auth-provider identity to the internal
// user id. NotFound when no user row exists for the identity yet.
func (s *Storage) UserIdByExternalId(ctx context.Context, externalId string) (domain.UserId, error) {
	var id domain.UserId
	err := s.db.QueryRowContext(ctx, "SELECT id FROM users WHERE external_id = $1", externalId).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, internal_errors.NotFound("User not found")
		}
		return 0, fmt.Errorf("failed to resolve user: %w", err)
	}
	return id, nil
}

// LastVisit returns the viewer's last visit timestamp for one thread, nil
// when the thread was never visited.
func (s *Storage) LastVisit(ctx context.Context, user domain.UserId, thread domain.ThreadId) (*time.Time, error) {
	var visit time.Time
	err := s.db.QueryRowContext(ctx, `
        SELECT last_visit_time FROM user_thread_visits
        WHERE user_id = $1 AND thread_id = $2
    `, user, thread).Scan(&visit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch visit timestamp: %w", err)
	}
	return &visit, nil
}

// LastVisits batches visit lookups for a feed page. Threads the viewer
// never visited are simply absent from the map.
func (s *Storage) LastVisits(ctx context.Context, user domain.UserId, threads []domain.ThreadId) (map[domain.ThreadId]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT thread_id, last_visit_time FROM user_thread_visits
        WHERE user_id = $1 AND thread_id = ANY($2)
    `, user, pq.Array(threads))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch visit timestamps: %w", err)
	}
	defer rows.Close()

	visits := make(map[domain.ThreadId]time.Time, len(threads))
	for rows.Next() {
		var thread domain.ThreadId
		var visit time.Time
		if err := rows.Scan(&thread, &visit); err != nil {
			return nil, fmt.Errorf("failed to scan visit row: %w", err)
		}
		visits[thread] = visit
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return visits, nil
}

// DismissedAt returns the viewer's dismiss-all timestamp, nil when the
// viewer never dismissed notifications.
func (s *Storage) DismissedAt(ctx context.Context, user domain.UserId) (*time.Time, error) {
	var dismissed time.Time
	err := s.db.QueryRowContext(ctx, `
        SELECT dismiss_request_time FROM dismiss_notifications_requests
        WHERE user_id = $1
    `, user).Scan(&dismissed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch dismissal timestamp: %w", err)
	}
	return &dismissed, nil
}
