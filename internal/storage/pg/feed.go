package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/bobaboard/bobaserver/internal/domain"
	internal_errors "github.com/bobaboard/bobaserver/internal/errors"
)

// feedRowColumns is the row shape shared by the board and user feed
// queries: thread metadata, aggregate totals, the starter post with its
// identity snapshot and tags, and the viewer's muted/hidden/starred joins.
const feedRowColumns = `
    t.id,
    t.board_slug,
    t.default_view,
    agg.last_activity_at,
    agg.total_posts,
    agg.total_comments,
    agg.direct_threads,
    sp.id, sp.parent_post_id, sp.author_id, sp.content, sp.created_at,
    sp.identity_name, sp.identity_avatar, sp.identity_accessory, sp.identity_color,
    sp.category_tags, sp.content_warnings, sp.index_tags, sp.whisper_tags,
    mt.user_id IS NOT NULL AS muted,
    ht.user_id IS NOT NULL AS hidden,
    st.user_id IS NOT NULL AS starred`

// starterJoin picks the thread's root post; aggJoin computes totals and the
// thread's last activity from posts and their comments.
const feedJoins = `
LEFT JOIN LATERAL (
    SELECT p.id, p.parent_post_id, p.author_id, p.content, p.created_at,
           p.identity_name, p.identity_avatar, p.identity_accessory, p.identity_color,
           p.category_tags, p.content_warnings, p.index_tags, p.whisper_tags
    FROM posts p
    WHERE p.thread_id = t.id AND p.parent_post_id IS NULL
    ORDER BY p.created_at
    LIMIT 1
) sp ON TRUE
LEFT JOIN LATERAL (
    SELECT
        COUNT(*) AS total_posts,
        COUNT(*) FILTER (WHERE p.parent_post_id = sp.id) AS direct_threads,
        COALESCE(SUM(c.comment_count), 0) AS total_comments,
        GREATEST(MAX(p.created_at), MAX(c.last_comment)) AS last_activity_at
    FROM posts p
    LEFT JOIN LATERAL (
        SELECT COUNT(*) AS comment_count, MAX(created_at) AS last_comment
        FROM comments
        WHERE post_id = p.id
    ) c ON TRUE
    WHERE p.thread_id = t.id
) agg ON TRUE
LEFT JOIN user_muted_threads mt ON mt.thread_id = t.id AND mt.user_id = $2
LEFT JOIN user_hidden_threads ht ON ht.thread_id = t.id AND ht.user_id = $2
LEFT JOIN user_starred_threads st ON st.thread_id = t.id AND st.user_id = $2`

// BoardActivity returns the board's feed rows ordered by last activity
// descending, at most limit of them. A board with no threads yields one
// sentinel row with an empty thread id; a missing board is NotFound.
func (s *Storage) BoardActivity(ctx context.Context, slug domain.BoardSlug, viewer *domain.UserId, before *time.Time, limit int) ([]domain.ThreadSummary, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM boards WHERE slug = $1)", slug).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check board existence: %w", err)
	}
	if !exists {
		return nil, internal_errors.NotFound("Board not found")
	}

	query := `
SELECT` + feedRowColumns + `
FROM boards b
LEFT JOIN threads t ON t.board_slug = b.slug` + feedJoins + `
WHERE b.slug = $1
  AND ($3::timestamptz IS NULL OR t.id IS NULL OR agg.last_activity_at < $3)
ORDER BY agg.last_activity_at DESC NULLS LAST
LIMIT $4`

	rows, err := s.db.QueryContext(ctx, query, slug, nullableUser(viewer), nullableTime(before), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board activity: %w", err)
	}
	defer rows.Close()

	return scanFeedRows(rows)
}

// UserActivity returns threads the viewer participated in, across all
// boards, ordered by last activity descending. ownOnly keeps only threads
// the viewer started; updatedOnly keeps only threads with activity after
// the viewer's reference timestamps (visit or dismissal).
func (s *Storage) UserActivity(ctx context.Context, viewer domain.UserId, updatedOnly, ownOnly bool, before *time.Time, limit int) ([]domain.ThreadSummary, error) {
	query := `
SELECT` + feedRowColumns + `
FROM threads t` + feedJoins + `
LEFT JOIN user_thread_visits v ON v.thread_id = t.id AND v.user_id = $2
LEFT JOIN dismiss_notifications_requests d ON d.user_id = $2
WHERE (
    EXISTS (SELECT 1 FROM posts p WHERE p.thread_id = t.id AND p.author_id = $2)
    OR EXISTS (SELECT 1 FROM comments c JOIN posts p ON c.post_id = p.id WHERE p.thread_id = t.id AND c.author_id = $2)
  )
  AND ($1::boolean = FALSE OR sp.author_id = $2)
  AND ($5::boolean = FALSE OR agg.last_activity_at > GREATEST(
        COALESCE(v.last_visit_time, '-infinity'),
        COALESCE(d.dismiss_request_time, '-infinity')))
  AND ($3::timestamptz IS NULL OR agg.last_activity_at < $3)
ORDER BY agg.last_activity_at DESC
LIMIT $4`

	rows, err := s.db.QueryContext(ctx, query, ownOnly, nullableUser(&viewer), nullableTime(before), limit, updatedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user activity: %w", err)
	}
	defer rows.Close()

	return scanFeedRows(rows)
}

// ThreadActivityRows fetches the flattened post/comment rows the
// aggregation engine classifies, for a batch of threads.
func (s *Storage) ThreadActivityRows(ctx context.Context, threads []domain.ThreadId) (map[domain.ThreadId][]domain.ActivityRow, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT p.thread_id, 'post', p.id, p.parent_post_id, p.author_id, p.created_at
FROM posts p
WHERE p.thread_id = ANY($1)
UNION ALL
SELECT p.thread_id, 'comment', c.id, c.post_id, c.author_id, c.created_at
FROM comments c
JOIN posts p ON c.post_id = p.id
WHERE p.thread_id = ANY($1)
`, pq.Array(threads))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activity rows: %w", err)
	}
	defer rows.Close()

	result := make(map[domain.ThreadId][]domain.ActivityRow, len(threads))
	for rows.Next() {
		var row domain.ActivityRow
		var kind string
		if err := rows.Scan(&row.ThreadId, &kind, &row.Id, &row.ParentId, &row.AuthorId, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		if kind == "comment" {
			row.Kind = domain.ActivityComment
		}
		result[row.ThreadId] = append(result[row.ThreadId], row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return result, nil
}

func scanFeedRows(rows *sql.Rows) ([]domain.ThreadSummary, error) {
	var summaries []domain.ThreadSummary
	for rows.Next() {
		var (
			threadId       sql.NullString
			boardSlug      sql.NullString
			defaultView    sql.NullString
			lastActivityAt sql.NullTime
			totalPosts     sql.NullInt64
			totalComments  sql.NullInt64
			directThreads  sql.NullInt64
			starterId      sql.NullString
			parentPostId   sql.NullString
			authorId       sql.NullInt64
			content        sql.NullString
			createdAt      sql.NullTime
			identName      sql.NullString
			identAvatar    sql.NullString
			identAccessory sql.NullString
			identColor     sql.NullString
			categoryTags   domain.TagList
			warningTags    domain.TagList
			indexTags      domain.TagList
			whisperTags    domain.TagList
			muted          bool
			hidden         bool
			starred        bool
		)
		err := rows.Scan(
			&threadId, &boardSlug, &defaultView, &lastActivityAt,
			&totalPosts, &totalComments, &directThreads,
			&starterId, &parentPostId, &authorId, &content, &createdAt,
			&identName, &identAvatar, &identAccessory, &identColor,
			&categoryTags, &warningTags, &indexTags, &whisperTags,
			&muted, &hidden, &starred,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}

		summary := domain.ThreadSummary{
			Id:                  threadId.String,
			ParentBoardSlug:     boardSlug.String,
			DefaultView:         defaultView.String,
			LastActivityAt:      lastActivityAt.Time,
			TotalPostsAmount:    int(totalPosts.Int64),
			TotalCommentsAmount: int(totalComments.Int64),
			DirectThreadsAmount: int(directThreads.Int64),
			Muted:               muted,
			Hidden:              hidden,
			Starred:             starred,
		}
		if starterId.Valid {
			summary.Starter = domain.Post{
				Id:             starterId.String,
				ParentThreadId: threadId.String,
				AuthorId:       authorId.Int64,
				Content:        content.String,
				CreatedAt:      createdAt.Time,
				SecretIdentity: domain.SecretIdentity{
					Name:      identName.String,
					Avatar:    identAvatar.String,
					Accessory: nullableString(identAccessory),
					Color:     nullableString(identColor),
				},
				Tags: domain.Tags{
					CategoryTags:    emptyIfNil(categoryTags),
					ContentWarnings: emptyIfNil(warningTags),
					IndexTags:       emptyIfNil(indexTags),
					WhisperTags:     emptyIfNil(whisperTags),
				},
			}
			if parentPostId.Valid {
				parent := parentPostId.String
				summary.Starter.ParentPostId = &parent
			}
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return summaries, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func emptyIfNil(tags domain.TagList) domain.TagList {
	if tags == nil {
		return domain.TagList{}
	}
	return tags
}
