package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bobaboard/bobaserver/internal/domain"
	internal_errors "github.com/bobaboard/bobaserver/internal/errors"
)

// GetThread fetches a thread fully expanded: every post in creation order
// with its comments embedded, identity snapshots and tags included.
// Aggregate totals are computed from the fetched rows. Per-viewer new-state
// is left for the aggregation engine; only the muted/hidden/starred joins
// depend on the viewer here.
func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId, viewer *domain.UserId) (domain.Thread, error) {
	var thread domain.Thread
	err := s.db.QueryRowContext(ctx, `
        SELECT
            t.id, t.board_slug, t.default_view,
            mt.user_id IS NOT NULL AS muted,
            ht.user_id IS NOT NULL AS hidden,
            st.user_id IS NOT NULL AS starred
        FROM threads t
        LEFT JOIN user_muted_threads mt ON mt.thread_id = t.id AND mt.user_id = $2
        LEFT JOIN user_hidden_threads ht ON ht.thread_id = t.id AND ht.user_id = $2
        LEFT JOIN user_starred_threads st ON st.thread_id = t.id AND st.user_id = $2
        WHERE t.id = $1
    `, id, nullableUser(viewer)).Scan(
		&thread.Id, &thread.ParentBoardSlug, &thread.DefaultView,
		&thread.Muted, &thread.Hidden, &thread.Starred,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, internal_errors.NotFound("Thread not found")
		}
		return domain.Thread{}, fmt.Errorf("failed to fetch thread: %w", err)
	}

	posts, err := s.threadPosts(ctx, id)
	if err != nil {
		return domain.Thread{}, err
	}
	if err := s.attachComments(ctx, id, posts); err != nil {
		return domain.Thread{}, err
	}

	thread.Posts = posts
	fillThreadAggregates(&thread)
	return thread, nil
}

// MarkThreadVisit upserts the viewer's visit timestamp to now. One row per
// (user, thread) pair; the storage engine's conflict resolution keeps the
// write atomic.
func (s *Storage) MarkThreadVisit(ctx context.Context, viewer domain.UserId, thread domain.ThreadId) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM threads WHERE id = $1)", thread).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check thread existence: %w", err)
	}
	if !exists {
		return internal_errors.NotFound("Thread not found")
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO user_thread_visits (user_id, thread_id, last_visit_time)
        VALUES ($1, $2, NOW())
        ON CONFLICT (user_id, thread_id) DO UPDATE
            SET last_visit_time = NOW()
    `, viewer, thread)
	if err != nil {
		return fmt.Errorf("failed to upsert thread visit: %w", err)
	}
	return nil
}

func (s *Storage) threadPosts(ctx context.Context, id domain.ThreadId) ([]*domain.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT
            p.id, p.thread_id, p.parent_post_id, p.author_id, p.content, p.created_at,
            p.identity_name, p.identity_avatar, p.identity_accessory, p.identity_color,
            p.category_tags, p.content_warnings, p.index_tags, p.whisper_tags
        FROM posts p
        WHERE p.thread_id = $1
        ORDER BY p.created_at
    `, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}
	defer rows.Close()

	var posts []*domain.Post
	for rows.Next() {
		var post domain.Post
		var accessory, color sql.NullString
		if err := rows.Scan(
			&post.Id, &post.ParentThreadId, &post.ParentPostId, &post.AuthorId, &post.Content, &post.CreatedAt,
			&post.SecretIdentity.Name, &post.SecretIdentity.Avatar, &accessory, &color,
			&post.Tags.CategoryTags, &post.Tags.ContentWarnings, &post.Tags.IndexTags, &post.Tags.WhisperTags,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		post.SecretIdentity.Accessory = nullableString(accessory)
		post.SecretIdentity.Color = nullableString(color)
		post.Tags.CategoryTags = emptyIfNil(post.Tags.CategoryTags)
		post.Tags.ContentWarnings = emptyIfNil(post.Tags.ContentWarnings)
		post.Tags.IndexTags = emptyIfNil(post.Tags.IndexTags)
		post.Tags.WhisperTags = emptyIfNil(post.Tags.WhisperTags)
		posts = append(posts, &post)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return posts, nil
}

func (s *Storage) attachComments(ctx context.Context, id domain.ThreadId, posts []*domain.Post) error {
	rows, err := s.db.QueryContext(ctx, `
        SELECT c.id, c.post_id, c.author_id, c.content, c.created_at
        FROM comments c
        JOIN posts p ON c.post_id = p.id
        WHERE p.thread_id = $1
        ORDER BY c.created_at
    `, id)
	if err != nil {
		return fmt.Errorf("failed to fetch comments: %w", err)
	}
	defer rows.Close()

	postIdx := make(map[domain.PostId]*domain.Post, len(posts))
	for _, post := range posts {
		postIdx[post.Id] = post
	}

	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(&comment.Id, &comment.ParentPostId, &comment.AuthorId, &comment.Content, &comment.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan comment: %w", err)
		}
		if post, ok := postIdx[comment.ParentPostId]; ok {
			post.Comments = append(post.Comments, comment)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("rows iteration error: %w", err)
	}
	return nil
}

// fillThreadAggregates derives the summary fields storage does not keep
// denormalized: totals, last activity, the starter snapshot and the number
// of direct replies to it.
func fillThreadAggregates(thread *domain.Thread) {
	totalComments := 0
	for _, post := range thread.Posts {
		totalComments += len(post.Comments)

		if post.ParentPostId == nil {
			thread.Starter = *post
			thread.Starter.Comments = nil
		}
		if post.CreatedAt.After(thread.LastActivityAt) {
			thread.LastActivityAt = post.CreatedAt
		}
		for _, comment := range post.Comments {
			if comment.CreatedAt.After(thread.LastActivityAt) {
				thread.LastActivityAt = comment.CreatedAt
			}
		}
		post.TotalCommentsAmount = len(post.Comments)
	}
	thread.TotalPostsAmount = len(thread.Posts)
	thread.TotalCommentsAmount = totalComments

	for _, post := range thread.Posts {
		if post.ParentPostId != nil && *post.ParentPostId == thread.Starter.Id {
			thread.DirectThreadsAmount++
		}
	}
}
