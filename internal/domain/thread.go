package domain

import "time"

// ThreadSummary is the board/user feed row shape. A full Thread extends it
// with the expanded post list; the feed endpoints return summaries only.
type ThreadSummary struct {
	Id                  ThreadId  `json:"id"`
	ParentBoardSlug     BoardSlug `json:"parent_board_slug"`
	Starter             Post      `json:"starter"`
	DirectThreadsAmount int       `json:"direct_threads_amount"`
	LastActivityAt      time.Time `json:"last_activity_at"`
	NewCommentsAmount   int       `json:"new_comments_amount"`
	NewPostsAmount      int       `json:"new_posts_amount"`
	TotalCommentsAmount int       `json:"total_comments_amount"`
	TotalPostsAmount    int       `json:"total_posts_amount"`
	Muted               bool      `json:"muted"`
	New                 bool      `json:"new"`
	Hidden              bool      `json:"hidden"`
	Starred             bool      `json:"starred"`
	DefaultView         string    `json:"default_view"`
}

type Thread struct {
	ThreadSummary
	Posts []*Post `json:"posts"`
}

// ActivityRowKind discriminates flattened per-thread activity rows.
type ActivityRowKind int

const (
	ActivityPost ActivityRowKind = iota
	ActivityComment
)

// ActivityRow is the flattened (post or comment) row shape the aggregation
// engine classifies for feed items: linkage, author and creation time only.
type ActivityRow struct {
	Kind      ActivityRowKind
	ThreadId  ThreadId
	Id        string
	ParentId  *string
	AuthorId  UserId
	CreatedAt time.Time
}
