package domain

import "time"

// SecretIdentity is the pseudonymous identity snapshot a post or comment is
// displayed under. It is decoupled from the underlying account: the same user
// keeps one identity per thread, assigned externally.
type SecretIdentity struct {
	Name      string  `json:"name"`
	Avatar    string  `json:"avatar"`
	Accessory *string `json:"accessory"`
	Color     *string `json:"color"`
}

type Tags struct {
	CategoryTags    TagList `json:"category_tags"`
	ContentWarnings TagList `json:"content_warnings"`
	IndexTags       TagList `json:"index_tags"`
	WhisperTags     TagList `json:"whisper_tags"`
}

type Comment struct {
	Id           CommentId `json:"id"`
	ParentPostId PostId    `json:"parent_post_id"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	IsNew        bool      `json:"is_new"`
	AuthorId     UserId    `json:"-"`
}

type Post struct {
	Id             PostId         `json:"id"`
	ParentThreadId ThreadId       `json:"parent_thread_id"`
	ParentPostId   *PostId        `json:"parent_post_id"`
	Content        string         `json:"content"` // opaque rich-text blob, passed through verbatim
	CreatedAt      time.Time      `json:"created_at"`
	SecretIdentity SecretIdentity `json:"secret_identity"`
	Tags           Tags           `json:"tags"`

	// Per-viewer annotations, request-scoped.
	Own    bool `json:"own"`
	Friend bool `json:"friend"`
	New    bool `json:"new"`

	TotalCommentsAmount int `json:"total_comments_amount"`
	NewCommentsAmount   int `json:"new_comments_amount"`

	// Present only when the post is expanded in full.
	Comments []Comment `json:"comments,omitempty"`

	AuthorId UserId `json:"-"`
}
