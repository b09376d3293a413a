package domain

import "github.com/lib/pq"

type (
	UserId    = int64
	ThreadId  = string
	PostId    = string
	CommentId = string
	BoardSlug = string

	// TagList maps directly onto a Postgres text[] column.
	TagList = pq.StringArray
)
