package api

import (
	"github.com/bobaboard/bobaserver/internal/domain"
)

// Response DTOs

// CursorResponse carries the continuation token for the next page.
// Next is null when the sequence is exhausted.
type CursorResponse struct {
	Next *string `json:"next"`
}

// FeedResponse is the envelope shared by the board and user activity feeds.
type FeedResponse struct {
	Cursor   CursorResponse         `json:"cursor"`
	Activity []domain.ThreadSummary `json:"activity"`
}

// EmptyFeed is what an empty board or user feed serializes to:
// {"cursor":{"next":null},"activity":[]}.
func EmptyFeed() *FeedResponse {
	return &FeedResponse{Activity: []domain.ThreadSummary{}}
}
