package service

import (
	"context"
	"fmt"

	"github.com/bobaboard/bobaserver/internal/activity"
	"github.com/bobaboard/bobaserver/internal/api"
	"github.com/bobaboard/bobaserver/internal/domain"
)

// to mock service in tests
type ThreadService interface {
	Get(ctx context.Context, thread domain.ThreadId, viewer *domain.UserId) (*api.ThreadResponse, error)
	MarkVisit(ctx context.Context, thread domain.ThreadId, viewer domain.UserId) error
}

// ThreadStorage fetches a full thread (posts with embedded comments,
// identity snapshots, tags, aggregate totals) without per-viewer state.
// GetThread returns NotFound when the thread does not exist; no partial
// results.
type ThreadStorage interface {
	GetThread(ctx context.Context, id domain.ThreadId, viewer *domain.UserId) (domain.Thread, error)
	MarkThreadVisit(ctx context.Context, viewer domain.UserId, thread domain.ThreadId) error
}

type Thread struct {
	storage ThreadStorage
	visits  ViewerStateStorage
}

func NewThread(storage ThreadStorage, visits ViewerStateStorage) ThreadService {
	return &Thread{storage: storage, visits: visits}
}

// Get returns the thread with every per-viewer annotation applied.
func (s *Thread) Get(ctx context.Context, threadId domain.ThreadId, viewer *domain.UserId) (*api.ThreadResponse, error) {
	thread, err := s.storage.GetThread(ctx, threadId, viewer)
	if err != nil {
		return nil, err
	}

	vc, err := s.viewerContext(ctx, threadId, viewer)
	if err != nil {
		return nil, err
	}
	activity.AnnotateThread(&thread, vc)

	return &api.ThreadResponse{Thread: thread}, nil
}

// MarkVisit upserts the viewer's visit timestamp for the thread, resetting
// its new-state baseline to now.
func (s *Thread) MarkVisit(ctx context.Context, threadId domain.ThreadId, viewer domain.UserId) error {
	if err := s.storage.MarkThreadVisit(ctx, viewer, threadId); err != nil {
		return fmt.Errorf("failed to mark thread visit: %w", err)
	}
	return nil
}

func (s *Thread) viewerContext(ctx context.Context, threadId domain.ThreadId, viewer *domain.UserId) (activity.ViewerContext, error) {
	if viewer == nil {
		return activity.Anonymous(), nil
	}

	lastVisit, err := s.visits.LastVisit(ctx, *viewer, threadId)
	if err != nil {
		return activity.ViewerContext{}, fmt.Errorf("failed to fetch visit timestamp: %w", err)
	}
	dismissedAt, err := s.visits.DismissedAt(ctx, *viewer)
	if err != nil {
		return activity.ViewerContext{}, fmt.Errorf("failed to fetch dismissal timestamp: %w", err)
	}

	return activity.ViewerContext{UserId: viewer, LastVisit: lastVisit, DismissedAt: dismissedAt}, nil
}
