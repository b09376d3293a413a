// Package activity computes per-viewer new/seen annotations for threads,
// posts and comments. The engine is a pure function of the rows it is given
// and a ViewerContext: it never reaches storage and never persists state.
package activity

import (
	"time"

	"github.com/bobaboard/bobaserver/internal/domain"
)

// ViewerContext carries the reference timestamps aggregation compares
// against. It is assembled once per request (per thread for LastVisit)
// and passed into every engine call.
type ViewerContext struct {
	UserId      *domain.UserId // nil means anonymous
	LastVisit   *time.Time     // nil means the viewer never visited the thread
	DismissedAt *time.Time     // nil means the viewer never dismissed notifications
}

// Anonymous is the context of a logged-out viewer: nothing is ever new.
func Anonymous() ViewerContext {
	return ViewerContext{}
}

func (vc ViewerContext) LoggedIn() bool {
	return vc.UserId != nil
}

// Reference returns the "seen up to" instant: the later of the thread visit
// and the dismiss-all timestamp. The dismissal participates in per-item
// flags as well as aggregate counts (see DESIGN.md). Zero time when neither
// record exists, so every row counts as new for a logged-in viewer.
func (vc ViewerContext) Reference() time.Time {
	var ref time.Time
	if vc.LastVisit != nil {
		ref = *vc.LastVisit
	}
	if vc.DismissedAt != nil && vc.DismissedAt.After(ref) {
		ref = *vc.DismissedAt
	}
	return ref
}

// IsNew reports whether content created at createdAt by author counts as new
// activity for the viewer. Self-authored content is never new; content
// created at or before the reference instant is already seen.
func (vc ViewerContext) IsNew(createdAt time.Time, author domain.UserId) bool {
	if vc.UserId == nil {
		return false
	}
	if author == *vc.UserId {
		return false
	}
	return createdAt.After(vc.Reference())
}

// AnnotateThread fills every per-viewer field of a fully expanded thread:
// post New/Own flags, comment IsNew flags, per-post and thread-level new
// counts. A thread is new when its starter post is new for the viewer.
func AnnotateThread(t *domain.Thread, vc ViewerContext) {
	var newPosts, newComments int
	for _, post := range t.Posts {
		annotatePost(post, vc)
		if post.New {
			newPosts++
		}
		newComments += post.NewCommentsAmount
	}
	t.NewPostsAmount = newPosts
	t.NewCommentsAmount = newComments

	annotateStarter(&t.Starter, vc)
	t.New = t.Starter.New
}

func annotatePost(post *domain.Post, vc ViewerContext) {
	post.Own = vc.LoggedIn() && post.AuthorId == *vc.UserId
	post.New = vc.IsNew(post.CreatedAt, post.AuthorId)

	newComments := 0
	for i := range post.Comments {
		comment := &post.Comments[i]
		comment.IsNew = vc.IsNew(comment.CreatedAt, comment.AuthorId)
		if comment.IsNew {
			newComments++
		}
	}
	post.NewCommentsAmount = newComments
}

func annotateStarter(starter *domain.Post, vc ViewerContext) {
	starter.Own = vc.LoggedIn() && starter.AuthorId == *vc.UserId
	starter.New = vc.IsNew(starter.CreatedAt, starter.AuthorId)
}

// Summarize classifies a thread's flattened activity rows and returns the
// aggregate new-post and new-comment counts for the viewer. Feed items are
// annotated from these rows without expanding the full thread.
func Summarize(rows []domain.ActivityRow, vc ViewerContext) (newPosts, newComments int) {
	if !vc.LoggedIn() {
		return 0, 0
	}
	for _, row := range rows {
		if !vc.IsNew(row.CreatedAt, row.AuthorId) {
			continue
		}
		switch row.Kind {
		case domain.ActivityPost:
			newPosts++
		case domain.ActivityComment:
			newComments++
		}
	}
	return newPosts, newComments
}

// AnnotateSummary applies the viewer's annotations to one feed row. The
// summary's own counts come from the thread's flattened activity rows; the
// starter is flagged like any other post.
func AnnotateSummary(s *domain.ThreadSummary, rows []domain.ActivityRow, vc ViewerContext) {
	s.NewPostsAmount, s.NewCommentsAmount = Summarize(rows, vc)
	annotateStarter(&s.Starter, vc)
	s.New = s.Starter.New
}
