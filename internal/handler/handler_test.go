package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobaboard/bobaserver/internal/api"
	"github.com/bobaboard/bobaserver/internal/config"
	"github.com/bobaboard/bobaserver/internal/domain"
	internal_errors "github.com/bobaboard/bobaserver/internal/errors"
	mw "github.com/bobaboard/bobaserver/internal/middleware"
	"github.com/bobaboard/bobaserver/internal/service"
)

// --- Mocks ---

// MockFeedService mocks the FeedService interface.
type MockFeedService struct {
	boardFeedFunc func(slug domain.BoardSlug, viewer *domain.UserId, opts service.FeedOptions) (*api.FeedResponse, error)
	userFeedFunc  func(viewer domain.UserId, opts service.FeedOptions) (*api.FeedResponse, error)
}

func (m *MockFeedService) BoardFeed(_ context.Context, slug domain.BoardSlug, viewer *domain.UserId, opts service.FeedOptions) (*api.FeedResponse, error) {
	if m.boardFeedFunc != nil {
		return m.boardFeedFunc(slug, viewer, opts)
	}
	return api.EmptyFeed(), nil
}

func (m *MockFeedService) UserFeed(_ context.Context, viewer domain.UserId, opts service.FeedOptions) (*api.FeedResponse, error) {
	if m.userFeedFunc != nil {
		return m.userFeedFunc(viewer, opts)
	}
	return api.EmptyFeed(), nil
}

// MockThreadService mocks the ThreadService interface.
type MockThreadService struct {
	getFunc       func(thread domain.ThreadId, viewer *domain.UserId) (*api.ThreadResponse, error)
	markVisitFunc func(thread domain.ThreadId, viewer domain.UserId) error
}

func (m *MockThreadService) Get(_ context.Context, thread domain.ThreadId, viewer *domain.UserId) (*api.ThreadResponse, error) {
	if m.getFunc != nil {
		return m.getFunc(thread, viewer)
	}
	return &api.ThreadResponse{}, nil
}

func (m *MockThreadService) MarkVisit(_ context.Context, thread domain.ThreadId, viewer domain.UserId) error {
	if m.markVisitFunc != nil {
		return m.markVisitFunc(thread, viewer)
	}
	return nil
}

// MockUserService mocks the UserService interface.
type MockUserService struct {
	getFunc                  func(user domain.UserId) (*api.UserResponse, error)
	updateFunc               func(user domain.UserId, username, avatarUrl string) (*api.UserResponse, error)
	dismissNotificationsFunc func(user domain.UserId) error
	bobadexFunc              func(user domain.UserId) (*api.BobadexResponse, error)
	inviteDetailsFunc        func(nonce string) (*api.InviteResponse, error)
	acceptInviteFunc         func(nonce, externalId string) error
}

func (m *MockUserService) Get(_ context.Context, user domain.UserId) (*api.UserResponse, error) {
	if m.getFunc != nil {
		return m.getFunc(user)
	}
	return &api.UserResponse{}, nil
}

func (m *MockUserService) Update(_ context.Context, user domain.UserId, username, avatarUrl string) (*api.UserResponse, error) {
	if m.updateFunc != nil {
		return m.updateFunc(user, username, avatarUrl)
	}
	return &api.UserResponse{Username: username, AvatarUrl: avatarUrl}, nil
}

func (m *MockUserService) DismissNotifications(_ context.Context, user domain.UserId) error {
	if m.dismissNotificationsFunc != nil {
		return m.dismissNotificationsFunc(user)
	}
	return nil
}

func (m *MockUserService) Bobadex(_ context.Context, user domain.UserId) (*api.BobadexResponse, error) {
	if m.bobadexFunc != nil {
		return m.bobadexFunc(user)
	}
	return &api.BobadexResponse{Identities: []domain.BobadexIdentity{}}, nil
}

func (m *MockUserService) InviteDetails(_ context.Context, nonce string) (*api.InviteResponse, error) {
	if m.inviteDetailsFunc != nil {
		return m.inviteDetailsFunc(nonce)
	}
	return &api.InviteResponse{}, nil
}

func (m *MockUserService) AcceptInvite(_ context.Context, nonce, externalId string) error {
	if m.acceptInviteFunc != nil {
		return m.acceptInviteFunc(nonce, externalId)
	}
	return nil
}

// --- Helpers ---

// newTestRouter mirrors the route layout without the auth middleware; tests
// inject the viewer straight into the request context.
func newTestRouter(feed *MockFeedService, thread *MockThreadService, user *MockUserService) chi.Router {
	h := New(feed, thread, user, &config.Config{})

	r := chi.NewRouter()
	r.Get("/boards/{board}/activity/latest", h.GetBoardActivity)
	r.Get("/threads/{thread}", h.GetThread)
	r.Post("/threads/{thread}/visits", h.VisitThread)
	r.Get("/users/@me", h.GetMe)
	r.Patch("/users/@me", h.UpdateMe)
	r.Get("/users/@me/feed", h.GetUserFeed)
	r.Get("/users/@me/bobadex", h.GetBobadex)
	r.Post("/users/@me/notifications/dismiss", h.DismissNotifications)
	r.Get("/invites/{nonce}", h.GetInviteDetails)
	r.Post("/invites/{nonce}", h.AcceptInvite)
	return r
}

func withViewer(r *http.Request, viewer *mw.Viewer) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), mw.ViewerKey, viewer))
}

func loggedInViewer(id domain.UserId) *mw.Viewer {
	return &mw.Viewer{ExternalId: "ext-1", UserId: &id}
}

// --- Tests ---

func TestGetBoardActivity(t *testing.T) {
	t.Run("Empty feed envelope", func(t *testing.T) {
		router := newTestRouter(&MockFeedService{}, &MockThreadService{}, &MockUserService{})

		req := httptest.NewRequest(http.MethodGet, "/boards/gore/activity/latest", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"cursor":{"next":null},"activity":[]}`, rr.Body.String())
	})

	t.Run("Slug and query options are forwarded", func(t *testing.T) {
		feed := &MockFeedService{}
		router := newTestRouter(feed, &MockThreadService{}, &MockUserService{})
		called := false

		feed.boardFeedFunc = func(slug domain.BoardSlug, viewer *domain.UserId, opts service.FeedOptions) (*api.FeedResponse, error) {
			called = true
			assert.Equal(t, domain.BoardSlug("gore"), slug)
			assert.Nil(t, viewer)
			assert.Equal(t, "abc", opts.Cursor)
			assert.Equal(t, 7, opts.PageSize)
			return api.EmptyFeed(), nil
		}

		req := httptest.NewRequest(http.MethodGet, "/boards/gore/activity/latest?cursor=abc&page_size=7", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, called)
	})

	t.Run("Viewer id is passed through when authenticated", func(t *testing.T) {
		feed := &MockFeedService{}
		router := newTestRouter(feed, &MockThreadService{}, &MockUserService{})

		feed.boardFeedFunc = func(slug domain.BoardSlug, viewer *domain.UserId, opts service.FeedOptions) (*api.FeedResponse, error) {
			require.NotNil(t, viewer)
			assert.Equal(t, domain.UserId(7), *viewer)
			return api.EmptyFeed(), nil
		}

		req := withViewer(httptest.NewRequest(http.MethodGet, "/boards/gore/activity/latest", nil), loggedInViewer(7))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Invalid page_size is a 400", func(t *testing.T) {
		router := newTestRouter(&MockFeedService{}, &MockThreadService{}, &MockUserService{})

		for _, raw := range []string{"abc", "0", "-5"} {
			req := httptest.NewRequest(http.MethodGet, "/boards/gore/activity/latest?page_size="+raw, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code, "page_size=%s", raw)
		}
	})

	t.Run("Missing board is a 404", func(t *testing.T) {
		feed := &MockFeedService{}
		router := newTestRouter(feed, &MockThreadService{}, &MockUserService{})

		feed.boardFeedFunc = func(slug domain.BoardSlug, viewer *domain.UserId, opts service.FeedOptions) (*api.FeedResponse, error) {
			return nil, internal_errors.NotFound("Board not found")
		}

		req := httptest.NewRequest(http.MethodGet, "/boards/nope/activity/latest", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestGetUserFeed(t *testing.T) {
	t.Run("Anonymous is a 401", func(t *testing.T) {
		router := newTestRouter(&MockFeedService{}, &MockThreadService{}, &MockUserService{})

		req := httptest.NewRequest(http.MethodGet, "/users/@me/feed", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Filter flags are forwarded", func(t *testing.T) {
		feed := &MockFeedService{}
		router := newTestRouter(feed, &MockThreadService{}, &MockUserService{})

		feed.userFeedFunc = func(viewer domain.UserId, opts service.FeedOptions) (*api.FeedResponse, error) {
			assert.Equal(t, domain.UserId(7), viewer)
			assert.True(t, opts.UpdatedOnly)
			assert.True(t, opts.OwnOnly)
			return api.EmptyFeed(), nil
		}

		req := withViewer(httptest.NewRequest(http.MethodGet, "/users/@me/feed?updated_only=true&own_only=true", nil), loggedInViewer(7))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestGetThread(t *testing.T) {
	threadId := "29d1b2da-3289-454a-84bb-644ff1d50ca9"

	t.Run("Thread id from the URL reaches the service", func(t *testing.T) {
		thread := &MockThreadService{}
		router := newTestRouter(&MockFeedService{}, thread, &MockUserService{})

		thread.getFunc = func(id domain.ThreadId, viewer *domain.UserId) (*api.ThreadResponse, error) {
			assert.Equal(t, domain.ThreadId(threadId), id)
			assert.Nil(t, viewer)
			return &api.ThreadResponse{Thread: domain.Thread{ThreadSummary: domain.ThreadSummary{Id: id}}}, nil
		}

		req := httptest.NewRequest(http.MethodGet, "/threads/"+threadId, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), threadId)
	})

	t.Run("Missing thread is a 404", func(t *testing.T) {
		thread := &MockThreadService{}
		router := newTestRouter(&MockFeedService{}, thread, &MockUserService{})

		thread.getFunc = func(id domain.ThreadId, viewer *domain.UserId) (*api.ThreadResponse, error) {
			return nil, internal_errors.NotFound("Thread not found")
		}

		req := httptest.NewRequest(http.MethodGet, "/threads/"+threadId, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestVisitThread(t *testing.T) {
	threadId := "29d1b2da-3289-454a-84bb-644ff1d50ca9"

	t.Run("Anonymous is a 401", func(t *testing.T) {
		thread := &MockThreadService{}
		router := newTestRouter(&MockFeedService{}, thread, &MockUserService{})
		called := false

		thread.markVisitFunc = func(id domain.ThreadId, viewer domain.UserId) error {
			called = true
			return nil
		}

		req := httptest.NewRequest(http.MethodPost, "/threads/"+threadId+"/visits", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})

	t.Run("Successful visit", func(t *testing.T) {
		thread := &MockThreadService{}
		router := newTestRouter(&MockFeedService{}, thread, &MockUserService{})

		thread.markVisitFunc = func(id domain.ThreadId, viewer domain.UserId) error {
			assert.Equal(t, domain.ThreadId(threadId), id)
			assert.Equal(t, domain.UserId(7), viewer)
			return nil
		}

		req := withViewer(httptest.NewRequest(http.MethodPost, "/threads/"+threadId+"/visits", nil), loggedInViewer(7))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestUpdateMe(t *testing.T) {
	t.Run("Invalid json is a 400", func(t *testing.T) {
		router := newTestRouter(&MockFeedService{}, &MockThreadService{}, &MockUserService{})

		req := withViewer(httptest.NewRequest(http.MethodPatch, "/users/@me", strings.NewReader("{not json")), loggedInViewer(7))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Missing required fields is a 400", func(t *testing.T) {
		router := newTestRouter(&MockFeedService{}, &MockThreadService{}, &MockUserService{})

		req := withViewer(httptest.NewRequest(http.MethodPatch, "/users/@me", strings.NewReader(`{"username":"bobatan"}`)), loggedInViewer(7))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Successful update", func(t *testing.T) {
		user := &MockUserService{}
		router := newTestRouter(&MockFeedService{}, &MockThreadService{}, user)

		user.updateFunc = func(id domain.UserId, username, avatarUrl string) (*api.UserResponse, error) {
			assert.Equal(t, domain.UserId(7), id)
			assert.Equal(t, "bobatan", username)
			assert.Equal(t, "https://example.com/avatar.png", avatarUrl)
			return &api.UserResponse{Username: username, AvatarUrl: avatarUrl}, nil
		}

		body := `{"username":"bobatan","avatar_url":"https://example.com/avatar.png"}`
		req := withViewer(httptest.NewRequest(http.MethodPatch, "/users/@me", strings.NewReader(body)), loggedInViewer(7))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"username":"bobatan","avatar_url":"https://example.com/avatar.png"}`, rr.Body.String())
	})
}

func TestDismissNotifications(t *testing.T) {
	t.Run("Anonymous is a 401", func(t *testing.T) {
		router := newTestRouter(&MockFeedService{}, &MockThreadService{}, &MockUserService{})

		req := httptest.NewRequest(http.MethodPost, "/users/@me/notifications/dismiss", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Successful dismissal is a 204", func(t *testing.T) {
		user := &MockUserService{}
		router := newTestRouter(&MockFeedService{}, &MockThreadService{}, user)
		called := false

		user.dismissNotificationsFunc = func(id domain.UserId) error {
			called = true
			assert.Equal(t, domain.UserId(7), id)
			return nil
		}

		req := withViewer(httptest.NewRequest(http.MethodPost, "/users/@me/notifications/dismiss", nil), loggedInViewer(7))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.True(t, called)
	})
}

func TestGetBobadex(t *testing.T) {
	t.Run("Caught identities are serialized with their catalogue slots", func(t *testing.T) {
		user := &MockUserService{}
		router := newTestRouter(&MockFeedService{}, &MockThreadService{}, user)

		user.bobadexFunc = func(id domain.UserId) (*api.BobadexResponse, error) {
			return &api.BobadexResponse{
				IdentitiesCount: 3,
				Identities: []domain.BobadexIdentity{
					{Index: 1, Name: "Old Time-y Anon", Avatar: "anon.png", Caught: true},
				},
			}, nil
		}

		req := withViewer(httptest.NewRequest(http.MethodGet, "/users/@me/bobadex", nil), loggedInViewer(7))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{
			"identities_count": 3,
			"identities": [{"index":1,"name":"Old Time-y Anon","avatar":"anon.png","caught":true}]
		}`, rr.Body.String())
	})
}

func TestInvites(t *testing.T) {
	nonce := "6a2b5e40-7f05-4bb2-9dd3-5cdd5fca7058"

	t.Run("Details are public", func(t *testing.T) {
		user := &MockUserService{}
		router := newTestRouter(&MockFeedService{}, &MockThreadService{}, user)

		user.inviteDetailsFunc = func(n string) (*api.InviteResponse, error) {
			assert.Equal(t, nonce, n)
			return &api.InviteResponse{InviteeEmail: "bobatan@example.com"}, nil
		}

		req := httptest.NewRequest(http.MethodGet, "/invites/"+nonce, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "bobatan@example.com")
	})

	t.Run("Acceptance without a token is a 401", func(t *testing.T) {
		router := newTestRouter(&MockFeedService{}, &MockThreadService{}, &MockUserService{})

		req := httptest.NewRequest(http.MethodPost, "/invites/"+nonce, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Acceptance with an existing account is a 409", func(t *testing.T) {
		router := newTestRouter(&MockFeedService{}, &MockThreadService{}, &MockUserService{})

		req := withViewer(httptest.NewRequest(http.MethodPost, "/invites/"+nonce, nil), loggedInViewer(7))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("Successful acceptance is a 201", func(t *testing.T) {
		user := &MockUserService{}
		router := newTestRouter(&MockFeedService{}, &MockThreadService{}, user)

		user.acceptInviteFunc = func(n, externalId string) error {
			assert.Equal(t, nonce, n)
			assert.Equal(t, "ext-1", externalId)
			return nil
		}

		req := withViewer(httptest.NewRequest(http.MethodPost, "/invites/"+nonce, nil), &mw.Viewer{ExternalId: "ext-1"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})
}
