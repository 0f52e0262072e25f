package storefront_test

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	storefront "github.com/goliatone/go-storefront"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestController(repo *MockRepositoryManager) *storefront.StorefrontController {
	return &storefront.StorefrontController{
		Logger: testLogger{},
		Repo:   repo,
		Auther: storefront.NewAuthenticator(repo, newMockConfig()),
		Config: newMockConfig(),
		Routes: storefront.NewDefaultStorefrontRoutes(),
	}
}

func captureCookie(mc *MockContext, cookie **router.Cookie) {
	mc.On("Cookie", mock.Anything).Run(func(args mock.Arguments) {
		*cookie = args.Get(0).(*router.Cookie)
	}).Return()
}

// session cookies are read cross-origin by the frontend, so every set and
// clear must carry HTTPOnly, Secure, and SameSite=None
func assertSessionCookie(t *testing.T, cookie *router.Cookie) {
	t.Helper()

	require.NotNil(t, cookie)
	assert.Equal(t, "token", cookie.Name)
	assert.True(t, cookie.HTTPOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, "None", cookie.SameSite)
}

func TestSignupPost(t *testing.T) {
	t.Run("sets a valid session cookie and returns 201", func(t *testing.T) {
		created := &storefront.User{ID: uuid.New(), Email: "wes@example.com"}

		users := &MockUsers{}
		repo := &MockRepositoryManager{}
		repo.On("Users").Return(users)
		repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).Return(nil).Once()
		users.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).Return(created, nil).Once()

		ctrl := newTestController(repo)

		mc := &MockContext{}
		mc.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			p := args.Get(0).(*storefront.SignupPayload)
			*p = storefront.SignupPayload{
				Name:     "Wes",
				Email:    "wes@example.com",
				Password: "sickfits1234",
			}
		}).Return(nil)
		mc.On("Context").Return(context.Background())

		var cookie *router.Cookie
		captureCookie(mc, &cookie)

		var body any
		mc.On("JSON", http.StatusCreated, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1)
		}).Return(nil).Once()

		err := ctrl.SignupPost(mc)
		require.NoError(t, err)

		assertSessionCookie(t, cookie)
		assert.WithinDuration(t,
			time.Now().Add(storefront.SessionTokenDuration), cookie.Expires, time.Minute)

		claims, err := ctrl.Auther.TokenService().Validate(cookie.Value)
		require.NoError(t, err)
		assert.Equal(t, created.ID.String(), claims.UserID())

		assert.Equal(t, created, body)
		mc.AssertExpectations(t)
	})

	t.Run("invalid payload renders bad request", func(t *testing.T) {
		ctrl := newTestController(&MockRepositoryManager{})

		mc := &MockContext{}
		mc.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			p := args.Get(0).(*storefront.SignupPayload)
			*p = storefront.SignupPayload{Name: "Wes", Email: "not-an-email", Password: "short"}
		}).Return(nil)
		mc.On("JSON", http.StatusBadRequest, mock.Anything).Return(nil).Once()

		err := ctrl.SignupPost(mc)
		require.NoError(t, err)

		mc.AssertNotCalled(t, "Cookie", mock.Anything)
		mc.AssertExpectations(t)
	})
}

func TestSigninPost(t *testing.T) {
	hash, err := storefront.HashPassword("sickfits1234")
	require.NoError(t, err)

	user := &storefront.User{
		ID:           uuid.New(),
		Email:        "wes@example.com",
		PasswordHash: hash,
	}

	bindSignin := func(mc *MockContext, email, password string) {
		mc.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
			p := args.Get(0).(*storefront.SigninPayload)
			*p = storefront.SigninPayload{Email: email, Password: password}
		}).Return(nil)
	}

	t.Run("valid credentials set the cookie and return the user", func(t *testing.T) {
		users := &MockUsers{}
		repo := &MockRepositoryManager{}
		repo.On("Users").Return(users)
		users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()

		ctrl := newTestController(repo)

		mc := &MockContext{}
		bindSignin(mc, user.Email, "sickfits1234")
		mc.On("Context").Return(context.Background())

		var cookie *router.Cookie
		captureCookie(mc, &cookie)

		var body any
		mc.On("JSON", http.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1)
		}).Return(nil).Once()

		err := ctrl.SigninPost(mc)
		require.NoError(t, err)

		assertSessionCookie(t, cookie)
		assert.Equal(t, user, body)
	})

	t.Run("unknown email renders not found", func(t *testing.T) {
		users := &MockUsers{}
		repo := &MockRepositoryManager{}
		repo.On("Users").Return(users)
		users.On("GetByEmail", mock.Anything, "ghost@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()

		ctrl := newTestController(repo)

		mc := &MockContext{}
		bindSignin(mc, "ghost@example.com", "sickfits1234")
		mc.On("Context").Return(context.Background())

		var body map[string]any
		mc.On("JSON", http.StatusNotFound, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1).(map[string]any)
		}).Return(nil).Once()

		err := ctrl.SigninPost(mc)
		require.NoError(t, err)

		assert.Contains(t, body["message"], "no such user found for email")
		mc.AssertNotCalled(t, "Cookie", mock.Anything)
	})

	t.Run("wrong password renders bad request", func(t *testing.T) {
		users := &MockUsers{}
		repo := &MockRepositoryManager{}
		repo.On("Users").Return(users)
		users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()

		ctrl := newTestController(repo)

		mc := &MockContext{}
		bindSignin(mc, user.Email, "wrong-password")
		mc.On("Context").Return(context.Background())
		mc.On("JSON", http.StatusBadRequest, mock.Anything).Return(nil).Once()

		err := ctrl.SigninPost(mc)
		require.NoError(t, err)

		mc.AssertNotCalled(t, "Cookie", mock.Anything)
		mc.AssertExpectations(t)
	})
}

func TestSignoutPost(t *testing.T) {
	ctrl := newTestController(&MockRepositoryManager{})

	mc := &MockContext{}

	var cookie *router.Cookie
	captureCookie(mc, &cookie)

	var body any
	mc.On("JSON", http.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
		body = args.Get(1)
	}).Return(nil).Once()

	err := ctrl.SignoutPost(mc)
	require.NoError(t, err)

	assertSessionCookie(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now()))

	assert.Equal(t, map[string]string{"message": "Goodbye!"}, body)
}

func TestMeGet(t *testing.T) {
	ctrl := newTestController(&MockRepositoryManager{})

	t.Run("returns the session user", func(t *testing.T) {
		user := &storefront.User{ID: uuid.New(), Email: "wes@example.com"}

		mc := &MockContext{}
		mc.On("Context").Return(storefront.WithContext(context.Background(), user))

		var body storefront.MeResponse
		mc.On("JSON", http.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1).(storefront.MeResponse)
		}).Return(nil).Once()

		err := ctrl.MeGet(mc)
		require.NoError(t, err)
		assert.Equal(t, user, body.User)
	})

	t.Run("anonymous is a null user, not an error", func(t *testing.T) {
		mc := &MockContext{}
		mc.On("Context").Return(context.Background())

		var body storefront.MeResponse
		mc.On("JSON", http.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1).(storefront.MeResponse)
		}).Return(nil).Once()

		err := ctrl.MeGet(mc)
		require.NoError(t, err)
		assert.Nil(t, body.User)
	})
}

func TestUsersGet(t *testing.T) {
	t.Run("admin lists accounts", func(t *testing.T) {
		admin := &storefront.User{
			ID:          uuid.New(),
			Permissions: []storefront.Permission{storefront.PermissionAdmin},
		}
		accounts := []*storefront.User{admin}

		users := &MockUsers{}
		repo := &MockRepositoryManager{}
		repo.On("Users").Return(users)
		users.On("ListAll", mock.Anything).Return(accounts, nil).Once()

		ctrl := newTestController(repo)

		mc := &MockContext{}
		mc.On("Context").Return(storefront.WithContext(context.Background(), admin))

		var body any
		mc.On("JSON", http.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			body = args.Get(1)
		}).Return(nil).Once()

		err := ctrl.UsersGet(mc)
		require.NoError(t, err)
		assert.Equal(t, accounts, body)

		users.AssertExpectations(t)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		users := &MockUsers{}
		repo := &MockRepositoryManager{}
		repo.On("Users").Return(users)

		ctrl := newTestController(repo)

		mc := &MockContext{}
		mc.On("Context").Return(context.Background())
		mc.On("JSON", http.StatusUnauthorized, mock.Anything).Return(nil).Once()

		err := ctrl.UsersGet(mc)
		require.NoError(t, err)

		users.AssertNotCalled(t, "ListAll", mock.Anything)
		mc.AssertExpectations(t)
	})
}

func TestItemsGet(t *testing.T) {
	t.Run("defaults the page window", func(t *testing.T) {
		items := &MockItems{}
		repo := &MockRepositoryManager{}
		repo.On("Items").Return(items)
		items.On("ListPage", mock.Anything, 50, 0).Return([]*storefront.Item{}, nil).Once()

		ctrl := newTestController(repo)

		mc := &MockContext{}
		mc.On("Context").Return(context.Background())
		mc.On("Query", "limit", "").Return("")
		mc.On("Query", "offset", "").Return("")
		mc.On("JSON", http.StatusOK, mock.Anything).Return(nil).Once()

		err := ctrl.ItemsGet(mc)
		require.NoError(t, err)
		items.AssertExpectations(t)
	})

	t.Run("honors limit and offset", func(t *testing.T) {
		items := &MockItems{}
		repo := &MockRepositoryManager{}
		repo.On("Items").Return(items)
		items.On("ListPage", mock.Anything, 10, 5).Return([]*storefront.Item{}, nil).Once()

		ctrl := newTestController(repo)

		mc := &MockContext{}
		mc.On("Context").Return(context.Background())
		mc.On("Query", "limit", "").Return("10")
		mc.On("Query", "offset", "").Return("5")
		mc.On("JSON", http.StatusOK, mock.Anything).Return(nil).Once()

		err := ctrl.ItemsGet(mc)
		require.NoError(t, err)
		items.AssertExpectations(t)
	})
}
