package accounts_test

import (
	"context"
	"net/http"
	"testing"

	accounts "github.com/GugaValenca/user-management-system"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRequest(payload func(args mock.Arguments)) *router.MockContext {
	ctx := router.NewMockContext()
	ctx.HeadersM["X-Forwarded-For"] = testClientIP
	ctx.HeadersM["User-Agent"] = "accounts-test"
	ctx.On("Context").Return(context.Background())
	if payload != nil {
		ctx.On("Bind", mock.Anything).Return(nil).Run(payload)
	}
	return ctx
}

func TestNewAuthControllerRequiresCollaborators(t *testing.T) {
	f := newFixture(t)

	assert.Panics(t, func() { accounts.NewAuthController(nil, f.dir) })
	assert.Panics(t, func() { accounts.NewAuthController(f.svc, nil) })

	ctrl := accounts.NewAuthController(f.svc, f.dir, accounts.WithRoutes(&accounts.AuthControllerRoutes{
		Login: "/sign-in",
	}))
	assert.Equal(t, "/sign-in", ctrl.Routes.Login)
}

func TestAuthControllerRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctrl := accounts.NewAuthController(f.svc, f.dir)

	ctx := newRequest(func(args mock.Arguments) {
		*args.Get(0).(*accounts.RegisterUserMessage) = registerMessage("carol@example.com", "carol")
	})

	var created map[string]any
	ctx.On("JSON", router.StatusCreated, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		created = args.Get(1).(map[string]any)
	})

	require.NoError(t, ctrl.Register(ctx))
	require.NotNil(t, created)
	assert.Equal(t, "User created successfully", created["message"])

	snapshot := created["user"].(accounts.IdentitySnapshot)
	assert.Equal(t, "carol@example.com", snapshot.Email)

	login := newRequest(func(args mock.Arguments) {
		*args.Get(0).(*accounts.LoginMessage) = accounts.LoginMessage{
			Identifier: "CAROL",
			Password:   strongPassword,
		}
	})

	var loggedIn map[string]any
	login.On("JSON", router.StatusOK, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		loggedIn = args.Get(1).(map[string]any)
	})

	require.NoError(t, ctrl.Login(login))
	require.NotNil(t, loggedIn)
	assert.Equal(t, "Login successful", loggedIn["message"])

	stored := f.load(t, snapshot.ID)
	require.NotNil(t, stored.LastLoginIP)
	assert.Equal(t, testClientIP, *stored.LastLoginIP)
}

func TestAuthControllerLoginFailure(t *testing.T) {
	f := newFixture(t)
	ctrl := accounts.NewAuthController(f.svc, f.dir)
	f.register(t, "carol@example.com", "carol")

	ctx := newRequest(func(args mock.Arguments) {
		*args.Get(0).(*accounts.LoginMessage) = accounts.LoginMessage{
			Identifier: "carol",
			Password:   "wrong-password",
		}
	})
	body := captureJSON(ctx, http.StatusUnauthorized)

	require.NoError(t, ctrl.Login(ctx))
	assert.Equal(t, accounts.TextCodeInvalidCreds, body.Code)
}

func TestAuthControllerBindFailure(t *testing.T) {
	f := newFixture(t)
	ctrl := accounts.NewAuthController(f.svc, f.dir)

	ctx := router.NewMockContext()
	ctx.On("Bind", mock.Anything).Return(assert.AnError)
	body := captureJSON(ctx, http.StatusBadRequest)

	require.NoError(t, ctrl.Login(ctx))
	assert.Equal(t, accounts.TextCodeValidation, body.Code)
	assert.Contains(t, body.Fields, "non_field_errors")
}

func TestAuthControllerProtectedHandlersNeedCaller(t *testing.T) {
	f := newFixture(t)
	ctrl := accounts.NewAuthController(f.svc, f.dir)

	handlers := map[string]router.HandlerFunc{
		"logout":          ctrl.Logout,
		"profile":         ctrl.ProfileShow,
		"profile update":  ctrl.ProfileUpdate,
		"change password": ctrl.ChangePassword,
		"activity logs":   ctrl.ActivityLogs,
		"users":           ctrl.UsersList,
		"stats":           ctrl.UsersStats,
	}

	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			ctx := router.NewMockContext()
			body := captureJSON(ctx, http.StatusUnauthorized)

			require.NoError(t, handler(ctx))
			assert.Equal(t, accounts.TextCodeInvalidToken, body.Code)
		})
	}
}

func TestAuthControllerDirectoryRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctrl := accounts.NewAuthController(f.svc, f.dir)
	_, user := f.register(t, "carol@example.com", "carol")

	ctx := newRequest(nil)
	ctx.LocalsMock[accounts.CallerLocalsKey] = user
	body := captureJSON(ctx, http.StatusForbidden)

	require.NoError(t, ctrl.UsersStats(ctx))
	assert.Equal(t, accounts.TextCodePermissionDenied, body.Code)

	f.promote(t, user)

	admin := newRequest(nil)
	admin.LocalsMock[accounts.CallerLocalsKey] = f.load(t, user.ID.String())

	var stats accounts.UserStats
	admin.On("JSON", router.StatusOK, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		stats = args.Get(1).(accounts.UserStats)
	})

	require.NoError(t, ctrl.UsersStats(admin))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Admin)
}

func TestAuthControllerActivityLogsLimit(t *testing.T) {
	f := newFixture(t)
	ctrl := accounts.NewAuthController(f.svc, f.dir)
	_, user := f.register(t, "carol@example.com", "carol")

	_, err := f.svc.Login(f.ctx, accounts.LoginMessage{Identifier: "carol", Password: strongPassword})
	require.NoError(t, err)

	ctx := newRequest(nil)
	ctx.LocalsMock[accounts.CallerLocalsKey] = user
	ctx.QueriesM["limit"] = "1"

	var logs []accounts.ActivitySnapshot
	ctx.On("JSON", router.StatusOK, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		logs = args.Get(1).([]accounts.ActivitySnapshot)
	})

	require.NoError(t, ctrl.ActivityLogs(ctx))
	require.Len(t, logs, 1)
	assert.Equal(t, accounts.ActivityLogin, logs[0].ActivityType)
	assert.Equal(t, "carol@example.com", logs[0].UserEmail)
}

func TestAuthControllerActivityLogsRejectsBadLimit(t *testing.T) {
	f := newFixture(t)
	ctrl := accounts.NewAuthController(f.svc, f.dir)
	_, user := f.register(t, "carol@example.com", "carol")

	for _, raw := range []string{"ten", "-1", "1.5"} {
		t.Run(raw, func(t *testing.T) {
			ctx := newRequest(nil)
			ctx.LocalsMock[accounts.CallerLocalsKey] = user
			ctx.QueriesM["limit"] = raw
			body := captureJSON(ctx, http.StatusBadRequest)

			require.NoError(t, ctrl.ActivityLogs(ctx))
			assert.Equal(t, accounts.TextCodeValidation, body.Code)
			assert.Contains(t, body.Fields, "limit")
		})
	}
}
