package accounts

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// AuthControllerRoutes holds the route paths
type AuthControllerRoutes struct {
	Register       string
	Login          string
	Logout         string
	Refresh        string
	Profile        string
	ChangePassword string
	ActivityLogs   string
	Users          string
	Stats          string
}

// AuthController maps HTTP requests onto account operations
type AuthController struct {
	Debug     bool
	Logger    Logger
	Service   *Service
	Directory *Directory
	Routes    *AuthControllerRoutes
}

// AuthControllerOption configures the controller
type AuthControllerOption func(*AuthController) *AuthController

// WithControllerLogger sets the logger
func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = normalizeLogger(l)
		return c
	}
}

// WithControllerDebug dumps request payloads at debug level
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// WithRoutes overrides the default paths
func WithRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

// NewAuthController returns a controller with default routes
func NewAuthController(svc *Service, dir *Directory, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:    defLogger{},
		Service:   svc,
		Directory: dir,
		Routes: &AuthControllerRoutes{
			Register:       "/register",
			Login:          "/login",
			Logout:         "/logout",
			Refresh:        "/token/refresh",
			Profile:        "/profile",
			ChangePassword: "/change-password",
			ActivityLogs:   "/activity-logs",
			Users:          "/users",
			Stats:          "/stats",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing Service in auth controller...")
	}

	if c.Directory == nil {
		panic("Missing Directory in auth controller...")
	}

	return c
}

// RegisterAccountRoutes mounts the account API on app
func RegisterAccountRoutes(app RouteRegistrar, controller *AuthController) {
	protected := BearerAuth(controller.Service, controller.errorHandler)

	app.Post(controller.Routes.Register, controller.Register).SetName("accounts.register")
	app.Post(controller.Routes.Login, controller.Login).SetName("accounts.login")
	app.Post(controller.Routes.Refresh, controller.RefreshToken).SetName("accounts.token.refresh")

	app.Post(controller.Routes.Logout, controller.Logout, protected).SetName("accounts.logout")
	app.Get(controller.Routes.Profile, controller.ProfileShow, protected).SetName("accounts.profile.get")
	app.Put(controller.Routes.Profile, controller.ProfileUpdate, protected).SetName("accounts.profile.put")
	app.Patch(controller.Routes.Profile, controller.ProfileUpdate, protected).SetName("accounts.profile.patch")
	app.Post(controller.Routes.ChangePassword, controller.ChangePassword, protected).SetName("accounts.password.change")
	app.Get(controller.Routes.ActivityLogs, controller.ActivityLogs, protected).SetName("accounts.activity.list")

	app.Get(controller.Routes.Users, controller.UsersList, protected).SetName("accounts.users.list")
	app.Get(controller.Routes.Stats, controller.UsersStats, protected).SetName("accounts.users.stats")
}

func (a *AuthController) errorHandler(ctx router.Context, err error) error {
	return RenderError(ctx, err, a.Logger)
}

func (a *AuthController) bind(ctx router.Context, payload any) error {
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("parse payload", "error", err)
		return NewValidationError("invalid request body", map[string][]string{
			"non_field_errors": {"request body could not be parsed"},
		})
	}

	if a.Debug {
		a.Logger.Debug("payload", "path", ctx.Path(), "body", print.MaybePrettyJSON(payload))
	}
	return nil
}

func (a *AuthController) Register(ctx router.Context) error {
	payload := new(RegisterUserMessage)
	if err := a.bind(ctx, payload); err != nil {
		return a.errorHandler(ctx, err)
	}

	res, err := a.Service.Register(RequestContext(ctx), *payload)
	if err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    res.User,
		"tokens":  res.Tokens,
	})
}

func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginMessage)
	if err := a.bind(ctx, payload); err != nil {
		return a.errorHandler(ctx, err)
	}

	res, err := a.Service.Login(RequestContext(ctx), *payload)
	if err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    res.User,
		"tokens":  res.Tokens,
	})
}

func (a *AuthController) RefreshToken(ctx router.Context) error {
	payload := new(RefreshMessage)
	if err := a.bind(ctx, payload); err != nil {
		return a.errorHandler(ctx, err)
	}

	tokens, err := a.Service.RefreshSession(RequestContext(ctx), *payload)
	if err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, tokens)
}

func (a *AuthController) Logout(ctx router.Context) error {
	caller, ok := CallerFromRouter(ctx)
	if !ok {
		return a.errorHandler(ctx, ErrInvalidToken)
	}

	payload := new(LogoutMessage)
	if err := a.bind(ctx, payload); err != nil {
		return a.errorHandler(ctx, err)
	}

	if err := a.Service.Logout(RequestContext(ctx), caller, *payload); err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Logout successful",
	})
}

func (a *AuthController) ProfileShow(ctx router.Context) error {
	caller, ok := CallerFromRouter(ctx)
	if !ok {
		return a.errorHandler(ctx, ErrInvalidToken)
	}

	snapshot, err := a.Service.Profile(RequestContext(ctx), caller)
	if err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, snapshot)
}

func (a *AuthController) ProfileUpdate(ctx router.Context) error {
	caller, ok := CallerFromRouter(ctx)
	if !ok {
		return a.errorHandler(ctx, ErrInvalidToken)
	}

	payload := new(UpdateProfileMessage)
	if err := a.bind(ctx, payload); err != nil {
		return a.errorHandler(ctx, err)
	}

	snapshot, err := a.Service.UpdateProfile(RequestContext(ctx), caller, *payload)
	if err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, snapshot)
}

func (a *AuthController) ChangePassword(ctx router.Context) error {
	caller, ok := CallerFromRouter(ctx)
	if !ok {
		return a.errorHandler(ctx, ErrInvalidToken)
	}

	payload := new(ChangePasswordMessage)
	if err := a.bind(ctx, payload); err != nil {
		return a.errorHandler(ctx, err)
	}

	if err := a.Service.ChangePassword(RequestContext(ctx), caller, *payload); err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Password changed successfully",
	})
}

func (a *AuthController) ActivityLogs(ctx router.Context) error {
	caller, ok := CallerFromRouter(ctx)
	if !ok {
		return a.errorHandler(ctx, ErrInvalidToken)
	}

	limit, err := parseLimit(ctx.Query("limit", ""))
	if err != nil {
		return a.errorHandler(ctx, err)
	}

	logs, err := a.Service.ActivityLogs(RequestContext(ctx), caller, limit)
	if err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, logs)
}

func (a *AuthController) UsersList(ctx router.Context) error {
	caller, ok := CallerFromRouter(ctx)
	if !ok {
		return a.errorHandler(ctx, ErrInvalidToken)
	}

	users, err := a.Directory.List(RequestContext(ctx), caller.Identity())
	if err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, users)
}

func (a *AuthController) UsersStats(ctx router.Context) error {
	caller, ok := CallerFromRouter(ctx)
	if !ok {
		return a.errorHandler(ctx, ErrInvalidToken)
	}

	stats, err := a.Directory.Stats(RequestContext(ctx), caller.Identity())
	if err != nil {
		return a.errorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, stats)
}

// parseLimit reads an optional non-negative page size, zero when absent
func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, NewValidationError("invalid query", map[string][]string{
			"limit": {"must be a non-negative integer"},
		})
	}
	return limit, nil
}
