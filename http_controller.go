package osiapp

import (
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// GetRouterSession reads the claims the JWT middleware stored in the router
// context and turns them into a session object.
func GetRouterSession(c router.Context, key string) (*SessionObject, error) {
	local := c.Locals(key)
	if local == nil {
		return nil, ErrUnableToFindSession
	}

	claims, ok := local.(AuthClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	return sessionFromAuthClaims(claims)
}

func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.Auther.MakeAPIAuthErrorHandler(),
	)

	adminOnly := controller.Auther.AdminOnlyRoute(
		controller.Config,
		controller.Auther.MakeAPIAuthErrorHandler(),
	)

	app.Get(controller.Routes.Root, controller.Status).
		SetName("status.get")

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("register.post")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	confirmPath := fmt.Sprintf("%s/:token", controller.Routes.Confirm)
	app.Get(confirmPath, controller.ConfirmEmail).
		SetName("confirm.get")
	app.Post(confirmPath, controller.ConfirmEmail).
		SetName("confirm.post")

	app.Get(controller.Routes.SelfUser, controller.SelfUserShow, protected).
		SetName("self-user.get")

	app.Get(controller.Routes.Profile, controller.ProfileShow, protected).
		SetName("profile.get")
	app.Put(controller.Routes.Profile, controller.ProfileUpdate, protected).
		SetName("profile.put")
	app.Get(fmt.Sprintf("%s/:id", controller.Routes.Profile), controller.ProfileShowByID, protected).
		SetName("profile-by-id.get")

	adminUserPath := fmt.Sprintf("%s/:id", controller.Routes.AdminUser)
	app.Get(adminUserPath, controller.AdminUserShow, adminOnly).
		SetName("admin-user.get")
	app.Put(adminUserPath, controller.AdminUserUpdate, adminOnly).
		SetName("admin-user.put")
	app.Delete(adminUserPath, controller.AdminUserDelete, adminOnly).
		SetName("admin-user.delete")
}

type AuthControllerRoutes struct {
	Root      string
	Login     string
	Register  string
	Confirm   string
	SelfUser  string
	Profile   string
	AdminUser string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       *RouteAuthenticator
	Config       Config
	Register     *RegisterUserHandler
	Confirm      *ConfirmEmailHandler
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Root:      "/",
			Login:     "/login",
			Register:  "/register",
			Confirm:   "/confirm",
			SelfUser:  "/self_user",
			Profile:   "/profile",
			AdminUser: "/admin/user",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.handleError
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	if c.Register == nil {
		panic("Missing RegisterUserHandler in auth controller...")
	}

	if c.Confirm == nil {
		panic("Missing ConfirmEmailHandler in auth controller...")
	}

	return c
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithControllerRegisterHandler(handler *RegisterUserHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Register = handler
		return c
	}
}

func WithControllerConfirmHandler(handler *ConfirmEmailHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Confirm = handler
		return c
	}
}

// Status is the liveness check for the root route.
func (a *AuthController) Status(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, router.ViewContext{
		"message": "Hola, estoy vivo!",
	})
}

// RegisterRequest payload
type RegisterRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "Failed to parse request body").
			WithCode(errors.CodeBadRequest))
	}

	var res *RegisterUserResponse

	req := RegisterUserMessage{
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(resp *RegisterUserResponse) {
			res = resp
		},
	}

	if err := a.Register.Execute(ctx.Context(), req); err != nil {
		if errors.Is(err, ErrNotificationFailure) && res != nil && res.User != nil {
			// the account exists but the confirmation email never left
			a.Logger.Error("register user notification failure", "email", payload.Email)
			return ctx.Status(router.StatusInternalServerError).JSON(router.StatusInternalServerError, router.ViewContext{
				"error":        "User created but the confirmation email could not be sent",
				"user_created": true,
				"email_sent":   false,
			})
		}
		a.Logger.Error("register user error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(res))
		fmt.Println("============================")
	}

	return ctx.JSON(router.StatusCreated, router.ViewContext{
		"message":      "Confirmation email sent, check your inbox",
		"user":         res.User,
		"user_created": true,
		"email_sent":   true,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "Failed to parse request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()).
			WithCode(errors.CodeBadRequest))
	}

	token, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"access_token": token,
	})
}

// ConfirmEmail handles both the emailed link and programmatic confirmation.
func (a *AuthController) ConfirmEmail(ctx router.Context) error {
	token := ctx.Param("token", "")

	var res *ConfirmEmailResponse

	req := ConfirmEmailMessage{
		Token: token,
		OnResponse: func(resp *ConfirmEmailResponse) {
			res = resp
		},
	}

	if err := a.Confirm.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("confirm email error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"message":           "Email confirmed, you can now log in",
		"already_confirmed": res.AlreadyConfirmed,
	})
}

func (a *AuthController) SelfUserShow(ctx router.Context) error {
	user, err := a.sessionUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"id":        user.ID,
		"email":     user.Email,
		"username":  user.Username(),
		"role":      user.Role,
		"confirmed": user.Confirmed,
	})
}

func (a *AuthController) ProfileShow(ctx router.Context) error {
	user, err := a.sessionUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return a.renderProfile(ctx, user.ID)
}

// ProfileUpdatePayload holds values for profile changes
type ProfileUpdatePayload struct {
	DisplayName string `form:"display_name" json:"display_name"`
	Bio         string `form:"bio" json:"bio"`
}

// Validate will validate the payload
func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DisplayName, validation.Length(0, 200)),
		validation.Field(&r.Bio, validation.Length(0, 2000)),
	)
}

func (a *AuthController) ProfileUpdate(ctx router.Context) error {
	user, err := a.sessionUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(ProfileUpdatePayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("profile update parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "Failed to parse request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()).
			WithCode(errors.CodeBadRequest))
	}

	profile := &Profile{
		UserID:      user.ID,
		DisplayName: payload.DisplayName,
		Bio:         payload.Bio,
	}

	saved, err := a.Repo.Profiles().Upsert(ctx.Context(), profile)
	if err != nil {
		a.Logger.Error("profile update error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, saved)
}

func (a *AuthController) ProfileShowByID(ctx router.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return a.renderProfile(ctx, id)
}

func (a *AuthController) AdminUserShow(ctx router.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, user)
}

// AdminUserUpdatePayload holds values for role changes
type AdminUserUpdatePayload struct {
	Role string `form:"role" json:"role"`
}

// Validate will validate the payload
func (r AdminUserUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Role,
			validation.Required,
			validation.In(RoleMember, RoleAdmin),
		),
	)
}

func (a *AuthController) AdminUserUpdate(ctx router.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(AdminUserUpdatePayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("admin user update parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "Failed to parse request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()).
			WithCode(errors.CodeBadRequest))
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user.Role = payload.Role

	updated, err := a.Repo.Users().Update(ctx.Context(), user)
	if err != nil {
		a.Logger.Error("admin user update error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, updated)
}

func (a *AuthController) AdminUserDelete(ctx router.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Repo.Users().Delete(ctx.Context(), id); err != nil {
		a.Logger.Error("admin user delete error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"message": "User deleted",
	})
}

func (a *AuthController) renderProfile(ctx router.Context, userID int64) error {
	profile, err := a.Repo.Profiles().GetByUserID(ctx.Context(), userID)
	if err != nil {
		if IsNotFoundError(err) {
			return a.ErrorHandler(ctx, errors.New("Profile not found", errors.CategoryNotFound).
				WithTextCode("PROFILE_NOT_FOUND").
				WithCode(errors.CodeNotFound))
		}
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, profile)
}

// sessionUser resolves the authenticated user from the middleware claims.
func (a *AuthController) sessionUser(ctx router.Context) (*User, error) {
	session, err := GetRouterSession(ctx, a.Config.GetContextKey())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryAuth, "Unable to resolve session").
			WithCode(errors.CodeUnauthorized)
	}

	id, err := session.GetUserIntID()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryAuth, "Malformed session subject").
			WithCode(errors.CodeUnauthorized)
	}

	user, err := a.Repo.Users().GetByID(ctx.Context(), id)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, errors.Wrap(err, errors.CategoryAuth, "Session user no longer exists").
				WithCode(errors.CodeUnauthorized)
		}
		return nil, err
	}

	return user, nil
}

func paramID(ctx router.Context) (int64, error) {
	raw := ctx.Param("id", "")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("Invalid user id", errors.CategoryBadInput).
			WithTextCode("INVALID_USER_ID").
			WithCode(errors.CodeBadRequest)
	}
	return id, nil
}

func (a *AuthController) handleError(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	code := richErr.Code
	if code == 0 {
		code = router.StatusInternalServerError
	}

	message := richErr.Message
	if code >= router.StatusInternalServerError {
		a.Logger.Error(
			"Request error",
			"error", richErr.Message,
			"category", richErr.Category,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
		message = "An unexpected server error occurred"
	}

	resp := router.ViewContext{"error": message}
	if richErr.TextCode != "" {
		resp["text_code"] = richErr.TextCode
	}

	return c.Status(code).JSON(code, resp)
}
