package storefront

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// StorefrontRoutes names every HTTP path the controller registers. Override
// individual entries before calling RegisterStorefrontRoutes to relocate the
// surface.
type StorefrontRoutes struct {
	Signup            string
	Signin            string
	Signout           string
	RequestReset      string
	ResetPassword     string
	UpdatePermissions string
	Me                string
	Users             string
	Items             string
	Item              string
	CartAdd           string
	CartItem          string
}

func NewDefaultStorefrontRoutes() *StorefrontRoutes {
	return &StorefrontRoutes{
		Signup:            "/signup",
		Signin:            "/signin",
		Signout:           "/signout",
		RequestReset:      "/request-reset",
		ResetPassword:     "/reset-password",
		UpdatePermissions: "/users/:id/permissions",
		Me:                "/me",
		Users:             "/users",
		Items:             "/items",
		Item:              "/items/:id",
		CartAdd:           "/cart",
		CartItem:          "/cart/:id",
	}
}

// StorefrontController surfaces the storefront operations over HTTP.
// Identity is taken from the request context, which the session middleware
// populates.
type StorefrontController struct {
	Debug  bool
	Logger Logger
	Repo   RepositoryManager
	Auther *Auther
	Mailer Mailer
	Config Config
	Routes *StorefrontRoutes
}

// RegisterStorefrontRoutes wires the controller plus the session middleware
// into the given router.
func RegisterStorefrontRoutes[T any](app router.Router[T], ctrl *StorefrontController) {
	if ctrl.Routes == nil {
		ctrl.Routes = NewDefaultStorefrontRoutes()
	}
	if ctrl.Logger == nil {
		ctrl.Logger = defLogger{}
	}

	session := NewSessionMiddleware(
		ctrl.Auther.TokenService(),
		ctrl.Repo.Users(),
		ctrl.Config.GetCookieName(),
	).WithLogger(ctrl.Logger)

	app.Use(session.Handler())

	r := ctrl.Routes
	app.Post(r.Signup, ctrl.SignupPost)
	app.Post(r.Signin, ctrl.SigninPost)
	app.Post(r.Signout, ctrl.SignoutPost)
	app.Post(r.RequestReset, ctrl.RequestResetPost)
	app.Post(r.ResetPassword, ctrl.ResetPasswordPost)
	app.Post(r.UpdatePermissions, ctrl.UpdatePermissionsPost)

	app.Get(r.Me, ctrl.MeGet)
	app.Get(r.Users, ctrl.UsersGet)

	app.Get(r.Items, ctrl.ItemsGet)
	app.Get(r.Item, ctrl.ItemGet)
	app.Post(r.Items, ctrl.ItemCreatePost)
	app.Put(r.Item, ctrl.ItemUpdatePut)
	app.Delete(r.Item, ctrl.ItemDelete)

	app.Post(r.CartAdd, ctrl.CartAddPost)
	app.Get(r.CartAdd, ctrl.CartGet)
	app.Delete(r.CartItem, ctrl.CartItemDelete)
}

// SignupPayload carries the fields needed to register an account.
type SignupPayload struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (p SignupPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 100)),
	)
}

type SigninPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (p SigninPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required),
	)
}

type RequestResetPayload struct {
	Email string `json:"email" form:"email"`
}

func (p RequestResetPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
	)
}

type ResetPasswordPayload struct {
	ResetToken      string `json:"reset_token" form:"reset_token"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

func (p ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ResetToken, validation.Required),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&p.ConfirmPassword, validation.Required),
	)
}

type UpdatePermissionsPayload struct {
	Permissions []Permission `json:"permissions" form:"permissions"`
}

func (p UpdatePermissionsPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Permissions, validation.Required),
	)
}

type CreateItemPayload struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Image       string `json:"image" form:"image"`
	LargeImage  string `json:"large_image" form:"large_image"`
	Price       int64  `json:"price" form:"price"`
}

func (p CreateItemPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Price, validation.Min(0)),
	)
}

type UpdateItemPayload struct {
	Title       *string `json:"title" form:"title"`
	Description *string `json:"description" form:"description"`
	Image       *string `json:"image" form:"image"`
	LargeImage  *string `json:"large_image" form:"large_image"`
	Price       *int64  `json:"price" form:"price"`
}

type AddToCartPayload struct {
	ItemID string `json:"item_id" form:"item_id"`
}

func (p AddToCartPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ItemID, validation.Required, is.UUID),
	)
}

// SignupPost registers a user, signs them in, and sets the session cookie.
func (a *StorefrontController) SignupPost(ctx router.Context) error {
	payload := SignupPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse payload"))
	}
	if err := payload.Validate(); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid signup payload"))
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(map[string]string{
			"name":  payload.Name,
			"email": payload.Email,
		}))
	}

	var created *User
	handler := NewSignupHandler(a.Repo)
	err := handler.Execute(ctx.Context(), SignupMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(u *User) {
			created = u
		},
	})
	if err != nil {
		return a.renderError(ctx, err)
	}

	token, err := a.Auther.TokenForUser(created)
	if err != nil {
		return a.renderError(ctx, err)
	}
	a.setCookieToken(ctx, token)

	return ctx.JSON(http.StatusCreated, created)
}

// SigninPost authenticates credentials and sets the session cookie.
func (a *StorefrontController) SigninPost(ctx router.Context) error {
	payload := SigninPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse payload"))
	}
	if err := payload.Validate(); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid signin payload"))
	}

	user, token, err := a.Auther.Signin(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.renderError(ctx, err)
	}
	a.setCookieToken(ctx, token)

	return ctx.JSON(http.StatusOK, user)
}

// SignoutPost clears the session cookie.
func (a *StorefrontController) SignoutPost(ctx router.Context) error {
	a.clearCookieToken(ctx)
	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Goodbye!",
	})
}

// RequestResetPost issues a reset token and mails the reset link. The
// response is the same whether or not the address exists once validation
// passes, the store decides.
func (a *StorefrontController) RequestResetPost(ctx router.Context) error {
	payload := RequestResetPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse payload"))
	}
	if err := payload.Validate(); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid reset request"))
	}

	var response *RequestResetResponse
	handler := NewRequestResetHandler(a.Repo, a.Mailer, a.Config.GetFrontendURL())
	err := handler.Execute(ctx.Context(), RequestResetMessage{
		Email: payload.Email,
		OnResponse: func(r *RequestResetResponse) {
			response = r
		},
	})
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, response)
}

// ResetPasswordPost consumes a reset token, updates the password, and signs
// the user in.
func (a *StorefrontController) ResetPasswordPost(ctx router.Context) error {
	payload := ResetPasswordPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse payload"))
	}
	if err := payload.Validate(); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid reset payload"))
	}

	var user *User
	handler := NewResetPasswordHandler(a.Repo)
	err := handler.Execute(ctx.Context(), ResetPasswordMessage{
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
		ResetToken:      payload.ResetToken,
		OnResponse: func(u *User) {
			user = u
		},
	})
	if err != nil {
		return a.renderError(ctx, err)
	}

	token, err := a.Auther.TokenForUser(user)
	if err != nil {
		return a.renderError(ctx, err)
	}
	a.setCookieToken(ctx, token)

	return ctx.JSON(http.StatusOK, user)
}

// UpdatePermissionsPost replaces the permission set of the target user.
func (a *StorefrontController) UpdatePermissionsPost(ctx router.Context) error {
	actor := CurrentUser(ctx.Context())

	payload := UpdatePermissionsPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse payload"))
	}
	if err := payload.Validate(); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid permissions payload"))
	}

	var updated *User
	handler := NewUpdatePermissionsHandler(a.Repo)
	err := handler.Execute(ctx.Context(), UpdatePermissionsMessage{
		Actor:       actor,
		UserID:      ctx.Param("id", ""),
		Permissions: payload.Permissions,
		OnResponse: func(u *User) {
			updated = u
		},
	})
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, updated)
}

// MeResponse wraps the session user. User is null for anonymous requests,
// which is a valid answer rather than an error.
type MeResponse struct {
	User *User `json:"user"`
}

func (a *StorefrontController) MeGet(ctx router.Context) error {
	return ctx.JSON(http.StatusOK, MeResponse{
		User: CurrentUser(ctx.Context()),
	})
}

// UsersGet lists every user. Gated on admin or permission-management rights
// since the payload includes permission sets.
func (a *StorefrontController) UsersGet(ctx router.Context) error {
	actor := CurrentUser(ctx.Context())
	if err := Authorize(actor, PermissionAdmin, PermissionPermissionUpdate); err != nil {
		return a.renderError(ctx, err)
	}

	users, err := a.Repo.Users().ListAll(ctx.Context())
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, users)
}

func (a *StorefrontController) ItemsGet(ctx router.Context) error {
	limit := queryInt(ctx, "limit", 50)
	offset := queryInt(ctx, "offset", 0)

	items, err := a.Repo.Items().ListPage(ctx.Context(), limit, offset)
	if err != nil {
		return a.renderError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, items)
}

func (a *StorefrontController) ItemGet(ctx router.Context) error {
	item, err := a.Repo.Items().GetByID(ctx.Context(), ctx.Param("id", ""))
	if err != nil {
		return a.renderError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, item)
}

func (a *StorefrontController) ItemCreatePost(ctx router.Context) error {
	actor := CurrentUser(ctx.Context())

	payload := CreateItemPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse payload"))
	}
	if err := payload.Validate(); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid item payload"))
	}

	var created *Item
	handler := NewCreateItemHandler(a.Repo)
	err := handler.Execute(ctx.Context(), CreateItemMessage{
		Actor:       actor,
		Title:       payload.Title,
		Description: payload.Description,
		Image:       payload.Image,
		LargeImage:  payload.LargeImage,
		Price:       payload.Price,
		OnResponse: func(i *Item) {
			created = i
		},
	})
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, created)
}

func (a *StorefrontController) ItemUpdatePut(ctx router.Context) error {
	payload := UpdateItemPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse payload"))
	}

	var updated *Item
	handler := NewUpdateItemHandler(a.Repo)
	err := handler.Execute(ctx.Context(), UpdateItemMessage{
		ID: ctx.Param("id", ""),
		Patch: ItemPatch{
			Title:       payload.Title,
			Description: payload.Description,
			Image:       payload.Image,
			LargeImage:  payload.LargeImage,
			Price:       payload.Price,
		},
		OnResponse: func(i *Item) {
			updated = i
		},
	})
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, updated)
}

func (a *StorefrontController) ItemDelete(ctx router.Context) error {
	var deleted *Item
	handler := NewDeleteItemHandler(a.Repo)
	err := handler.Execute(ctx.Context(), DeleteItemMessage{
		Actor: CurrentUser(ctx.Context()),
		ID:    ctx.Param("id", ""),
		OnResponse: func(i *Item) {
			deleted = i
		},
	})
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, deleted)
}

func (a *StorefrontController) CartAddPost(ctx router.Context) error {
	payload := AddToCartPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse payload"))
	}
	if err := payload.Validate(); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid cart payload"))
	}

	var entry *CartItem
	handler := NewAddToCartHandler(a.Repo)
	err := handler.Execute(ctx.Context(), AddToCartMessage{
		Actor:  CurrentUser(ctx.Context()),
		ItemID: payload.ItemID,
		OnResponse: func(c *CartItem) {
			entry = c
		},
	})
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, entry)
}

func (a *StorefrontController) CartGet(ctx router.Context) error {
	actor, err := RequireUser(ctx.Context())
	if err != nil {
		return a.renderError(ctx, err)
	}

	entries, err := a.Repo.CartItems().ListForUser(ctx.Context(), actor.ID)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, entries)
}

func (a *StorefrontController) CartItemDelete(ctx router.Context) error {
	var removed *CartItem
	handler := NewRemoveFromCartHandler(a.Repo)
	err := handler.Execute(ctx.Context(), RemoveFromCartMessage{
		Actor: CurrentUser(ctx.Context()),
		ID:    ctx.Param("id", ""),
		OnResponse: func(c *CartItem) {
			removed = c
		},
	})
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, removed)
}

func queryInt(ctx router.Context, key string, def int) int {
	raw := ctx.Query(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return def
	}
	return val
}

// the frontend runs on its own origin and sends credentials cross-site,
// which requires SameSite=None with Secure
func (a *StorefrontController) setCookieToken(ctx router.Context, token string) {
	ctx.Cookie(&router.Cookie{
		Name:     a.Config.GetCookieName(),
		Value:    token,
		Expires:  time.Now().Add(SessionTokenDuration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
	})
}

func (a *StorefrontController) clearCookieToken(ctx router.Context) {
	ctx.Cookie(&router.Cookie{
		Name:     a.Config.GetCookieName(),
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
	})
}

// renderError maps the error taxonomy onto HTTP statuses and renders a
// stable JSON body.
func (a *StorefrontController) renderError(ctx router.Context, err error) error {
	status := http.StatusInternalServerError
	body := map[string]any{
		"message": "internal error",
	}

	var rich *errors.Error
	if errors.As(err, &rich) {
		status = statusForError(rich)
		body["message"] = rich.Message
		if rich.TextCode != "" {
			body["text_code"] = rich.TextCode
		}
		if rich.Category != "" {
			body["category"] = rich.Category
		}
	}

	if a.Debug {
		details := ""
		if rich != nil {
			details = print.MaybePrettyJSON(rich.Metadata)
		}
		a.Logger.Error("request failed", "status", status, "error", err, "details", details)
	}

	return ctx.JSON(status, body)
}

func statusForError(rich *errors.Error) int {
	if rich.Code > 0 {
		return rich.Code
	}
	switch rich.Category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
