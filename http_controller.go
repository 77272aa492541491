package ident

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

type AuthControllerRoutes struct {
	Register   string
	Login      string
	AssignRole string
	Health     string
}

// AuthController is the thin JSON shim over the Authenticator. All decisions
// live in the orchestrator; handlers only bind, validate, and map errors to
// HTTP statuses.
type AuthController struct {
	Debug  bool
	Logger Logger
	Auth   Authenticator
	Routes *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register:   "/auth/register",
			Login:      "/auth/login",
			AssignRole: "/auth/roles/assign",
			Health:     "/healthz",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auth == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

func WithAuthenticator(auth Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auth = auth
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

// RegisterAuthRoutes mounts the controller on the app. Guards run before the
// role-assignment handler only; register and login stay public.
func RegisterAuthRoutes(app *fiber.App, controller *AuthController, assignGuards ...fiber.Handler) {
	app.Post(controller.Routes.Register, controller.RegisterPost)
	app.Post(controller.Routes.Login, controller.LoginPost)

	handlers := append(assignGuards, controller.AssignRolePost)
	app.Post(controller.Routes.AssignRole, handlers...)

	app.Get(controller.Routes.Health, controller.Health)
}

// RegisterRequest payload
type RegisterRequest struct {
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	DisplayName     string `form:"display_name" json:"display_name"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(3, 64),
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
		),
	)
}

// LoginRequest payload
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// AssignRoleRequest payload
type AssignRoleRequest struct {
	Username string `form:"username" json:"username"`
	Role     string `form:"role" json:"role"`
}

// Validate will run validation rules
func (r AssignRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
		),
		validation.Field(
			&r.Role,
			validation.Required,
		),
	)
}

func (a *AuthController) RegisterPost(ctx *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "unable to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "validation failed",
			"validation": err.Error(),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	err := a.Auth.Register(ctx.Context(), RegisterInput{
		Username:        payload.Username,
		Email:           payload.Email,
		DisplayName:     payload.DisplayName,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	})
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "registered",
	})
}

func (a *AuthController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "unable to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "validation failed",
			"validation": err.Error(),
		})
	}

	account, token, err := a.Auth.Login(ctx.Context(), payload.Username, payload.Password)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"token":   token,
		"account": account,
	})
}

func (a *AuthController) AssignRolePost(ctx *fiber.Ctx) error {
	payload := new(AssignRoleRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return badRequest(ctx, "unable to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      "validation failed",
			"validation": err.Error(),
		})
	}

	if err := a.Auth.AssignRole(ctx.Context(), payload.Username, payload.Role); err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (a *AuthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}

// renderError maps the error taxonomy onto HTTP statuses. Internal detail is
// logged, never serialized; validation errors ship their full violation list.
func (a *AuthController) renderError(ctx *fiber.Ctx, err error) error {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		a.Logger.Error("unexpected error type", "error", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "unexpected error",
		})
	}

	status := statusFromCategory(rich.Category)
	body := fiber.Map{
		"error": rich.Message,
	}
	if rich.TextCode != "" {
		body["code"] = rich.TextCode
	}
	if violations := PolicyViolations(err); len(violations) > 0 {
		body["violations"] = violations
	}

	if status >= fiber.StatusInternalServerError {
		a.Logger.Error("request failed", "status", status, "error", err)
	}

	return ctx.Status(status).JSON(body)
}

func statusFromCategory(category errors.Category) int {
	switch category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return fiber.StatusBadRequest
	case errors.CategoryConflict:
		return fiber.StatusConflict
	case errors.CategoryAuth:
		return fiber.StatusUnauthorized
	case errors.CategoryAuthz:
		return fiber.StatusForbidden
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func badRequest(ctx *fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}
