package user

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/briochehq/brioche/internal/dto"
	"github.com/briochehq/brioche/internal/entity"
	"github.com/briochehq/brioche/internal/presentation/http/request"
	"github.com/briochehq/brioche/internal/presentation/http/response"
	service "github.com/briochehq/brioche/internal/service/user"
	"github.com/briochehq/brioche/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/briochehq/brioche/transport/http/user")

// Handler exposes staff account endpoints over HTTP.
type Handler struct {
	svc    *service.Service
	actors *request.ActorResolver
}

// NewHandler constructs a user Handler.
func NewHandler(svc *service.Service, actors *request.ActorResolver) *Handler {
	return &Handler{svc: svc, actors: actors}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/users")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	text := c.QueryParam("q")
	page := request.Pagination(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "users.list")
	defer span.End()

	users, total, err := h.svc.Find(ctx, text, page)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toDTO(user))
	}
	return b.WithData(out).WithPage(page.Page, page.Size, total).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.getByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	user, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(user)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.UserWriteRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	user := &entity.User{
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Role:      payload.Role,
		Locked:    payload.Locked,
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.create", trace.WithAttributes(attribute.String("user.email", payload.Email)))
	defer span.End()

	if err := h.svc.Create(ctx, user, payload.Password); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toDTO(user)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload dto.UserWriteRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	user := &entity.User{
		ID:        id,
		Version:   payload.Version,
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Role:      payload.Role,
		Locked:    payload.Locked,
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.update", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	if err := h.svc.Update(ctx, user, payload.Password); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(user)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.delete", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, h.actors.Resolve(c), id); err != nil {
		return b.WithError(err).Build()
	}
	return b.Build()
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithCause(err))
	}
	return id, nil
}

func toDTO(user *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Version:   user.Version,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		Locked:    user.Locked,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
