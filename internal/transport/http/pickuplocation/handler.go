package pickuplocation

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
	service "github.com/briochehq/brioche/internal/service/pickuplocation"
	"github.com/briochehq/brioche/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/briochehq/brioche/transport/http/pickuplocation")

// Handler exposes pickup location endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a pickup location Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/locations")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/default", h.getDefault)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	name := c.QueryParam("q")
	page := request.Pagination(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "locations.list")
	defer span.End()

	locations, total, err := h.svc.Find(ctx, name, page)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.PickupLocationResponse, 0, len(locations))
	for _, location := range locations {
		out = append(out, toDTO(location))
	}
	return b.WithData(out).WithPage(page.Page, page.Size, total).Build()
}

func (h *Handler) getDefault(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "locations.getDefault")
	defer span.End()

	location, err := h.svc.GetDefault(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(location)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "locations.getByID", trace.WithAttributes(attribute.Int64("location.id", id)))
	defer span.End()

	location, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(location)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.PickupLocationWriteRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	location := h.svc.CreateNew()
	location.Name = payload.Name

	ctx, span := httpTracer.Start(c.Request().Context(), "locations.create", trace.WithAttributes(attribute.String("location.name", location.Name)))
	defer span.End()

	if err := h.svc.Create(ctx, location); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toDTO(location)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload dto.PickupLocationWriteRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	location := &entity.PickupLocation{
		ID:      id,
		Version: payload.Version,
		Name:    payload.Name,
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "locations.update", trace.WithAttributes(attribute.Int64("location.id", id)))
	defer span.End()

	if err := h.svc.Update(ctx, location); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(location)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "locations.delete", trace.WithAttributes(attribute.Int64("location.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
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

func toDTO(location *entity.PickupLocation) dto.PickupLocationResponse {
	return dto.PickupLocationResponse{
		ID:      location.ID,
		Version: location.Version,
		Name:    location.Name,
	}
}
