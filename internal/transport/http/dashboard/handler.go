package dashboard

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/briochehq/brioche/internal/presentation/http/response"
	service "github.com/briochehq/brioche/internal/service/dashboard"
)

var httpTracer = otel.Tracer("github.com/briochehq/brioche/transport/http/dashboard")

// Handler exposes the staff dashboard over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a dashboard Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/dashboard", h.get)
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)

	now := time.Now()
	month := intQueryParam(c, "month", int(now.Month()))
	year := intQueryParam(c, "year", now.Year())

	ctx, span := httpTracer.Start(c.Request().Context(), "dashboard.get", trace.WithAttributes(
		attribute.Int("dashboard.month", month),
		attribute.Int("dashboard.year", year),
	))
	defer span.End()

	data, err := h.svc.GetDashboardData(ctx, time.Month(month), year)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(data).Build()
}

func intQueryParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
