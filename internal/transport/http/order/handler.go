package order

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/briochehq/brioche/internal/dto"
	"github.com/briochehq/brioche/internal/entity"
	"github.com/briochehq/brioche/internal/presentation/http/request"
	"github.com/briochehq/brioche/internal/presentation/http/response"
	repo "github.com/briochehq/brioche/internal/repository/order"
	service "github.com/briochehq/brioche/internal/service/order"
	"github.com/briochehq/brioche/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/briochehq/brioche/transport/http/order")

const dateLayout = "2006-01-02"

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc    *service.Service
	actors *request.ActorResolver
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service, actors *request.ActorResolver) *Handler {
	return &Handler{svc: svc, actors: actors}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/upcoming", h.upcoming)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/comments", h.addComment)
	g.POST("/:id/state", h.changeState)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	filter := repo.Filter{Name: c.QueryParam("q")}
	if raw := c.QueryParam("due_after"); raw != "" {
		day, err := time.Parse(dateLayout, raw)
		if err != nil {
			return b.WithError(errorbank.BadRequest("due_after must use YYYY-MM-DD")).Build()
		}
		filter.DueAfter = &day
	}
	page := request.Pagination(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	orders, total, err := h.svc.Find(ctx, filter, page)
	if err != nil {
		return b.WithError(err).Build()
	}

	summaries := make([]dto.OrderSummaryResponse, 0, len(orders))
	for _, order := range orders {
		summaries = append(summaries, toSummaryDTO(order))
	}
	return b.WithData(summaries).WithPage(page.Page, page.Size, total).Build()
}

func (h *Handler) upcoming(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.upcoming")
	defer span.End()

	orders, err := h.svc.StartingToday(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	summaries := make([]dto.OrderSummaryResponse, 0, len(orders))
	for _, order := range orders {
		summaries = append(summaries, toSummaryDTO(order))
	}
	return b.WithData(summaries).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.OrderWriteRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create")
	defer span.End()

	order, err := h.svc.SaveOrder(ctx, h.actors.Resolve(c), nil, applyWrite(payload))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(toDTO(order)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload dto.OrderWriteRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.SaveOrder(ctx, h.actors.Resolve(c), &id, applyWrite(payload))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.Build()
}

func (h *Handler) addComment(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.addComment", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.AddComment(ctx, h.actors.Resolve(c), id, payload.Message)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(order)).Build()
}

func (h *Handler) changeState(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload struct {
		State string `json:"state"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.changeState", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.state", payload.State),
	))
	defer span.End()

	order, err := h.svc.ChangeState(ctx, h.actors.Resolve(c), id, entity.OrderState(payload.State))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(toDTO(order)).Build()
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithCause(err))
	}
	return id, nil
}

// applyWrite maps the payload onto the loaded or freshly created order.
// Blank due date and time keep what the order already has, so creates pick
// up the defaults.
func applyWrite(payload dto.OrderWriteRequest) service.Filler {
	return func(actor *entity.User, order *entity.Order) error {
		if payload.Version > 0 {
			order.Version = payload.Version
		}
		if payload.DueDate != "" {
			dueDate, err := time.Parse(dateLayout, payload.DueDate)
			if err != nil {
				return errorbank.BadRequest("due_date must use YYYY-MM-DD")
			}
			order.DueDate = dueDate
		}
		if payload.DueTime != "" {
			order.DueTime = payload.DueTime
		}
		if payload.PickupLocationID != 0 {
			order.PickupLocationID = payload.PickupLocationID
			order.PickupLocation = nil
		}

		if order.Customer == nil {
			order.Customer = &entity.Customer{}
		}
		order.Customer.FullName = payload.Customer.FullName
		order.Customer.PhoneNumber = payload.Customer.PhoneNumber
		order.Customer.Details = payload.Customer.Details

		items := make([]*entity.OrderItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, &entity.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Comment:   item.Comment,
			})
		}
		order.Items = items
		return nil
	}
}

func toDTO(order *entity.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:         order.ID,
		Version:    order.Version,
		DueDate:    order.DueDate.Format(dateLayout),
		DueTime:    order.DueTime,
		State:      string(order.State),
		Items:      toItemDTOs(order.Items),
		TotalPrice: order.TotalPrice(),
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
	if order.Customer != nil {
		resp.Customer = &dto.CustomerResponse{
			ID:          order.Customer.ID,
			FullName:    order.Customer.FullName,
			PhoneNumber: order.Customer.PhoneNumber,
			Details:     order.Customer.Details,
		}
	}
	if order.PickupLocation != nil {
		resp.PickupLocation = &dto.PickupLocationResponse{
			ID:      order.PickupLocation.ID,
			Version: order.PickupLocation.Version,
			Name:    order.PickupLocation.Name,
		}
	}
	for _, item := range order.History {
		entry := dto.HistoryItemResponse{
			ID:        item.ID,
			NewState:  string(item.NewState),
			Message:   item.Message,
			CreatedAt: item.CreatedAt,
		}
		if item.CreatedBy != nil {
			entry.CreatedBy = item.CreatedBy.FullName()
		}
		resp.History = append(resp.History, entry)
	}
	return resp
}

func toSummaryDTO(order *entity.Order) dto.OrderSummaryResponse {
	summary := dto.OrderSummaryResponse{
		ID:         order.ID,
		State:      string(order.State),
		DueDate:    order.DueDate.Format(dateLayout),
		DueTime:    order.DueTime,
		Items:      toItemDTOs(order.Items),
		TotalPrice: order.TotalPrice(),
	}
	if order.Customer != nil {
		summary.CustomerName = order.Customer.FullName
	}
	return summary
}

func toItemDTOs(items []*entity.OrderItem) []dto.OrderItemResponse {
	out := make([]dto.OrderItemResponse, 0, len(items))
	for _, item := range items {
		resp := dto.OrderItemResponse{
			ID:         item.ID,
			Quantity:   item.Quantity,
			Comment:    item.Comment,
			TotalPrice: item.TotalPrice(),
		}
		if item.Product != nil {
			resp.Product = &dto.ProductResponse{
				ID:        item.Product.ID,
				Version:   item.Product.Version,
				Name:      item.Product.Name,
				Price:     item.Product.Price,
				CreatedAt: item.Product.CreatedAt,
				UpdatedAt: item.Product.UpdatedAt,
			}
		}
		out = append(out, resp)
	}
	return out
}
