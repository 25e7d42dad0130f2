package product

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/briochehq/brioche/internal/database"
	"github.com/briochehq/brioche/internal/entity"
	repo "github.com/briochehq/brioche/internal/repository/product"
	"github.com/briochehq/brioche/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/briochehq/brioche/service/product")

// Store is the repository surface the service depends on.
type Store interface {
	Find(ctx context.Context, name string, page database.Pagination) ([]*entity.Product, error)
	Count(ctx context.Context, name string) (int64, error)
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	Create(ctx context.Context, product *entity.Product) error
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id int64) error
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Logger     *zap.Logger
}

// Service encapsulates business logic around catalog products.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{store: p.Repository, logger: p.Logger}
}

// CreateNew returns an empty, unsaved product for an editor to fill in.
func (s *Service) CreateNew() *entity.Product {
	return entity.NewProduct()
}

// Find returns one page of products matching name together with the total
// count under the same filter.
func (s *Service) Find(ctx context.Context, name string, page database.Pagination) ([]*entity.Product, int64, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.Find")
	defer span.End()

	products, err := s.store.Find(ctx, name, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list products", errorbank.WithCause(err))
	}

	total, err := s.store.Count(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to count products", errorbank.WithCause(err))
	}

	return products, total, nil
}

// Get retrieves a product by id.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.Get", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	product, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
	}
	return product, nil
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, product *entity.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	ctx, span := serviceTracer.Start(ctx, "ProductService.Create", trace.WithAttributes(attribute.String("product.name", product.Name)))
	defer span.End()

	if err := s.store.Create(ctx, product); err != nil {
		if database.IsUniqueViolation(err) {
			return errorbank.Conflict("product name already in use")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to create product", errorbank.WithCause(err))
	}
	return nil
}

// Update validates and writes the product under its optimistic version check.
func (s *Service) Update(ctx context.Context, product *entity.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	ctx, span := serviceTracer.Start(ctx, "ProductService.Update", trace.WithAttributes(attribute.Int64("product.id", product.ID)))
	defer span.End()

	if err := s.store.Update(ctx, product); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return errorbank.NotFound("product not found")
		case errors.Is(err, repo.ErrConflict):
			return errorbank.Conflict("the product was modified by someone else")
		case database.IsUniqueViolation(err):
			return errorbank.Conflict("product name already in use")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to update product", errorbank.WithCause(err))
	}
	return nil
}

// Delete removes a product unless existing order items still reference it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "ProductService.Delete", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if err := s.store.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return errorbank.NotFound("product not found")
		case database.IsForeignKeyViolation(err):
			return errorbank.Conflict("product is used by existing orders")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete product", errorbank.WithCause(err))
	}
	return nil
}

func validateProduct(product *entity.Product) error {
	if product == nil {
		return errorbank.BadRequest("product payload is required")
	}
	if strings.TrimSpace(product.Name) == "" {
		return errorbank.BadRequest("product name is required")
	}
	if product.Price < 0 {
		return errorbank.BadRequest("product price cannot be negative")
	}
	return nil
}
