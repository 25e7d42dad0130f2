package product

import (
	"context"
	"testing"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/briochehq/brioche/internal/database"
	"github.com/briochehq/brioche/internal/entity"
	repo "github.com/briochehq/brioche/internal/repository/product"
	"github.com/briochehq/brioche/pkg/errorbank"
)

type fakeStore struct {
	products  []*entity.Product
	total     int64
	created   []*entity.Product
	updated   []*entity.Product
	deleted   []int64
	createErr error
	updateErr error
	deleteErr error
}

func (f *fakeStore) Find(ctx context.Context, name string, page database.Pagination) ([]*entity.Product, error) {
	return f.products, nil
}

func (f *fakeStore) Count(ctx context.Context, name string) (int64, error) {
	return f.total, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	for _, product := range f.products {
		if product.ID == id {
			return product, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) Create(ctx context.Context, product *entity.Product) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, product)
	return nil
}

func (f *fakeStore) Update(ctx context.Context, product *entity.Product) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, product)
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestService(store Store) *Service {
	return &Service{store: store, logger: zap.NewNop()}
}

func TestCreateNewIsEmptyAndUnsaved(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	product := svc.CreateNew()
	if product.ID != 0 || product.Name != "" || product.Price != 0 {
		t.Errorf("CreateNew() = %+v, want zero value", product)
	}
	if len(store.created) != 0 {
		t.Error("CreateNew must not persist anything")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		product *entity.Product
	}{
		{"nil payload", nil},
		{"blank name", &entity.Product{Name: "   ", Price: 100}},
		{"negative price", &entity.Product{Name: "Baguette", Price: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			svc := newTestService(store)

			err := svc.Create(context.Background(), tt.product)
			if !errorbank.IsKind(err, errorbank.KindBadRequest) {
				t.Errorf("error = %v, want bad request", err)
			}
			if len(store.created) != 0 {
				t.Error("invalid product must not be persisted")
			}
		})
	}
}

func TestCreateDuplicateNameConflict(t *testing.T) {
	store := &fakeStore{createErr: &mysql.MySQLError{Number: 1062, Message: "duplicate entry"}}
	svc := newTestService(store)

	err := svc.Create(context.Background(), &entity.Product{Name: "Baguette", Price: 250})
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Errorf("error = %v, want conflict", err)
	}
}

func TestUpdateErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		wantKind errorbank.Kind
	}{
		{"missing product", repo.ErrNotFound, errorbank.KindNotFound},
		{"version conflict", repo.ErrConflict, errorbank.KindConflict},
		{"duplicate name", &mysql.MySQLError{Number: 1062}, errorbank.KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{updateErr: tt.storeErr}
			svc := newTestService(store)

			err := svc.Update(context.Background(), &entity.Product{ID: 1, Name: "Baguette", Price: 250})
			if !errorbank.IsKind(err, tt.wantKind) {
				t.Errorf("error = %v, want kind %s", err, tt.wantKind)
			}
		})
	}
}

func TestDeleteReferencedProductConflict(t *testing.T) {
	store := &fakeStore{deleteErr: &mysql.MySQLError{Number: 1451, Message: "row is referenced"}}
	svc := newTestService(store)

	err := svc.Delete(context.Background(), 3)
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Errorf("error = %v, want conflict", err)
	}
}

func TestFindReturnsTotal(t *testing.T) {
	store := &fakeStore{
		products: []*entity.Product{{ID: 1, Name: "Baguette"}},
		total:    41,
	}
	svc := newTestService(store)

	products, total, err := svc.Find(context.Background(), "bag", database.Pagination{Page: 1, Size: 20})
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if len(products) != 1 {
		t.Errorf("len(products) = %d, want 1", len(products))
	}
	if total != 41 {
		t.Errorf("total = %d, want 41", total)
	}
}
