package user

import (
	"context"
	"testing"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/briochehq/brioche/internal/database"
	"github.com/briochehq/brioche/internal/entity"
	repo "github.com/briochehq/brioche/internal/repository/user"
	"github.com/briochehq/brioche/pkg/errorbank"
)

type fakeStore struct {
	users     map[int64]*entity.User
	created   []*entity.User
	updated   []*entity.User
	deleted   []int64
	createErr error
	updateErr error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[int64]*entity.User)}
}

func (f *fakeStore) Find(ctx context.Context, text string, page database.Pagination) ([]*entity.User, error) {
	return nil, nil
}

func (f *fakeStore) Count(ctx context.Context, text string) (int64, error) {
	return 0, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) Create(ctx context.Context, user *entity.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, user)
	return nil
}

func (f *fakeStore) Update(ctx context.Context, user *entity.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, user)
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

func validUser() *entity.User {
	return &entity.User{
		Email:     "ann@brioche.dev",
		FirstName: "Ann",
		LastName:  "Bananas",
		Role:      entity.RoleBarista,
	}
}

func TestCreateHashesPassword(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	user := validUser()
	user.Email = " ANN@Brioche.DEV "
	if err := svc.Create(context.Background(), user, "Secret1a"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("created %d users, want 1", len(store.created))
	}
	created := store.created[0]
	if created.Email != "ann@brioche.dev" {
		t.Errorf("email = %q, want lowercased trimmed", created.Email)
	}
	if created.PasswordHash == "" || created.PasswordHash == "Secret1a" {
		t.Errorf("password hash = %q, want bcrypt hash", created.PasswordHash)
	}
	if !CheckPassword(created, "Secret1a") {
		t.Error("stored hash does not verify against the original password")
	}
	if CheckPassword(created, "wrong") {
		t.Error("stored hash verifies against a wrong password")
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*entity.User)
		password string
	}{
		{"bad email", func(u *entity.User) { u.Email = "not-an-email" }, "Secret1a"},
		{"missing first name", func(u *entity.User) { u.FirstName = " " }, "Secret1a"},
		{"missing last name", func(u *entity.User) { u.LastName = "" }, "Secret1a"},
		{"unknown role", func(u *entity.User) { u.Role = "janitor" }, "Secret1a"},
		{"password too short", func(u *entity.User) {}, "Ab1"},
		{"password without digit", func(u *entity.User) {}, "Abcdefg"},
		{"password without uppercase", func(u *entity.User) {}, "abcdef1"},
		{"password without lowercase", func(u *entity.User) {}, "ABCDEF1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newTestService(store)

			user := validUser()
			tt.mutate(user)

			err := svc.Create(context.Background(), user, tt.password)
			if !errorbank.IsKind(err, errorbank.KindBadRequest) {
				t.Errorf("error = %v, want bad request", err)
			}
			if len(store.created) != 0 {
				t.Error("invalid user must not be persisted")
			}
		})
	}
}

func TestCreateDuplicateEmailConflict(t *testing.T) {
	store := newFakeStore()
	store.createErr = &mysql.MySQLError{Number: 1062, Message: "duplicate entry"}
	svc := newTestService(store)

	err := svc.Create(context.Background(), validUser(), "Secret1a")
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Errorf("error = %v, want conflict", err)
	}
}

func TestUpdateBlankPasswordKeepsHash(t *testing.T) {
	store := newFakeStore()
	store.users[5] = &entity.User{ID: 5, Version: 2, PasswordHash: "$stored$hash"}
	svc := newTestService(store)

	user := validUser()
	user.ID = 5
	user.Version = 2
	if err := svc.Update(context.Background(), user, ""); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if len(store.updated) != 1 {
		t.Fatalf("updated %d users, want 1", len(store.updated))
	}
	if store.updated[0].PasswordHash != "$stored$hash" {
		t.Errorf("hash = %q, want the stored hash kept", store.updated[0].PasswordHash)
	}
}

func TestUpdateNewPasswordRehashes(t *testing.T) {
	store := newFakeStore()
	store.users[5] = &entity.User{ID: 5, PasswordHash: "$stored$hash"}
	svc := newTestService(store)

	user := validUser()
	user.ID = 5
	if err := svc.Update(context.Background(), user, "Fresh1pw"); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	updated := store.updated[0]
	if updated.PasswordHash == "$stored$hash" {
		t.Error("hash unchanged, want a fresh bcrypt hash")
	}
	if !CheckPassword(updated, "Fresh1pw") {
		t.Error("new hash does not verify against the new password")
	}
}

func TestUpdateLockedUserConflict(t *testing.T) {
	store := newFakeStore()
	store.users[5] = &entity.User{ID: 5, Locked: true}
	svc := newTestService(store)

	user := validUser()
	user.ID = 5
	err := svc.Update(context.Background(), user, "")
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Errorf("error = %v, want conflict", err)
	}
	if len(store.updated) != 0 {
		t.Error("locked user must not be updated")
	}
}

func TestUpdateVersionConflict(t *testing.T) {
	store := newFakeStore()
	store.users[5] = &entity.User{ID: 5}
	store.updateErr = repo.ErrConflict
	svc := newTestService(store)

	user := validUser()
	user.ID = 5
	err := svc.Update(context.Background(), user, "")
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Errorf("error = %v, want conflict", err)
	}
}

func TestDeleteSelfConflict(t *testing.T) {
	store := newFakeStore()
	store.users[5] = &entity.User{ID: 5}
	svc := newTestService(store)

	err := svc.Delete(context.Background(), &entity.User{ID: 5}, 5)
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Errorf("error = %v, want conflict", err)
	}
	if len(store.deleted) != 0 {
		t.Error("self-delete must not reach the store")
	}
}

func TestDeleteLockedUserConflict(t *testing.T) {
	store := newFakeStore()
	store.users[5] = &entity.User{ID: 5, Locked: true}
	svc := newTestService(store)

	err := svc.Delete(context.Background(), &entity.User{ID: 1}, 5)
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Errorf("error = %v, want conflict", err)
	}
	if len(store.deleted) != 0 {
		t.Error("locked user must not be deleted")
	}
}

func TestDelete(t *testing.T) {
	store := newFakeStore()
	store.users[5] = &entity.User{ID: 5}
	svc := newTestService(store)

	if err := svc.Delete(context.Background(), &entity.User{ID: 1}, 5); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 5 {
		t.Errorf("deleted = %v, want [5]", store.deleted)
	}
}

func TestDeleteUnknownUserNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	err := svc.Delete(context.Background(), &entity.User{ID: 1}, 99)
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}
