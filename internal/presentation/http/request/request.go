package request

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/briochehq/brioche/internal/database"
	"github.com/briochehq/brioche/internal/entity"
	usersvc "github.com/briochehq/brioche/internal/service/user"
)

// ActorHeader names the header carrying the acting staff user's id. Session
// authentication happens in the fronting proxy, which forwards the id here.
const ActorHeader = "X-Actor-Id"

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// Pagination reads the page and size query parameters, applying defaults
// and the size cap.
func Pagination(c echo.Context) database.Pagination {
	page := intQueryParam(c, "page", 1)
	if page < 1 {
		page = 1
	}

	size := intQueryParam(c, "size", defaultPageSize)
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	return database.Pagination{Page: page, Size: size}
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

// ActorResolver loads the acting staff user named by the actor header.
type ActorResolver struct {
	users *usersvc.Service
}

// NewActorResolver constructs an ActorResolver backed by the user service.
func NewActorResolver(users *usersvc.Service) *ActorResolver {
	return &ActorResolver{users: users}
}

// Resolve returns the user the actor header points at, or nil when the
// header is absent, malformed, or names no existing user. Anonymous
// requests are served; they just leave no author on order history.
func (r *ActorResolver) Resolve(c echo.Context) *entity.User {
	raw := c.Request().Header.Get(ActorHeader)
	if raw == "" {
		return nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}

	user, err := r.users.Get(c.Request().Context(), id)
	if err != nil {
		return nil
	}
	return user
}
