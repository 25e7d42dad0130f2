package http

import (
	"go.uber.org/fx"

	"github.com/briochehq/brioche/internal/presentation/http/request"
	dashboardtransport "github.com/briochehq/brioche/internal/transport/http/dashboard"
	ordertransport "github.com/briochehq/brioche/internal/transport/http/order"
	pickuplocationtransport "github.com/briochehq/brioche/internal/transport/http/pickuplocation"
	producttransport "github.com/briochehq/brioche/internal/transport/http/product"
	usertransport "github.com/briochehq/brioche/internal/transport/http/user"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	fx.Provide(request.NewActorResolver),
	ordertransport.Module,
	dashboardtransport.Module,
	producttransport.Module,
	usertransport.Module,
	pickuplocationtransport.Module,
)
