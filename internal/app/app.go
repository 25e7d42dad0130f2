package app

import (
	"go.uber.org/fx"

	"github.com/briochehq/brioche/internal/cache"
	"github.com/briochehq/brioche/internal/config"
	"github.com/briochehq/brioche/internal/database"
	"github.com/briochehq/brioche/internal/logger"
	"github.com/briochehq/brioche/internal/messaging"
	"github.com/briochehq/brioche/internal/notifier"
	"github.com/briochehq/brioche/internal/observability"
	repositoryorder "github.com/briochehq/brioche/internal/repository/order"
	repositorypickuplocation "github.com/briochehq/brioche/internal/repository/pickuplocation"
	repositoryproduct "github.com/briochehq/brioche/internal/repository/product"
	repositoryuser "github.com/briochehq/brioche/internal/repository/user"
	httpserver "github.com/briochehq/brioche/internal/server/http"
	servicedashboard "github.com/briochehq/brioche/internal/service/dashboard"
	serviceorder "github.com/briochehq/brioche/internal/service/order"
	servicepickuplocation "github.com/briochehq/brioche/internal/service/pickuplocation"
	serviceproduct "github.com/briochehq/brioche/internal/service/product"
	serviceuser "github.com/briochehq/brioche/internal/service/user"
	transporthttp "github.com/briochehq/brioche/internal/transport/http"
	"github.com/briochehq/brioche/internal/worker"
	workerorder "github.com/briochehq/brioche/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositoryorder.Module,
	repositoryproduct.Module,
	repositoryuser.Module,
	repositorypickuplocation.Module,
	serviceorder.Module,
	serviceproduct.Module,
	serviceuser.Module,
	servicepickuplocation.Module,
	servicedashboard.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background order-event processing.
var Worker = fx.Options(
	Core,
	notifier.Module,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
