package pickuplocation

import "go.uber.org/fx"

// Module provides the pickup location service to Fx.
var Module = fx.Provide(NewService)
