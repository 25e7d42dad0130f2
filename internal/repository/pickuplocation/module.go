package pickuplocation

import "go.uber.org/fx"

// Module provides the pickup location repository to Fx.
var Module = fx.Provide(NewRepository)
