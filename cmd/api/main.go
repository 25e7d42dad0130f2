package main

import (
	"go.uber.org/fx"

	"github.com/briochehq/brioche/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
