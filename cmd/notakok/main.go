// Command notakok runs the personal cloud-storage API server.
package main

import (
	"context"

	"github.com/dalemusser/waffle/app"

	"github.com/mariam168/notakok/internal/app/bootstrap"
)

func main() {
	app.Run(context.Background(), bootstrap.Hooks)
}
