package main

import (
	"context"
	"fmt"
	"log"

	"github.com/narratlas/narratlas/internal/server"
	"github.com/narratlas/narratlas/internal/server/config"
)

// set via -ldflags at build time
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	fmt.Printf("Narratlas API server\nVersion: %s\nBuild date: %s\n", version, buildDate)

	ctx := context.Background()
	cfg := config.NewConfig()

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
