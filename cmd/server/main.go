package main

import (
	"context"
	"log"

	"github.com/privnotes/notes/internal/server"
	"github.com/privnotes/notes/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
