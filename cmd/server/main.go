package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/threatscope/internal/server"
	"github.com/dmitrijs2005/threatscope/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	err = app.Run(ctx)
	if cerr := app.Close(); cerr != nil {
		log.Printf("db close: %v", cerr)
	}
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

}
