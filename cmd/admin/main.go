// Command admin manages admin accounts of a threatscope deployment. It reads
// the same configuration as the server.
//
//	admin create [-d dsn]
//	admin promote <email> [-d dsn]
//	admin demote <email> [-d dsn]
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/threatscope/internal/admincli"
	"github.com/dmitrijs2005/threatscope/internal/server"
	"github.com/dmitrijs2005/threatscope/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	cfg.LogLevel = "warn"

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	err = admincli.New(app.Accounts(), os.Stdin, os.Stdout).Run(ctx, admincli.Command(os.Args[1:]))
	_ = app.Close()
	if err != nil {
		log.Fatalf("%v", err)
	}
}
