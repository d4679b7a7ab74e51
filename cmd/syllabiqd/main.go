package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/syllabiq/syllabiq/internal/cli"
	"github.com/syllabiq/syllabiq/internal/cli/admin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := admin.NewRootCmd()
	cli.AddHelpJSONFlag(rootCmd)
	cli.CheckHelpJSON(rootCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
