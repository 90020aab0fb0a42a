package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/casegen-backend/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	log, err := app.NewLogger()
	if err != nil {
		return err
	}
	a, err := app.New(cmd.Context(), log)
	if err != nil {
		log.Error("Startup failed", "error", err)
		log.Sync()
		return err
	}
	defer a.Close()
	return a.Run(cmd.Context())
}
