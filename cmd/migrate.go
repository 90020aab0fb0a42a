package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/casegen-backend/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log, err := app.NewLogger()
		if err != nil {
			return err
		}
		defer log.Sync()
		svc, err := app.OpenDB(log)
		if err != nil {
			return err
		}
		log.Info("Schema migrated")
		return svc.Close()
	},
}
