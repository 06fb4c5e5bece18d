package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/licensing-crm-backend/internal/app"
	"github.com/yungbote/licensing-crm-backend/internal/data/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the CRM schema and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := app.NewLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			pg, err := app.OpenDB(log, db.ConfigFromEnv(log))
			if err != nil {
				return err
			}
			defer pg.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
