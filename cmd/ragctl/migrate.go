package main

import (
	"github.com/akolanti/DocChat/internal/data/relationalStore"
	"github.com/akolanti/DocChat/internal/rag/vectorDB/pgvectorDB"
	"github.com/spf13/cobra"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the postgres schema",
		Long:  `Creates the relational tables, and the pgvector tables when VECTOR_BACKEND=pgvector.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := relationalStore.Open(c.settings.DatabaseURL, c.settings.DBTimeout)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("relational schema is up to date")

			if c.settings.VectorBackend == "pgvector" {
				if err := pgvectorDB.NewPgVectorIndex(db.DB()).Migrate(cmd.Context()); err != nil {
					return err
				}
				cmd.Println("pgvector schema is up to date")
			}
			return nil
		},
	}
}
