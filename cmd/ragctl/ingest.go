package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/akolanti/DocChat/internal/domain/jobModel"
	"github.com/akolanti/DocChat/internal/domain/ragErrors"
	"github.com/akolanti/DocChat/internal/rag/ingest"
	"github.com/spf13/cobra"
)

func newIngestCmd(c *cli) *cobra.Command {
	var collection, user string

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest a local pdf, docx or txt file synchronously",
		Long: `Runs extraction, chunking, embedding and persistence in the foreground,
printing each step as it happens. Use this for bulk loads; the HTTP API queues
the same work on the worker pool.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			path := args[0]
			req := ingest.Request{
				Path:       path,
				FileName:   filepath.Base(path),
				Source:     path,
				UploadedBy: user,
				Collection: c.collection(collection),
			}
			result, err := app.Rag.IngestDocument(cmd.Context(), req, func(step jobModel.InternalStatus) {
				if !c.asJSON {
					cmd.Printf("  %s\n", step)
				}
			})
			if err != nil && !errors.Is(err, ragErrors.ErrConsistencyGap) {
				return fmt.Errorf("ingesting %s: %w", path, err)
			}
			if c.asJSON {
				return printJSON(cmd, result)
			}
			cmd.Printf("Document %s: %d chunks, %d dimensions\n", result.DocumentId, result.ChunkCount, result.Dimension)
			if result.IndexPending {
				cmd.Println("Vectors are not searchable yet; run `ragctl reconcile` once the vector store is back.")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "target collection (default from VECTOR_STORE_COLLECTION)")
	cmd.Flags().StringVarP(&user, "user", "u", "ragctl", "recorded as the uploader")
	return cmd
}
