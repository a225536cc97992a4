package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type searchHit struct {
	DocumentId string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Filename   string  `json:"filename"`
	Page       *int    `json:"page,omitempty"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

func newSearchCmd(c *cli) *cobra.Command {
	var collection string
	var k int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Show the nearest chunks for a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			if k < 1 {
				k = c.settings.TopK
			}
			hits, err := app.Rag.Retrieve(cmd.Context(), args[0], c.collection(collection), k)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			out := make([]searchHit, 0, len(hits))
			for _, h := range hits {
				out = append(out, searchHit{
					DocumentId: h.Entry.DocumentId,
					ChunkIndex: h.Entry.ChunkIndex,
					Filename:   h.Entry.Metadata.Filename,
					Page:       h.Entry.Metadata.Page,
					Score:      h.Score,
					Content:    h.Entry.Content,
				})
			}
			if c.asJSON {
				return printJSON(cmd, out)
			}
			if len(out) == 0 {
				cmd.Println("No results found.")
				return nil
			}
			for i, h := range out {
				location := h.Filename
				if h.Page != nil {
					location = fmt.Sprintf("%s p.%d", h.Filename, *h.Page)
				}
				cmd.Printf("  [%d] %s (%.4f)\n", i+1, location, h.Score)
				cmd.Printf("      %s\n", snippet(h.Content, 120))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "collection to search")
	cmd.Flags().IntVarP(&k, "limit", "k", 0, "number of results (default RETRIEVAL_TOP_K)")
	return cmd
}

func newAskCmd(c *cli) *cobra.Command {
	var collection string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the indexed documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			answer, err := app.Rag.Answer(cmd.Context(), args[0], c.collection(collection))
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd, answer)
			}
			cmd.Println(answer.Text)
			if len(answer.Citations) > 0 {
				cmd.Println()
				cmd.Println("Sources:")
				for _, citation := range answer.Citations {
					if citation.Page != nil {
						cmd.Printf("  - %s (page %d)\n", citation.Filename, *citation.Page)
					} else {
						cmd.Printf("  - %s\n", citation.Filename)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "collection to search")
	return cmd
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
