package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/unipilot/unipilot/internal/domain"
	"github.com/unipilot/unipilot/internal/service"
)

// IngestCmd uploads a local file into a project's document store
func IngestCmd() *cobra.Command {
	var (
		userID   string
		mimeType string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "ingest <project-id> <file>",
		Short: "Ingest a local document into a project",
		Long:  "Extract, chunk and embed a local PDF, text or Markdown file for the given project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[1], err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			doc, err := a.documents.Upload(ctx, service.UploadInput{
				UserID:    userID,
				ProjectID: args[0],
				Filename:  filepath.Base(args[1]),
				MimeType:  mimeType,
				Data:      data,
			})
			if doc != nil {
				if perr := printDocument(cmd.OutOrStdout(), doc, output); perr != nil {
					return perr
				}
			}
			if err != nil {
				return fmt.Errorf("ingestion failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Owner of the project")
	cmd.Flags().StringVar(&mimeType, "mime-type", "", "Content type (detected from the extension when empty)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text or json)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func printDocument(w io.Writer, doc *domain.Document, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	_, err := fmt.Fprintf(w, "Document %s (%s): %s, %d chunks\n", doc.Filename, doc.ID, doc.Status, doc.ChunkCount)
	return err
}
