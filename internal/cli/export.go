package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/unipilot/unipilot/internal/service"
)

// ExportCmd writes a session transcript as Markdown or JSON
func ExportCmd() *cobra.Command {
	var (
		userID  string
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a chat session",
		Long:  "Export the full history of a chat session as Markdown or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exportFormat, err := service.ParseExportFormat(format)
			if err != nil {
				return err
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

			export, err := a.chat.Export(ctx, userID, args[0])
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			w := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outPath, err)
				}
				defer f.Close()
				w = f
			}
			return writeExport(w, export, exportFormat)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Owner of the session")
	cmd.Flags().StringVarP(&format, "format", "f", "md", "Export format (md or json)")
	cmd.Flags().StringVarP(&outPath, "out", "O", "", "Write to a file instead of stdout")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func writeExport(w io.Writer, export *service.SessionExport, format service.ExportFormat) error {
	if format == service.ExportFormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(export)
	}
	_, err := io.WriteString(w, service.RenderMarkdown(export))
	return err
}
