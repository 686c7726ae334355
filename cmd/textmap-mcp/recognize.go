package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/textmap-mcp/internal/logger"
	"github.com/ironsheep/textmap-mcp/internal/render"
	"github.com/ironsheep/textmap-mcp/internal/server"
)

func newRecognizeCmd(f *flags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "recognize <image>",
		Short: "Recognize text in an image and print its text map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			log := logger.New(os.Stderr, cfg.Level())

			result, err := server.NewRecognizer(cfg).Recognize(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to recognize text in %s: %w", args[0], err)
			}
			log.Debug("recognized %d blocks in %s", len(result.Blocks), args[0])

			view := render.TextMap(result.Blocks, nil)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			printTextMap(cmd.OutOrStdout(), view)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the text map as JSON")
	return cmd
}

func printTextMap(w io.Writer, view render.TextMapView) {
	if len(view.Elements) == 0 {
		fmt.Fprintln(w, view.Placeholder)
		return
	}
	for _, el := range view.Elements {
		b := el.Bounds
		fmt.Fprintf(w, "[%d] (%d,%d)-(%d,%d)\n%s\n\n", el.Index, b.X1, b.Y1, b.X2, b.Y2, el.Text)
	}
}
