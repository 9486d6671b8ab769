package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tsawler/doctex/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion HTTP server",
	Long: `Serve starts an HTTP server exposing conversion as a service.
POST a multipart form with a "document" file field to /convert and
fetch the result from the returned download URL. Option form fields
mirror the convert command's flags: doc_type, font_size, line_spacing,
image_width, extract_bib, and unicode_support.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := server.New(slog.Default(), viper.GetString("data-dir"))
		if err != nil {
			return err
		}
		return s.ListenAndServe(viper.GetString("addr"))
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("data-dir", "doctex-data", "directory for conversion outputs")

	viper.BindPFlags(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd)
}
