package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tsawler/doctex"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert documents between DOCX and LaTeX",
	Long: `Convert transforms each input file to the opposite format: .docx
inputs become .tex and .tex or .latex inputs become .docx. With a
single input, --output sets the destination path; otherwise outputs
are written next to their inputs (or into --out-dir) with the
extension swapped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output := viper.GetString("output")
		if output != "" && len(args) > 1 {
			return fmt.Errorf("--output is only valid with a single input file")
		}

		configure := func(c *doctex.Converter) *doctex.Converter {
			c = c.DocType(viper.GetString("doc-type")).
				FontSize(viper.GetInt("font-size")).
				Margins(viper.GetString("margins")).
				LineSpacing(viper.GetFloat64("line-spacing")).
				ImageWidth(viper.GetFloat64("image-width"))
			if viper.GetBool("extract-bib") {
				c = c.ExtractBib()
			}
			if viper.GetBool("unicode") {
				c = c.Unicode()
			}
			if viper.GetBool("fragment") {
				c = c.FragmentOnly()
			}
			return c
		}

		if len(args) == 1 {
			conv := configure(doctex.Convert(args[0]))
			var result doctex.Result
			var warnings []doctex.Warning
			var err error
			if output != "" {
				result, warnings, err = conv.RunTo(output)
			} else {
				result, warnings, err = conv.Run()
			}
			if err != nil {
				return err
			}
			reportWarnings(args[0], warnings)
			fmt.Printf("%s -> %s (%d bytes)\n", args[0], result.OutputPath, result.Size)
			return nil
		}

		outDir := viper.GetString("out-dir")
		if outDir == "" {
			outDir = "."
		}
		workers := viper.GetInt("workers")
		if workers < 1 {
			workers = runtime.NumCPU()
		}

		failed := 0
		for _, r := range doctex.ConvertAll(args, outDir, workers, configure) {
			if r.Err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: %v\n", r.Input, r.Err)
				continue
			}
			reportWarnings(r.Input, r.Warnings)
			fmt.Printf("%s -> %s (%d bytes)\n", r.Input, r.Result.OutputPath, r.Result.Size)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d conversions failed", failed, len(args))
		}
		return nil
	},
}

func reportWarnings(input string, warnings []doctex.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "%s: warning: %s\n", input, w)
	}
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "output file path (single input only)")
	convertCmd.Flags().String("out-dir", "", "output directory for batch conversion")
	convertCmd.Flags().String("doc-type", "article", "LaTeX document class: article, report, or book")
	convertCmd.Flags().Int("font-size", 12, "base font size in points (10-14)")
	convertCmd.Flags().String("margins", "margin=1in", "geometry package options")
	convertCmd.Flags().Float64("line-spacing", 1.0, "line spacing multiplier (0.5-3.0)")
	convertCmd.Flags().Float64("image-width", 0.8, "image width as a fraction of line width")
	convertCmd.Flags().Bool("extract-bib", false, "lift a References section into a structured bibliography")
	convertCmd.Flags().Bool("unicode", false, "enable Unicode support in generated LaTeX")
	convertCmd.Flags().Bool("fragment", false, "emit LaTeX body only, without a preamble")
	convertCmd.Flags().Int("workers", 0, "parallel conversions for batch mode (default: CPU count)")

	viper.BindPFlags(convertCmd.Flags())

	rootCmd.AddCommand(convertCmd)
}
