/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/wordindex/internal/app"
	"github.com/eslsoft/wordindex/internal/usecase/importer"
)

const (
	importInputKey   = "import.cli.input"
	importGzipKey    = "import.cli.gzip"
	importCommaKey   = "import.cli.comma"
	importPublishKey = "import.cli.publish"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load word entries from a CSV or TSV file",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		inputPath := viper.GetString(importInputKey)
		gzipEnabled := viper.GetBool(importGzipKey)
		if inputPath == "" {
			return fmt.Errorf("--input is required; use - to read standard input")
		}
		if !gzipEnabled && inputPath != "-" && strings.HasSuffix(strings.ToLower(inputPath), ".gz") {
			gzipEnabled = true
		}
		comma, err := parseComma(viper.GetString(importCommaKey))
		if err != nil {
			return err
		}

		tb, cleanup, err := app.InitializeToolbox()
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		defer cleanup()

		var (
			reader  = cmd.InOrStdin()
			closers []func() error
		)
		if inputPath != "-" {
			file, openErr := os.Open(filepath.Clean(inputPath))
			if openErr != nil {
				return fmt.Errorf("open input: %w", openErr)
			}
			reader = file
			closers = append(closers, file.Close)
		}
		if gzipEnabled {
			gzr, gzErr := gzip.NewReader(reader)
			if gzErr != nil {
				return fmt.Errorf("open gzip stream: %w", gzErr)
			}
			reader = gzr
			closers = append([]func() error{gzr.Close}, closers...)
		}
		defer func() {
			for _, closer := range closers {
				if cerr := closer(); cerr != nil && err == nil {
					err = cerr
				}
			}
		}()

		report, err := tb.Importer.Import(ctx, reader, importer.Format{Comma: comma})
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		cmd.Printf("imported %d of %d rows (skipped %d, failed %d)\n",
			report.Uploaded, report.Total, report.Skipped, report.Failed)

		if viper.GetBool(importPublishKey) && len(report.Words) > 0 {
			status := tb.Index.BulkIndexByWords(ctx, report.Words)
			cmd.Println(status.Message)
			if !status.Success {
				return fmt.Errorf("publish imported words failed")
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("input", "i", "", "input file path, - for standard input")
	importCmd.Flags().Bool("gzip", false, "input is gzip compressed")
	importCmd.Flags().String("comma", ",", "field delimiter: comma, tab or semicolon")
	importCmd.Flags().Bool("publish", false, "index the imported words once stored")

	bindFlagToViper(importInputKey, importCmd.Flags().Lookup("input"))
	bindFlagToViper(importGzipKey, importCmd.Flags().Lookup("gzip"))
	bindFlagToViper(importCommaKey, importCmd.Flags().Lookup("comma"))
	bindFlagToViper(importPublishKey, importCmd.Flags().Lookup("publish"))
}
