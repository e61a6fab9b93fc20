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
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/wordindex/internal/app"
	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/usecase/importer"
)

const (
	exportOutputKey = "export.output"
	exportGzipKey   = "export.gzip"
	exportCommaKey  = "export.comma"
	exportStatesKey = "export.states"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write word entries to a file the import command can read",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		outputPath := viper.GetString(exportOutputKey)
		gzipEnabled := viper.GetBool(exportGzipKey)
		comma, err := parseComma(viper.GetString(exportCommaKey))
		if err != nil {
			return err
		}
		states, err := statesFromConfig(exportStatesKey)
		if err != nil {
			return err
		}
		if outputPath == "" {
			outputPath = defaultExportFilename(comma, gzipEnabled)
		}
		if !gzipEnabled && outputPath != "-" && strings.HasSuffix(strings.ToLower(outputPath), ".gz") {
			gzipEnabled = true
		}

		tb, cleanup, err := app.InitializeToolbox()
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		defer cleanup()

		var (
			writer   = cmd.OutOrStdout()
			closeFns []func() error
		)
		if outputPath != "-" {
			if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			file, openErr := os.Create(outputPath)
			if openErr != nil {
				return fmt.Errorf("create output file: %w", openErr)
			}
			writer = file
			closeFns = append(closeFns, file.Close)
		}
		if gzipEnabled {
			gz := gzip.NewWriter(writer)
			writer = gz
			closeFns = append([]func() error{gz.Close}, closeFns...)
		}
		defer func() {
			for _, closer := range closeFns {
				if cerr := closer(); cerr != nil && err == nil {
					err = cerr
				}
			}
		}()

		n, err := importer.Export(ctx, tb.Repo, writer, importer.Format{Comma: comma}, states)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if outputPath != "-" {
			cmd.PrintErrf("exported %d entries to %s\n", n, outputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "output file path, - for standard output")
	exportCmd.Flags().Bool("gzip", false, "gzip the output")
	exportCmd.Flags().String("comma", ",", "field delimiter: comma, tab or semicolon")
	exportCmd.Flags().StringSlice("state", nil, "only export entries in these states")

	bindFlagToViper(exportOutputKey, exportCmd.Flags().Lookup("output"))
	bindFlagToViper(exportGzipKey, exportCmd.Flags().Lookup("gzip"))
	bindFlagToViper(exportCommaKey, exportCmd.Flags().Lookup("comma"))
	bindFlagToViper(exportStatesKey, exportCmd.Flags().Lookup("state"))
}

func statesFromConfig(key string) ([]entity.State, error) {
	var states []entity.State
	for _, raw := range viper.GetStringSlice(key) {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		state, err := entity.ParseState(raw)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}

func defaultExportFilename(comma rune, gzipEnabled bool) string {
	ts := time.Now().UTC().Format("20060102-150405")
	ext := ".csv"
	if comma == '\t' {
		ext = ".tsv"
	}
	filename := "wordindex-export-" + ts + ext
	if gzipEnabled {
		filename += ".gz"
	}
	return filename
}
