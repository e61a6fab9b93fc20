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
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eslsoft/wordindex/internal/app"
)

const (
	reconcileJob = "reconcile"
	snapshotJob  = "snapshot"

	_stopTimeout = 10 * time.Second
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API with the background jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		defer cleanup()
		logger := c.Logger

		if restored, err := c.Tracker.LoadFrom(ctx, c.Snapshots); err != nil {
			logger.WithError(err).Warn("activity snapshot not restored")
		} else if restored {
			logger.Info("activity registers restored from snapshot")
		}

		if err := c.Scheduler.Add(reconcileJob, c.Config.Scheduler.ReconcileSchedule, func(ctx context.Context) error {
			n, err := c.Index.Reconcile(ctx)
			if err != nil {
				return err
			}
			logger.WithField("entries", n).Info("search index reconciled")
			return nil
		}); err != nil {
			return err
		}
		if err := c.Scheduler.Add(snapshotJob, c.Config.Scheduler.SnapshotSchedule, func(ctx context.Context) error {
			return c.Tracker.SaveTo(ctx, c.Snapshots)
		}); err != nil {
			return err
		}
		c.Scheduler.Start()

		errCh := make(chan error, 1)
		go func() { errCh <- c.Server.Start() }()

		var serveErr error
		select {
		case <-ctx.Done():
			logger.Info("shutdown signal received")
		case serveErr = <-errCh:
		}

		stopCtx, cancel := context.WithTimeout(context.Background(), _stopTimeout)
		defer cancel()
		if err := c.Server.Shutdown(stopCtx); err != nil {
			logger.WithError(err).Error("server shutdown")
		}
		c.Scheduler.Stop(stopCtx)
		if err := c.Tracker.SaveTo(stopCtx, c.Snapshots); err != nil {
			logger.WithError(err).Warn("activity snapshot not saved")
		}
		return serveErr
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "HTTP port (overrides SERVER_HTTP_PORT)")
	serveCmd.Flags().String("search-backend", "", "search backend: store or bleve")
	bindFlagToViper("server.http_port", serveCmd.Flags().Lookup("port"))
	bindFlagToViper("search.backend", serveCmd.Flags().Lookup("search-backend"))
}
