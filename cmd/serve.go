package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/surveyboard/internal/metrics"
	"github.com/KaramelBytes/surveyboard/internal/metrics/prom"
	"github.com/KaramelBytes/surveyboard/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	serveNoMetrics bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API for dashboards",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		cat, err := loadCatalog(c)
		if err != nil {
			return err
		}
		opt, err := readOptions(c, "")
		if err != nil {
			return err
		}

		var metricsHandler http.Handler
		if c.MetricsEnabled && !serveNoMetrics {
			b, err := prom.NewBackend()
			if err != nil {
				return err
			}
			metrics.SetBackend(b)
			metricsHandler = b.Handler()
		}

		srv, err := server.New(server.Options{
			Catalog:        cat,
			Read:           opt,
			MaxFiles:       c.MaxBillboardFiles,
			DisplayTopK:    c.DisplayTopK,
			PieTopK:        c.PieTopK,
			CacheEntries:   c.CacheEntries,
			SessionLimit:   c.SessionLimit,
			MaxUploadBytes: int64(c.MaxUploadMB) << 20,
			Metrics:        metricsHandler,
		})
		if err != nil {
			return err
		}

		addr := c.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Printf("✓ Serving %d datasets on %s\n", len(cat.Datasets), addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default listen_addr)")
	serveCmd.Flags().BoolVar(&serveNoMetrics, "no-metrics", false, "disable the /metrics endpoint")
}
