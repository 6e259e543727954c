package main

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/config"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/home"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/server"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/server/endpoints"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cartefin server",
	Long: `Start the cartefin HTTP server.

The server processes uploaded financing documents and serves syntheses.
On shutdown (Ctrl+C or SIGTERM) the document store is closed cleanly.

Examples:
  cartefin serve                    # Start on default port 8380
  cartefin serve --port 3000        # Start on custom port
  cartefin serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Fall back to the home config when no --config was given.
		cfgPath := cfgFile
		if cfgPath == "" && h.ConfigExists() {
			cfgPath = h.ConfigPath()
		}
		mgr, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}
		mgr.WatchConfig()

		cfg := mgr.Get()
		host := serveHost
		if host == "" {
			host = cfg.Server.Host
		}
		port := servePort
		if port == "" {
			port = strconv.Itoa(cfg.Server.Port)
		}

		srv, err := server.New(server.Config{
			Host:            host,
			Port:            port,
			Home:            h,
			ConfigManager:   mgr,
			SwaggerSpecPath: endpoints.GetSwaggerSpecPath(),
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
