package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-scout/internal/logger"
	"github.com/spigell/talent-scout/internal/metrics"
	"github.com/spigell/talent-scout/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the review loop over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", server.DefaultAddr, "listen address")
	serveCmd.Flags().StringP("exclude-file", "e", "", "file with GitHub users to exclude. Default is unset.")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if path, _ := cmd.Flags().GetString("exclude-file"); path != "" {
		config.ExcludeFile = path
	}

	logger.Info("starting the talent-scout server", zap.String("version", resolveVersion()))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	pipeline, err := newPipeline(ctx, config, recorder, logger)
	if err != nil {
		logger.Fatal("creating the pipeline", zap.Error(err))
	}

	board, err := newBoard(config, logger)
	if err != nil {
		logger.Fatal("creating the review board", zap.Error(err))
	}

	srv := server.New(*config.Server, pipeline, board, registry, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("serving http", zap.Error(err))
	}
}
