// cmd/amcmon/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/log"
	"github.com/prometheus/common/version"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/tamzrod/amc-monitor/internal/config"
	"github.com/tamzrod/amc-monitor/internal/poller"
	"github.com/tamzrod/amc-monitor/internal/report"
	"github.com/tamzrod/amc-monitor/internal/writer"
)

const exporterName = "amcmon"

func main() {
	var (
		configFile    = kingpin.Flag("config.file", "Path to the monitor configuration file.").Default("amcmon.yaml").OverrideDefaultFromEnvar("AMCMON_CONFIG").String()
		listenAddress = kingpin.Flag("web.listen-address", "Address to listen on for web interface and telemetry. Overrides the config file.").String()
		metricsPath   = kingpin.Flag("web.telemetry-path", "Path under which to expose metrics. Overrides the config file.").String()
	)

	log.AddFlags(kingpin.CommandLine)
	kingpin.Version(version.Print(exporterName))
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	log.Infoln("Starting", exporterName, version.Info())
	log.Infoln("Build context", version.BuildContext())

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	if *listenAddress != "" {
		cfg.Monitor.ListenAddress = *listenAddress
	}
	if *metricsPath != "" {
		cfg.Monitor.MetricsPath = *metricsPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Shared sinks
	// --------------------

	var ids []string
	for _, b := range cfg.Monitor.Boards {
		ids = append(ids, b.ID)
	}
	store := report.NewStore(ids...)
	exporter := report.NewExporter(store)
	prometheus.MustRegister(exporter)
	prometheus.MustRegister(version.NewCollector(exporterName))

	sinks := []writer.Writer{store, exporter}

	if rc := cfg.Monitor.Redis; rc != nil {
		pub, err := writer.NewRedisPublisher(writer.RedisConfig{URL: rc.URL, ChannelPrefix: rc.ChannelPrefix})
		if err != nil {
			log.Fatalf("redis publisher failed: %v", err)
		}
		defer pub.Close()
		if err := pub.Ping(ctx); err != nil {
			// Not fatal: every write retries through the client pool.
			log.Warnf("redis not reachable at start: %v", err)
		}
		sinks = append(sinks, pub)
	}
	out := writer.New(sinks...)

	statusClients, closeStatus, err := writer.BuildEndpointClients(cfg.Monitor.Boards)
	if err != nil {
		log.Fatalf("status clients failed: %v", err)
	}
	defer closeStatus()

	// --------------------
	// Build per-board pipelines
	// --------------------

	for _, bc := range cfg.Monitor.Boards {
		logger := log.With("board", bc.ID)

		board, closeBoard, err := poller.Build(bc, log.Base(), exporter.ObserveRPC)
		if err != nil {
			log.Fatalf("poller build failed (board=%s): %v", bc.ID, err)
		}
		defer closeBoard()

		store.Seed(bc.ID, board.Registry.Snapshot())

		var sw writer.StatusWriter
		if w, enabled := writer.NewDeviceStatusWriter(writer.BuildStatusPlan(bc), statusClients); enabled {
			sw = w
		}

		results := make(chan poller.PollResult)
		go runBoard(ctx, bc.ID, results, out, sw, store, logger)
		go board.Poller.Run(ctx, results)

		logger.Infof("polling %s every %dms (noh=%d, register bus=%t, status block=%t)",
			bc.RPCEndpoint, bc.Poll.IntervalMs, bc.NOH, board.Device != nil, sw != nil)
	}

	// --------------------
	// HTTP
	// --------------------

	mux := http.NewServeMux()
	mux.Handle(cfg.Monitor.MetricsPath, promhttp.Handler())
	mux.Handle("/", report.NewHandler(store, cfg.Monitor.MetricsPath, log.Base()))

	srv := &http.Server{
		Addr:              cfg.Monitor.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infoln("Listening on", cfg.Monitor.ListenAddress)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("http server failed: %v", err)
		stop()
	}
	<-ctx.Done()
	log.Infoln("Shutting down")
}
