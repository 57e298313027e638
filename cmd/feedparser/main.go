package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/grafana/pyroscope-go"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"orefeed/internal/feed"
	"orefeed/internal/feed/binance"
	"orefeed/internal/feed/kraken"
	"orefeed/internal/obs"
	"orefeed/internal/ops"
	"orefeed/internal/reactor"
	"orefeed/internal/symbology"
	"orefeed/internal/transcoder"
	"orefeed/internal/wal"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config")
	peer := flag.String("peer", "", "Peer name of this parser in the output log")
	input := flag.String("input", "", "Input log with raw/ streams")
	output := flag.String("output", "", "Output log for ore/ streams (may equal input)")
	symbologyPath := flag.String("symbology", "", "Symbology CSV (feed,vendor,normalized[,instrument_id])")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logs.Warnf("load .env: %v", err)
	}

	cfg, err := ops.Load(*configPath)
	if err != nil {
		logs.Errorf("config load failed: %+v", err)
		os.Exit(1)
	}
	override(&cfg.Peer, *peer)
	override(&cfg.Input, *input)
	override(&cfg.Output, *output)
	override(&cfg.Symbology, *symbologyPath)
	override(&cfg.Metrics.Addr, *metricsAddr)
	if err := cfg.Validate(); err != nil {
		logs.Errorf("%+v", err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logs.Errorf("feedparser stopped: %+v", err)
		os.Exit(1)
	}
	logs.Info("feedparser stopped")
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func run(ctx context.Context, cfg ops.Config) error {
	runID := uuid.NewString()
	logs.Infof("feedparser starting, run %s, peer %s, input %s, output %s", runID, cfg.Peer, cfg.Input, cfg.Output)

	if cfg.Profiling.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.Profiling.ApplicationName,
			ServerAddress:   cfg.Profiling.ServerAddress,
			Tags: map[string]string{
				"peer": cfg.Peer,
				"run":  runID,
			},
			Logger: profilerLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return errors.Wrap(err, "start profiler")
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	var exporter *obs.Exporter
	if cfg.Metrics.Addr != "" {
		var err error
		exporter, err = obs.NewExporter(cfg.Metrics.Namespace, prometheus.Labels{"peer": cfg.Peer})
		if err != nil {
			return errors.Wrap(err, "create metrics exporter")
		}
		go func() {
			if err := exporter.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logs.Errorf("metrics server failed: %+v", err)
			}
		}()
		logs.Infof("serving metrics on %s", cfg.Metrics.Addr)
	}

	var table *symbology.Table
	if cfg.Symbology != "" {
		var err error
		table, err = symbology.Load(cfg.Symbology)
		if err != nil {
			return errors.Wrap(err, "load symbology").With("path", cfg.Symbology)
		}
		logs.Infof("loaded %d symbology entries", table.Len())
	}

	in, out, err := openLogs(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logs.Errorf("close output log: %+v", err)
		}
		if in != out {
			_ = in.Close()
		}
	}()

	t, err := transcoder.New(transcoder.Config{
		Peer: cfg.Peer,
		Feeds: feed.Registry{
			binance.Name: binance.Resolve,
			kraken.Name:  kraken.Resolve,
		},
		Symbology:     table,
		InstrumentID:  cfg.InstrumentID,
		StatsInterval: cfg.StatsInterval,
		Metrics:       obs.NewMetrics(exporter),
	}, in, out)
	if err != nil {
		return errors.Wrap(err, "create transcoder")
	}

	return reactor.New(reactor.Config{PollInterval: cfg.PollInterval}, t).Run(ctx)
}

// openLogs opens the input read-only and the output for writing. When both
// name the same file a single writable log serves both.
func openLogs(cfg ops.Config) (in, out *wal.Log, err error) {
	outCfg := wal.DefaultConfig(cfg.Output)
	if cfg.Log.SyncInterval > 0 {
		outCfg.SyncInterval = cfg.Log.SyncInterval
	}
	out, err = wal.Open(outCfg)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open output log").With("path", cfg.Output)
	}
	if cfg.Input == cfg.Output {
		return out, out, nil
	}

	inCfg := wal.DefaultConfig(cfg.Input)
	inCfg.ReadOnly = true
	in, err = wal.Open(inCfg)
	if err != nil {
		_ = out.Close()
		return nil, nil, errors.Wrap(err, "open input log").With("path", cfg.Input)
	}
	return in, out, nil
}

type profilerLogger struct{}

func (profilerLogger) Infof(format string, args ...interface{})  { logs.Infof(format, args...) }
func (profilerLogger) Debugf(_ string, _ ...interface{})         {}
func (profilerLogger) Errorf(format string, args ...interface{}) { logs.Errorf(format, args...) }
