package obs

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter mirrors Metrics into Prometheus collectors.
type Exporter struct {
	registry *prometheus.Registry

	read          prometheus.Counter
	duplicates    prometheus.Counter
	written       prometheus.Counter
	records       prometheus.Counter
	replayed      prometheus.Counter
	recovered     prometheus.Gauge
	commitLatency prometheus.Histogram
}

// NewExporter registers the transcoder collectors, plus the Go and process
// collectors, on a fresh registry. labels are attached to every series.
func NewExporter(namespace string, labels prometheus.Labels) (*Exporter, error) {
	reg := prometheus.NewRegistry()
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help, ConstLabels: labels}
	}

	e := &Exporter{
		registry:   reg,
		read:       prometheus.NewCounter(opts("messages_read_total", "Input messages read on streams of interest.")),
		duplicates: prometheus.NewCounter(opts("messages_duplicate_total", "Input messages dropped as duplicates.")),
		written:    prometheus.NewCounter(opts("messages_written_total", "Output messages committed.")),
		records:    prometheus.NewCounter(opts("records_written_total", "ORE records committed.")),
		replayed:   prometheus.NewCounter(opts("messages_replayed_total", "Input messages replayed without output after a restart.")),
		recovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "messages_recovered",
			Help:        "Output messages found in the output log at startup.",
			ConstLabels: labels,
		}),
		commitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "commit_latency_seconds",
			Help:        "Time from input record to output commit.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
	}

	for _, c := range []prometheus.Collector{
		e.read, e.duplicates, e.written, e.records, e.replayed, e.recovered, e.commitLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Handler serves the registry in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (e *Exporter) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (e *Exporter) incRead() {
	if e != nil {
		e.read.Inc()
	}
}

func (e *Exporter) incDuplicate() {
	if e != nil {
		e.duplicates.Inc()
	}
}

func (e *Exporter) incReplayed() {
	if e != nil {
		e.replayed.Inc()
	}
}

func (e *Exporter) observeCommit(records int, latency time.Duration) {
	if e == nil {
		return
	}
	e.written.Inc()
	e.records.Add(float64(records))
	if latency >= 0 {
		e.commitLatency.Observe(latency.Seconds())
	}
}

func (e *Exporter) setRecovered(messages uint64) {
	if e != nil {
		e.recovered.Set(float64(messages))
	}
}
