// internal/infra/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const namespace = "rolodex"

// Metrics exposes Prometheus collectors for scan activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	slices        prometheus.Counter
	rows          prometheus.Counter
	matches       *prometheus.CounterVec
	digests       prometheus.Counter
	continuations prometheus.Counter
	lastMatches   prometheus.Gauge
}

// MustNewMetrics registers the collectors with reg and panics on duplicate
// registration, mirroring promauto.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		slices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scan", Name: "slices_total",
			Help: "Scan slices processed.",
		}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scan", Name: "rows_total",
			Help: "Contact rows evaluated across all slices.",
		}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scan", Name: "reminders_matched_total",
			Help: "Reminders that fired, by kind.",
		}, []string{"kind"}),
		digests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "mail", Name: "digests_sent_total",
			Help: "Digest emails handed to the mail transport.",
		}),
		continuations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scan", Name: "continuations_scheduled_total",
			Help: "Continuation triggers installed between slices.",
		}),
		lastMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "scan", Name: "last_scan_matched_contacts",
			Help: "Contacts included in the digest of the most recent completed scan.",
		}),
	}
	reg.MustRegister(m.slices, m.rows, m.matches, m.digests, m.continuations, m.lastMatches)
	return m
}

func (m *Metrics) SliceProcessed(rows int) {
	if m == nil {
		return
	}
	m.slices.Inc()
	m.rows.Add(float64(rows))
}

func (m *Metrics) ReminderMatched(kind string) {
	if m == nil {
		return
	}
	m.matches.WithLabelValues(kind).Inc()
}

func (m *Metrics) ContinuationScheduled() {
	if m == nil {
		return
	}
	m.continuations.Inc()
}

func (m *Metrics) ScanCompleted(matchedContacts int, digestSent bool) {
	if m == nil {
		return
	}
	m.lastMatches.Set(float64(matchedContacts))
	if digestSent {
		m.digests.Inc()
	}
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *logrus.Entry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("Metrics endpoint listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
