package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/supabase-admin/internal/connectivity"
	jobmetrics "github.com/noah-isme/supabase-admin/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ProbeRunner runs both connectivity probes.
type ProbeRunner interface {
	Run(ctx context.Context) connectivity.Report
}

// ConnectivityProbeJob periodically re-checks the backing connections and
// publishes the outcome to the status store.
type ConnectivityProbeJob struct {
	Prober  ProbeRunner
	Store   *StatusStore
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewConnectivityProbeJob wires dependencies for the probe handler.
func NewConnectivityProbeJob(prober ProbeRunner, store *StatusStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *ConnectivityProbeJob {
	return &ConnectivityProbeJob{Prober: prober, Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes connectivity probe tasks. An unhealthy report is not a
// task failure; only failing to record it is.
func (j *ConnectivityProbeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Prober == nil {
		return errors.New("connectivity probe: handler not configured")
	}
	var payload ConnectivityProbePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskConnectivityProbe)
	report := j.Prober.Run(ctx)
	j.logger().Info("connectivity probe finished",
		slog.String("reason", payload.Reason),
		slog.String("run_id", report.RunID.String()),
		slog.Bool("healthy", report.Healthy()),
	)

	if j.Store == nil {
		return tracker.End(nil)
	}
	return tracker.End(j.Store.Save(ctx, report))
}

func (j *ConnectivityProbeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *ConnectivityProbeJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
