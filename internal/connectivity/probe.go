// Package connectivity checks the two backing connections at startup. The
// checks are diagnostic only: outcomes are logged and exported as metrics and
// never gate the HTTP listener or terminate the process.
package connectivity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/supabase-admin/internal/supabase"
)

// Probe targets.
const (
	TargetDatabase = "database"
	TargetService  = "supabase"
)

// Paths through which a probe succeeded.
const (
	ViaSQL       = "sql"
	ViaRPC       = "rpc"
	ViaAuthAdmin = "auth_admin"
)

// versionRPC is the lightweight function used to reach the service.
const versionRPC = "version"

// RowQuerier runs a single-row query. *pgxpool.Pool satisfies it.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ServiceClient is the slice of the managed-service client used by the probe.
type ServiceClient interface {
	RPC(ctx context.Context, fn string, args any) (json.RawMessage, error)
	ListUsers(ctx context.Context, params supabase.ListUsersParams) (*supabase.UserPage, error)
}

// Recorder receives probe outcomes, typically a metrics sink.
type Recorder interface {
	RecordProbe(target string, ok bool, duration time.Duration)
}

// Result is the outcome of a single probe.
type Result struct {
	Target    string    `json:"target"`
	OK        bool      `json:"ok"`
	Via       string    `json:"via,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	Err       error     `json:"-"`
	Error     string    `json:"error,omitempty"`
}

func success(target, via string, ts time.Time) Result {
	return Result{Target: target, OK: true, Via: via, Timestamp: ts}
}

func failure(target string, err error) Result {
	return Result{Target: target, Err: err, Error: err.Error()}
}

// Report bundles the results of one probe run.
type Report struct {
	RunID    uuid.UUID `json:"run_id"`
	Started  time.Time `json:"started"`
	Database Result    `json:"database"`
	Service  Result    `json:"service"`
}

// Healthy reports whether both connections responded.
func (r Report) Healthy() bool {
	return r.Database.OK && r.Service.OK
}

// Prober verifies the direct SQL connection and the service connection.
type Prober struct {
	db       RowQuerier
	service  ServiceClient
	logger   *slog.Logger
	recorder Recorder
	timeout  time.Duration
	now      func() time.Time
}

// Option customises a Prober.
type Option func(*Prober)

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(p *Prober) { p.recorder = rec }
}

// WithTimeout bounds each probe. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) { p.timeout = d }
}

// NewProber builds a Prober.
func NewProber(db RowQuerier, service ServiceClient, logger *slog.Logger, opts ...Option) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Prober{db: db, service: service, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// VerifyDirectConnection asks the database for its current time.
func (p *Prober) VerifyDirectConnection(ctx context.Context) Result {
	if p.db == nil {
		return failure(TargetDatabase, errors.New("connectivity: database not configured"))
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var current time.Time
	if err := p.db.QueryRow(ctx, "SELECT NOW() AS current_time").Scan(&current); err != nil {
		return failure(TargetDatabase, err)
	}
	return success(TargetDatabase, ViaSQL, current)
}

// VerifyServiceConnection calls the version RPC and, when that fails, falls
// back once to listing a single user. A missing or renamed RPC therefore does
// not count as the service being unreachable.
func (p *Prober) VerifyServiceConnection(ctx context.Context) Result {
	if p.service == nil {
		return failure(TargetService, errors.New("connectivity: service client not configured"))
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	_, rpcErr := p.service.RPC(ctx, versionRPC, nil)
	if rpcErr == nil {
		return success(TargetService, ViaRPC, p.now())
	}
	p.logger.Debug("service rpc probe failed, trying auth admin", slog.Any("error", rpcErr))

	if _, err := p.service.ListUsers(ctx, supabase.ListUsersParams{Page: 1, PerPage: 1}); err != nil {
		return failure(TargetService, err)
	}
	return success(TargetService, ViaAuthAdmin, p.now())
}

// Run executes both probes concurrently and waits for them.
func (p *Prober) Run(ctx context.Context) Report {
	report := Report{RunID: uuid.New(), Started: p.now()}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		report.Database = p.observe(TargetDatabase, func() Result { return p.VerifyDirectConnection(ctx) })
	}()
	go func() {
		defer wg.Done()
		report.Service = p.observe(TargetService, func() Result { return p.VerifyServiceConnection(ctx) })
	}()
	wg.Wait()

	p.log(report)
	return report
}

// Start runs the probes in the background and returns immediately. The
// returned channel yields the report once and is then closed.
func (p *Prober) Start(ctx context.Context) <-chan Report {
	done := make(chan Report, 1)
	go func() {
		defer close(done)
		done <- p.Run(ctx)
	}()
	return done
}

func (p *Prober) observe(target string, fn func() Result) Result {
	start := time.Now()
	res := fn()
	if p.recorder != nil {
		p.recorder.RecordProbe(target, res.OK, time.Since(start))
	}
	return res
}

func (p *Prober) log(report Report) {
	run := slog.String("run_id", report.RunID.String())
	if report.Database.OK {
		p.logger.Info("database connected", run, slog.Time("current_time", report.Database.Timestamp))
	} else {
		p.logger.Error("database connection failed", run, slog.Any("error", report.Database.Err))
	}
	if report.Service.OK {
		p.logger.Info("supabase service role connected", run, slog.String("via", report.Service.Via))
	} else {
		p.logger.Error("supabase service role connection failed", run, slog.Any("error", report.Service.Err))
	}
}

func (p *Prober) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.timeout)
}
