package connectivity

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/supabase-admin/internal/supabase"
)

type stubRow struct {
	ts  time.Time
	err error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*time.Time)) = r.ts
	return nil
}

type stubDB struct {
	row   stubRow
	query string
}

func (s *stubDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	s.query = sql
	return s.row
}

type stubService struct {
	mu        sync.Mutex
	rpcErr    error
	listErr   error
	rpcCalls  int
	listCalls int
	lastList  supabase.ListUsersParams
}

func (s *stubService) RPC(ctx context.Context, fn string, args any) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rpcCalls++
	if s.rpcErr != nil {
		return nil, s.rpcErr
	}
	return json.RawMessage(`"PostgreSQL 15"`), nil
}

func (s *stubService) ListUsers(ctx context.Context, params supabase.ListUsersParams) (*supabase.UserPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	s.lastList = params
	if s.listErr != nil {
		return nil, s.listErr
	}
	return &supabase.UserPage{Users: []supabase.User{}}, nil
}

type recordedProbe struct {
	target string
	ok     bool
}

type stubRecorder struct {
	mu      sync.Mutex
	records []recordedProbe
}

func (r *stubRecorder) RecordProbe(target string, ok bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, recordedProbe{target: target, ok: ok})
}

func TestVerifyServiceConnection_RPCSuccessSkipsFallback(t *testing.T) {
	svc := &stubService{}
	p := NewProber(nil, svc, nil)

	res := p.VerifyServiceConnection(context.Background())

	assert.True(t, res.OK)
	assert.Equal(t, ViaRPC, res.Via)
	assert.Equal(t, 1, svc.rpcCalls)
	assert.Zero(t, svc.listCalls, "fallback must not run when the rpc succeeds")
}

func TestVerifyServiceConnection_RPCFailureFallsBackOnce(t *testing.T) {
	svc := &stubService{rpcErr: errors.New("function version does not exist")}
	p := NewProber(nil, svc, nil)

	res := p.VerifyServiceConnection(context.Background())

	assert.True(t, res.OK)
	assert.Equal(t, ViaAuthAdmin, res.Via)
	assert.Equal(t, 1, svc.listCalls)
	assert.Equal(t, supabase.ListUsersParams{Page: 1, PerPage: 1}, svc.lastList)
}

func TestVerifyServiceConnection_BothFail(t *testing.T) {
	listErr := errors.New("connection refused")
	svc := &stubService{rpcErr: errors.New("rpc failed"), listErr: listErr}
	p := NewProber(nil, svc, nil)

	res := p.VerifyServiceConnection(context.Background())

	assert.False(t, res.OK)
	assert.Equal(t, 1, svc.listCalls)
	assert.ErrorIs(t, res.Err, listErr)
	assert.Equal(t, "connection refused", res.Error)
}

func TestVerifyDirectConnection(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	db := &stubDB{row: stubRow{ts: ts}}
	res := NewProber(db, nil, nil).VerifyDirectConnection(context.Background())
	assert.True(t, res.OK)
	assert.Equal(t, ViaSQL, res.Via)
	assert.Equal(t, ts, res.Timestamp)
	assert.Contains(t, db.query, "NOW()")

	failing := &stubDB{row: stubRow{err: errors.New("dial tcp: timeout")}}
	res = NewProber(failing, nil, nil).VerifyDirectConnection(context.Background())
	assert.False(t, res.OK)
	assert.EqualError(t, res.Err, "dial tcp: timeout")
}

func TestVerify_MissingDependencies(t *testing.T) {
	p := NewProber(nil, nil, nil)
	assert.False(t, p.VerifyDirectConnection(context.Background()).OK)
	assert.False(t, p.VerifyServiceConnection(context.Background()).OK)
}

func TestRunRecordsBothTargets(t *testing.T) {
	rec := &stubRecorder{}
	p := NewProber(&stubDB{row: stubRow{err: errors.New("down")}}, &stubService{}, nil, WithRecorder(rec), WithTimeout(time.Second))

	report := p.Run(context.Background())

	assert.False(t, report.Healthy())
	assert.False(t, report.Database.OK)
	assert.True(t, report.Service.OK)
	assert.NotEqual(t, uuid.Nil, report.RunID)
	assert.ElementsMatch(t, []recordedProbe{
		{target: TargetDatabase, ok: false},
		{target: TargetService, ok: true},
	}, rec.records)
}

func TestStartDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	p := NewProber(&blockingDB{release: release}, &stubService{}, nil)

	done := p.Start(context.Background())
	select {
	case <-done:
		t.Fatal("start must return before the probes finish")
	default:
	}

	close(release)
	select {
	case report, ok := <-done:
		require.True(t, ok)
		assert.True(t, report.Healthy())
	case <-time.After(2 * time.Second):
		t.Fatal("probe did not finish")
	}
	_, ok := <-done
	assert.False(t, ok)
}

type blockingDB struct {
	release chan struct{}
}

func (b *blockingDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	<-b.release
	return stubRow{ts: time.Now()}
}

type gatedDB struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	close(g.entered)
	select {
	case <-g.release:
		return stubRow{ts: time.Now()}
	case <-time.After(2 * time.Second):
		return stubRow{err: errors.New("service check never started")}
	}
}

type gatedService struct {
	stubService
	dbEntered chan struct{}
	release   chan struct{}
}

func (g *gatedService) RPC(ctx context.Context, fn string, args any) (json.RawMessage, error) {
	select {
	case <-g.dbEntered:
		close(g.release)
	case <-time.After(2 * time.Second):
		return nil, errors.New("database check never started")
	}
	return g.stubService.RPC(ctx, fn, args)
}

func TestRunChecksBothConnectionsConcurrently(t *testing.T) {
	entered, release := make(chan struct{}), make(chan struct{})
	db := &gatedDB{entered: entered, release: release}
	svc := &gatedService{dbEntered: entered, release: release}

	report := NewProber(db, svc, nil).Run(context.Background())

	assert.True(t, report.Database.OK)
	assert.True(t, report.Service.OK)
	assert.Equal(t, ViaRPC, report.Service.Via)
}
