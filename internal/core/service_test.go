package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"usersapi/pkg/domain"
)

func TestServiceCRUD(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService()

	users, err := svc.ListUsers(ctx)
	if err != nil || len(users) != 0 {
		t.Fatalf("expected empty list, got %v %v", users, err)
	}

	created, err := svc.CreateUser(ctx, domain.UserInput{Username: "ann", Age: 30, Hobbies: []string{"chess"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}

	got, ok, err := svc.GetUser(ctx, created.ID)
	if err != nil || !ok || got.Username != "ann" {
		t.Fatalf("get: %+v ok=%v err=%v", got, ok, err)
	}
	if _, ok, err := svc.GetUser(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing user to be absent, ok=%v err=%v", ok, err)
	}

	name := "anna"
	updated, ok, err := svc.UpdateUser(ctx, created.ID, domain.UserPatch{Username: &name})
	if err != nil || !ok {
		t.Fatalf("update: ok=%v err=%v", ok, err)
	}
	if updated.Username != "anna" || updated.Age != 30 || updated.ID != created.ID {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if svc.Store() == nil {
		t.Fatalf("expected store accessor")
	}
}

func TestServiceObservesEveryOperation(t *testing.T) {
	ctx := context.Background()
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	log := &captureLogger{}
	clock := &steppingClock{now: time.Unix(0, 0).UTC(), step: 5 * time.Millisecond}

	svc := NewInMemoryService(
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithLogger(log),
		WithClock(clock),
	)

	created, err := svc.CreateUser(ctx, domain.UserInput{Username: "ann"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := svc.GetUser(ctx, created.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := svc.ListUsers(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, _, err := svc.UpdateUser(ctx, created.ID, domain.UserPatch{}); err != nil {
		t.Fatalf("update: %v", err)
	}

	for _, op := range []string{opCreateUser, opGetUser, opListUsers, opUpdateUser} {
		if !metrics.has(op, true) {
			t.Fatalf("expected success metric for %s", op)
		}
		if !tracer.has(op, true) {
			t.Fatalf("expected successful span for %s", op)
		}
	}
	if len(tracer.started) != len(tracer.ended) {
		t.Fatalf("expected every span ended: started=%d ended=%d", len(tracer.started), len(tracer.ended))
	}
	for _, call := range metrics.calls {
		if call.duration != 5*time.Millisecond {
			t.Fatalf("expected clock-derived duration, got %s", call.duration)
		}
	}
	if log.count("d:") != 4 || log.count("e:") != 0 {
		t.Fatalf("unexpected log calls %v", log.calls)
	}
}

func TestServicePropagatesStoreErrors(t *testing.T) {
	ctx := context.Background()
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	log := &captureLogger{}
	svc := NewService(failingStore{}, WithMetricsRecorder(metrics), WithTracer(tracer), WithLogger(log))

	if _, err := svc.ListUsers(ctx); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected list error, got %v", err)
	}
	if _, _, err := svc.GetUser(ctx, "x"); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected get error, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, domain.UserInput{}); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected create error, got %v", err)
	}
	if _, _, err := svc.UpdateUser(ctx, "x", domain.UserPatch{}); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected update error, got %v", err)
	}

	for _, op := range []string{opListUsers, opGetUser, opCreateUser, opUpdateUser} {
		if !metrics.has(op, false) {
			t.Fatalf("expected failure metric for %s", op)
		}
		if !tracer.has(op, false) {
			t.Fatalf("expected failed span for %s", op)
		}
	}
	if log.count("e:") != 4 {
		t.Fatalf("expected error logs, got %v", log.calls)
	}
}

func TestDefaultServiceOptions(t *testing.T) {
	opts := defaultServiceOptions()
	if opts.clock == nil || opts.logger == nil || opts.metrics == nil || opts.tracer == nil {
		t.Fatalf("expected defaults populated")
	}
	_ = opts.clock.Now()
	opts.metrics.Observe(context.Background(), "noop", true, 0)
	_, span := opts.tracer.Start(context.Background(), "noop")
	span.End(nil)

	var l noopLogger
	l.Debug("d", "k", 1)
	l.Info("i", "k", 2)
	l.Warn("w", "k", 3)
	l.Error("e", "k", 4)
}

func TestServiceOptionsIgnoreNil(t *testing.T) {
	svc := NewInMemoryService(nil, WithClock(nil), WithLogger(nil), WithMetricsRecorder(nil), WithTracer(nil))
	if svc.now == nil || svc.logger == nil || svc.metrics == nil || svc.tracer == nil {
		t.Fatalf("expected nil overrides to keep defaults")
	}
	if _, err := svc.ListUsers(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
}
