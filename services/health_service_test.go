package services

import (
	"context"
	"errors"
	"testing"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReportsEachProbe(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("down") })

	svc := NewHealthService(ok, down, "/", 250, nil)
	svc.freeDisk = func(string) (uint64, error) { return 300 << 20, nil }

	report := svc.Check(context.Background())
	if !report.Database || !report.DiskSpace || report.AIModel || report.Overall {
		t.Fatalf("unexpected report %+v", report)
	}

	svc.ai = ok
	if report := svc.Check(context.Background()); !report.Overall {
		t.Fatalf("expected healthy, got %+v", report)
	}

	svc.freeDisk = func(string) (uint64, error) { return 100 << 20, nil }
	if report := svc.Check(context.Background()); report.DiskSpace || report.Overall {
		t.Fatalf("low disk not reported: %+v", report)
	}
}
