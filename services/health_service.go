package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"quizai/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthReport struct {
	Overall   bool
	Database  bool
	DiskSpace bool
	AIModel   bool
}

// HealthService probes the database, free disk space and the AI model
// service concurrently.
type HealthService struct {
	db       Pinger
	ai       Pinger
	diskPath string
	minFree  uint64
	timeout  time.Duration
	freeDisk func(string) (uint64, error)
	log      *logger.Logger
}

func NewHealthService(db, ai Pinger, diskPath string, minFreeMB int64, log *logger.Logger) *HealthService {
	if minFreeMB < 0 {
		minFreeMB = 0
	}
	return &HealthService{
		db:       db,
		ai:       ai,
		diskPath: diskPath,
		minFree:  uint64(minFreeMB) << 20,
		timeout:  5 * time.Second,
		freeDisk: freeDiskBytes,
		log:      orNop(log).With("service", "health"),
	}
}

// Check never fails; each probe reports false on error or timeout.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var report HealthReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Database = s.probe(gctx, "database", s.db)
		return nil
	})
	g.Go(func() error {
		report.AIModel = s.probe(gctx, "ai_model", s.ai)
		return nil
	})
	g.Go(func() error {
		free, err := s.freeDisk(s.diskPath)
		if err != nil {
			s.log.Warn("disk probe failed", "path", s.diskPath, "error", err)
			return nil
		}
		report.DiskSpace = free >= s.minFree
		return nil
	})
	_ = g.Wait()

	report.Overall = report.Database && report.DiskSpace && report.AIModel
	return report
}

func (s *HealthService) probe(ctx context.Context, name string, p Pinger) bool {
	if p == nil {
		return false
	}
	if err := p.Ping(ctx); err != nil {
		s.log.Warn("health probe failed", "probe", name, "error", err)
		return false
	}
	return true
}
