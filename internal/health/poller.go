// Package health runs connectivity checks on a cron schedule and
// broadcasts the latest report.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"schema-mapper/internal/configchan"
)

// CheckFunc probes one dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func Ping(p Pinger) CheckFunc {
	return p.PingContext
}

type Status struct {
	Name      string        `json:"name"`
	Healthy   bool          `json:"healthy"`
	Error     string        `json:"error,omitempty"`
	Latency   time.Duration `json:"latency"`
	CheckedAt time.Time     `json:"checkedAt"`
}

type Report struct {
	CheckedAt time.Time `json:"checkedAt"`
	Statuses  []Status  `json:"statuses"`
}

// Healthy reports whether every check passed. An empty report is not healthy.
func (r Report) Healthy() bool {
	if len(r.Statuses) == 0 {
		return false
	}
	for _, s := range r.Statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

type check struct {
	name string
	fn   CheckFunc
}

type Poller struct {
	schedule string
	timeout  time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	checks []check
	cron   *cron.Cron

	reports *configchan.Channel[Report]
}

// NewPoller validates schedule, a cron spec with optional seconds field or
// a descriptor such as "@every 30s".
func NewPoller(schedule string, timeout time.Duration, log *zap.Logger) (*Poller, error) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("health schedule %q: %w", schedule, err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		schedule: schedule,
		timeout:  timeout,
		log:      log.Named("health"),
		cron:     cron.New(cron.WithParser(parser)),
		reports:  configchan.New(Report{}),
	}, nil
}

func (p *Poller) Register(name string, fn CheckFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checks = append(p.checks, check{name: name, fn: fn})
}

// Reports carries the latest report to subscribers.
func (p *Poller) Reports() *configchan.Channel[Report] {
	return p.reports
}

// RunOnce runs every check, each bounded by the poller timeout, and
// publishes the report.
func (p *Poller) RunOnce(ctx context.Context) Report {
	p.mu.Lock()
	checks := append([]check(nil), p.checks...)
	p.mu.Unlock()

	report := Report{CheckedAt: time.Now()}
	for _, c := range checks {
		cctx, cancel := context.WithTimeout(ctx, p.timeout)
		start := time.Now()
		err := c.fn(cctx)
		cancel()

		st := Status{Name: c.name, Healthy: err == nil, Latency: time.Since(start), CheckedAt: start}
		if err != nil {
			st.Error = err.Error()
			p.log.Warn("health check failed", zap.String("check", c.name), zap.Error(err))
		} else {
			p.log.Debug("health check passed", zap.String("check", c.name), zap.Duration("latency", st.Latency))
		}
		report.Statuses = append(report.Statuses, st)
	}
	p.reports.Publish(report)
	return report
}

// Start runs the checks once right away and then on schedule until Stop.
func (p *Poller) Start(ctx context.Context) error {
	if _, err := p.cron.AddFunc(p.schedule, func() { p.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule health checks: %w", err)
	}
	go p.RunOnce(ctx)
	p.cron.Start()
	p.log.Info("health poller started", zap.String("schedule", p.schedule))
	return nil
}

// Stop waits for a running check round to finish and ends subscriptions.
func (p *Poller) Stop() {
	<-p.cron.Stop().Done()
	p.reports.Close()
}
