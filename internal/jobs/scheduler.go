package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/rs/zerolog"
)

const defaultSchedulerInterval = time.Minute

// Scheduler runs the aggregation once per day for yesterday, after runHour local time
type Scheduler struct {
	log      zerolog.Logger
	job      *AggregationJob
	runHour  int
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastDay time.Time
}

func NewScheduler(logger zerolog.Logger, job *AggregationJob, runHour int) *Scheduler {
	if runHour < 0 || runHour > 23 {
		runHour = 1
	}
	return &Scheduler{
		log:      logger.With().Str("component", "scheduler").Logger(),
		job:      job,
		runHour:  runHour,
		interval: defaultSchedulerInterval,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Info().Int("run_hour", s.runHour).Msg("scheduler: start")
	go s.loop(ctx)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Info().Msg("scheduler: stop")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	// first check right away
	s.tick(ctx, s.job.now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, s.job.now())
		}
	}
}

// tick runs the job when the run hour has passed and today's run has not happened yet.
// It reports whether the job ran.
func (s *Scheduler) tick(ctx context.Context, now time.Time) bool {
	local := now.In(s.job.loc)
	today := domain.DateOf(local)

	s.mu.Lock()
	due := local.Hour() >= s.runHour && !s.lastDay.Equal(today)
	if due {
		s.lastDay = today
	}
	s.mu.Unlock()

	if !due {
		return false
	}

	yesterday := domain.AddDays(today, -1)
	if _, err := s.job.Run(ctx, yesterday); err != nil {
		s.log.Error().Err(err).Str("date", yesterday.Format(domain.DateLayout)).Msg("scheduler: aggregation failed")
	}

	return true
}
