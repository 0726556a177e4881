package noshow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nguessop/nguessbeauty-sub001/internal/domain"
	"github.com/nguessop/nguessbeauty-sub001/internal/service/bookings"
	bookingModels "github.com/nguessop/nguessbeauty-sub001/internal/service/bookings/models"
)

const (
	// DefaultSchedule каждые 5 минут
	DefaultSchedule  = "*/5 * * * *"
	DefaultBatchSize = 100
)

// CandidateSource источник подтвержденных бронирований без check-in
type CandidateSource interface {
	ListNoShowCandidates(ctx context.Context, startedBefore time.Time, after *domain.BookingCursor, limit int) ([]*domain.Booking, error)
}

// Lifecycle сервис переходов бронирования
type Lifecycle interface {
	MarkNoShow(ctx context.Context, id int64, actorID *int64) (*bookingModels.BookingResponse, error)
}

// Metrics интерфейс метрик прогона
type Metrics interface {
	ObserveSweep(marked int, err error)
}

type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type realTime struct{}

func (realTime) Now() time.Time { return time.Now() }

// Config настройки sweep
type Config struct {
	Schedule  string
	BatchSize int
	Timeout   time.Duration
}

// Result итог одного прогона
type Result struct {
	Candidates int
	Marked     int
	Skipped    int
	Failed     int
}

// Sweeper периодически переводит просроченные подтвержденные бронирования в no_show.
// Повторный прогон безопасен: уже переведенные бронирования не попадают в выборку,
// а ошибки отдельных бронирований не прерывают прогон и повторяются в следующем цикле.
type Sweeper struct {
	candidates   CandidateSource
	lifecycle    Lifecycle
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
	cfg          Config

	cron    *cron.Cron
	running sync.Mutex
}

// NewSweeper создает sweeper
func NewSweeper(candidates CandidateSource, lifecycle Lifecycle, metrics Metrics, logger Logger, cfg Config) *Sweeper {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}

	return &Sweeper{
		candidates:   candidates,
		lifecycle:    lifecycle,
		metrics:      metrics,
		timeProvider: realTime{},
		logger:       logger,
		cfg:          cfg,
	}
}

// WithTimeProvider подменяет источник времени
func (s *Sweeper) WithTimeProvider(tp TimeProvider) *Sweeper {
	s.timeProvider = tp
	return s
}

// Start регистрирует прогон в cron-планировщике и запускает его
func (s *Sweeper) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.Schedule, s.runScheduled); err != nil {
		return fmt.Errorf("noshow: invalid schedule %q: %w", s.cfg.Schedule, err)
	}

	s.cron = c
	c.Start()
	s.logger.Info("No-show sweep scheduled: %s (batch=%d)", s.cfg.Schedule, s.cfg.BatchSize)
	return nil
}

// Stop останавливает планировщик и дожидается текущего прогона
func (s *Sweeper) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("No-show sweep: stop timed out")
	}
}

func (s *Sweeper) runScheduled() {
	// прогоны не накладываются: следующий тик пропускается, если предыдущий еще идет
	if !s.running.TryLock() {
		s.logger.Warn("No-show sweep: previous run still in progress, skipping")
		return
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	_, _ = s.Sweep(ctx)
}

// Sweep выполняет один прогон
// Кандидаты читаются страницами по BatchSize с курсором (start_time, id), поэтому
// бронирования, пропущенные или упавшие на одной странице, не блокируют следующие.
// Ошибкой считается только сбой выборки кандидатов.
func (s *Sweeper) Sweep(ctx context.Context) (*Result, error) {
	now := s.timeProvider.Now().UTC()
	res := &Result{}

	var cursor *domain.BookingCursor
	for ctx.Err() == nil {
		page, err := s.candidates.ListNoShowCandidates(ctx, now, cursor, s.cfg.BatchSize)
		if err != nil {
			s.logger.Error("No-show sweep: failed to list candidates: %v", err)
			s.metrics.ObserveSweep(res.Marked, err)
			return nil, fmt.Errorf("noshow: Sweep - list candidates: %w", err)
		}

		res.Candidates += len(page)
		for _, b := range page {
			if ctx.Err() != nil {
				break
			}
			s.mark(ctx, b, res)
		}

		if len(page) < s.cfg.BatchSize {
			break
		}
		cursor = domain.CursorOf(page[len(page)-1])
	}

	s.metrics.ObserveSweep(res.Marked, nil)
	if res.Marked > 0 || res.Failed > 0 {
		s.logger.Info("No-show sweep: candidates=%d marked=%d skipped=%d failed=%d",
			res.Candidates, res.Marked, res.Skipped, res.Failed)
	}
	return res, nil
}

func (s *Sweeper) mark(ctx context.Context, b *domain.Booking, res *Result) {
	_, err := s.lifecycle.MarkNoShow(ctx, b.ID, nil)
	switch {
	case err == nil:
		res.Marked++
	case errors.Is(err, bookings.ErrTooEarly),
		errors.Is(err, bookings.ErrAlreadyCheckedIn),
		errors.Is(err, bookings.ErrInvalidTransition):
		// период ожидания не истек или бронирование изменилось конкурентно
		res.Skipped++
	default:
		res.Failed++
		s.logger.Error("No-show sweep: booking id=%d: %v", b.ID, err)
	}
}
