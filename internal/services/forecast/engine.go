package forecast

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"MandiPulse/internal/domain/models"
	"MandiPulse/internal/domain/repository"
	domsvc "MandiPulse/internal/domain/service"
	"MandiPulse/pkg/logger"
	"MandiPulse/pkg/util"
)

// ModelName is reported in every forecast.
const ModelName = "RandomForestRegressor"

type Config struct {
	Trees       int
	MaxDepth    int
	Seed        int64
	HorizonDays int
	MinPoints   int
	CacheSize   int
	Workers     int
}

func DefaultConfig() Config {
	return Config{
		Trees:       200,
		MaxDepth:    10,
		Seed:        42,
		HorizonDays: 30,
		MinPoints:   30,
		CacheSize:   256,
	}
}

type entry struct {
	forest     *Forest
	lastDate   time.Time
	trainingID string
	trainedAt  time.Time
}

// Engine trains one random forest per query fingerprint and reuses it while the
// latest observed date of the series is unchanged.
type Engine struct {
	cfg       Config
	cache     *lru.Cache[string, *entry]
	group     singleflight.Group
	trainings atomic.Int64

	l   *logger.Logger
	m   repository.Metrics
	now func() time.Time
}

var _ domsvc.Forecaster = (*Engine)(nil)

type Option func(*Engine)

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.l = l }
}

func WithMetrics(m repository.Metrics) Option {
	return func(e *Engine) { e.m = m }
}

// WithClock overrides the training timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	def := DefaultConfig()
	if cfg.Trees <= 0 {
		cfg.Trees = def.Trees
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = def.HorizonDays
	}
	if cfg.MinPoints <= 0 {
		cfg.MinPoints = def.MinPoints
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	cache, err := lru.New[string, *entry](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("forecast cache: %w", err)
	}
	e := &Engine{cfg: cfg, cache: cache, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Forecast returns nil when records holds fewer than MinPoints observations.
func (e *Engine) Forecast(ctx context.Context, records []models.PriceRecord, fp models.Fingerprint) (*models.Forecast, error) {
	if len(records) < e.cfg.MinPoints {
		return nil, nil
	}
	key := fp.Key()
	lastDate := models.LatestDate(records)

	if ent, ok := e.cache.Get(key); ok && ent.lastDate.Equal(lastDate) {
		e.recordCache(true)
		return e.predict(ent), nil
	}
	e.recordCache(false)

	v, err, _ := e.group.Do(key+"|"+util.FormatDate(lastDate), func() (interface{}, error) {
		if ent, ok := e.cache.Get(key); ok && ent.lastDate.Equal(lastDate) {
			return ent, nil
		}
		// shared by every waiter, so one caller's cancellation must not abort it
		ent, err := e.train(context.WithoutCancel(ctx), key, records, lastDate)
		if err != nil {
			return nil, err
		}
		e.cache.Add(key, ent)
		return ent, nil
	})
	if err != nil {
		if e.m != nil {
			e.m.RecordError("forecast_training")
		}
		return nil, err
	}
	return e.predict(v.(*entry)), nil
}

// Invalidate drops the cached model for fp.
func (e *Engine) Invalidate(fp models.Fingerprint) {
	e.cache.Remove(fp.Key())
}

// Trainings is the number of models trained since the engine was created.
func (e *Engine) Trainings() int64 { return e.trainings.Load() }

// Cached is the number of fingerprints currently holding a model.
func (e *Engine) Cached() int { return e.cache.Len() }

func (e *Engine) train(ctx context.Context, key string, records []models.PriceRecord, lastDate time.Time) (*entry, error) {
	start := time.Now()
	x := make([][]float64, len(records))
	y := make([]float64, len(records))
	for i, r := range records {
		x[i] = features(r.PriceDate)
		y[i] = r.ModalPrice
	}
	forest, err := TrainForest(ctx, x, y, ForestConfig{
		Trees:    e.cfg.Trees,
		MaxDepth: e.cfg.MaxDepth,
		Seed:     e.cfg.Seed,
		Workers:  e.cfg.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("train %s: %w", key, err)
	}
	e.trainings.Add(1)
	took := time.Since(start)
	ent := &entry{
		forest:     forest,
		lastDate:   lastDate,
		trainingID: uuid.NewString(),
		trainedAt:  e.now().UTC(),
	}
	if e.m != nil {
		e.m.RecordTraining(key, took)
	}
	if e.l != nil {
		e.l.Info("forecast model trained",
			logger.String("fingerprint", key),
			logger.Int("points", len(records)),
			logger.String("last_date", util.FormatDate(lastDate)),
			logger.String("training_id", ent.trainingID),
			logger.Duration("took", took))
	}
	return ent, nil
}

func (e *Engine) predict(ent *entry) *models.Forecast {
	sum, lo, hi := 0.0, math.Inf(1), math.Inf(-1)
	for d := 1; d <= e.cfg.HorizonDays; d++ {
		p := ent.forest.Predict(features(ent.lastDate.AddDate(0, 0, d)))
		sum += p
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	return &models.Forecast{
		Average:      util.Round2(sum / float64(e.cfg.HorizonDays)),
		Min:          util.Round2(lo),
		Max:          util.Round2(hi),
		Days:         e.cfg.HorizonDays,
		Model:        ModelName,
		TrainingID:   ent.trainingID,
		TrainedAt:    ent.trainedAt,
		LastObserved: ent.lastDate,
	}
}

func (e *Engine) recordCache(hit bool) {
	if e.m != nil {
		e.m.RecordForecastCache(hit)
	}
}

// features maps a date to (ordinal, month, day of year).
func features(t time.Time) []float64 {
	return []float64{float64(util.Ordinal(t)), float64(t.Month()), float64(t.YearDay())}
}
