package livefeed

import (
	"context"
	"errors"
	"time"

	"MandiPulse/internal/domain/models"
	"MandiPulse/internal/domain/repository"
	domsvc "MandiPulse/internal/domain/service"
	pkgcache "MandiPulse/pkg/cache"
	"MandiPulse/pkg/logger"
	"MandiPulse/pkg/util"
)

// Orchestrator queries live sources in priority order and stops at the first
// one that returns records. It never reads the historical store.
type Orchestrator struct {
	sources   []Source
	timeout   time.Duration
	cache     pkgcache.Service
	ttl       time.Duration
	publisher repository.SnapshotPublisher

	l   *logger.Logger
	m   repository.Metrics
	now func() time.Time
}

var _ domsvc.LiveFeed = (*Orchestrator)(nil)

type Option func(*Orchestrator)

// WithTimeout bounds each source call.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithResultCache keeps successful results for ttl.
func WithResultCache(c pkgcache.Service, ttl time.Duration) Option {
	return func(o *Orchestrator) {
		o.cache = c
		o.ttl = ttl
	}
}

// WithPublisher emits every fresh live result as a snapshot event.
func WithPublisher(p repository.SnapshotPublisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.l = l }
}

func WithMetrics(m repository.Metrics) Option {
	return func(o *Orchestrator) { o.m = m }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(sources []Source, opts ...Option) *Orchestrator {
	o := &Orchestrator{sources: sources, timeout: 12 * time.Second, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sources lists the configured source names in priority order.
func (o *Orchestrator) Sources() []string {
	names := make([]string, len(o.sources))
	for i, s := range o.sources {
		names[i] = s.Name()
	}
	return names
}

// FetchLive never returns an error: failures are reported through ErrorCode
// and Message with Live=false.
func (o *Orchestrator) FetchLive(ctx context.Context, commodity string) models.LiveResult {
	commodity = util.Normalize(commodity)
	if commodity == "" {
		return o.failed(CodeNoData)
	}
	if len(o.sources) == 0 {
		return o.failed(CodeNoSources)
	}

	cacheKey := pkgcache.Key("live", commodity)
	if o.cache != nil {
		var cached models.LiveResult
		if err := o.cache.Get(ctx, cacheKey, &cached); err == nil && cached.Live {
			return cached
		}
	}

	var codes []string
	for _, src := range o.sources {
		recs, err := o.fetchOne(ctx, src, commodity)
		if err != nil {
			code := CodeOf(err)
			codes = append(codes, code)
			o.record(src.Name(), code)
			if o.l != nil {
				o.l.Warn("live source failed",
					logger.String("source", src.Name()),
					logger.String("commodity", commodity),
					logger.String("code", code),
					logger.Error(err))
			}
			continue
		}

		o.record(src.Name(), "ok")
		res := models.LiveResult{
			Live:      true,
			Records:   recs,
			Source:    src.Name(),
			FetchedAt: o.now().UTC(),
		}
		if o.cache != nil {
			if err := o.cache.Set(ctx, cacheKey, res, o.ttl); err != nil && o.l != nil {
				o.l.Warn("live result cache write failed", logger.Error(err))
			}
		}
		if o.publisher != nil {
			if err := o.publisher.PublishSnapshot(ctx, commodity, src.Name(), recs); err != nil {
				if o.l != nil {
					o.l.Warn("snapshot publish failed", logger.String("commodity", commodity), logger.Error(err))
				}
				if o.m != nil {
					o.m.RecordError("snapshot_publish")
				}
			}
		}
		return res
	}
	return o.failed(finalCode(codes))
}

func (o *Orchestrator) fetchOne(ctx context.Context, src Source, commodity string) ([]models.PriceRecord, error) {
	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	recs, err := src.Fetch(cctx, commodity)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, newFeedError(src.Name(), CodeFetchFailed, err)
		}
		return nil, err
	}
	if len(recs) == 0 {
		return nil, newFeedError(src.Name(), CodeNoData, nil)
	}
	return recs, nil
}

func (o *Orchestrator) failed(code string) models.LiveResult {
	return models.LiveResult{
		Live:      false,
		Records:   []models.PriceRecord{},
		ErrorCode: code,
		Message:   Message(code),
		FetchedAt: o.now().UTC(),
	}
}

func (o *Orchestrator) record(source, outcome string) {
	if o.m != nil {
		o.m.RecordLiveFetch(source, outcome)
	}
}

// finalCode is the last failure other than no_api_key, or no_api_key when every
// source lacked a key.
func finalCode(codes []string) string {
	for i := len(codes) - 1; i >= 0; i-- {
		if codes[i] != CodeNoAPIKey {
			return codes[i]
		}
	}
	if len(codes) > 0 {
		return CodeNoAPIKey
	}
	return CodeNoSources
}
