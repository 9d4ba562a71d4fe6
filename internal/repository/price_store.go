package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"MandiPulse/internal/domain/models"
	"MandiPulse/internal/domain/repository"
	"MandiPulse/pkg/logger"
	"MandiPulse/pkg/util"
)

// DataLoadError reports that the dataset could not be read or held no usable rows.
type DataLoadError struct {
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load dataset from %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// ErrNoValidRows is wrapped by DataLoadError when every row was dropped during cleaning.
var ErrNoValidRows = errors.New("no valid rows after cleaning")

// PriceStore holds the cleaned dataset. It is immutable after Load returns,
// so concurrent readers need no locking.
type PriceStore struct {
	records     []models.PriceRecord
	byCommodity map[string][]models.PriceRecord
	commodities []string
	dropped     int
}

var _ repository.PriceReader = (*PriceStore)(nil)

type LoadOption func(*loadOptions)

type loadOptions struct {
	l *logger.Logger
	m repository.Metrics
}

func WithLoadLogger(l *logger.Logger) LoadOption {
	return func(o *loadOptions) { o.l = l }
}

func WithLoadMetrics(m repository.Metrics) LoadOption {
	return func(o *loadOptions) { o.m = m }
}

// Load reads every row from src, cleans it and indexes the survivors by commodity.
func Load(ctx context.Context, src repository.PriceSource, opts ...LoadOption) (*PriceStore, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, &DataLoadError{Source: src.Name(), Err: err}
	}

	s := &PriceStore{byCommodity: make(map[string][]models.PriceRecord)}
	s.records = make([]models.PriceRecord, 0, len(rows))
	for _, raw := range rows {
		rec, ok := cleanRow(raw)
		if !ok {
			s.dropped++
			continue
		}
		s.records = append(s.records, rec)
	}
	if len(s.records) == 0 {
		return nil, &DataLoadError{Source: src.Name(), Err: ErrNoValidRows}
	}

	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].PriceDate.Before(s.records[j].PriceDate)
	})
	for _, r := range s.records {
		s.byCommodity[r.Commodity] = append(s.byCommodity[r.Commodity], r)
	}
	for c := range s.byCommodity {
		s.commodities = append(s.commodities, c)
	}
	sort.Strings(s.commodities)

	if o.l != nil {
		o.l.Info("dataset loaded",
			logger.String("source", src.Name()),
			logger.Int("rows", len(s.records)),
			logger.Int("dropped", s.dropped),
			logger.Int("commodities", len(s.commodities)))
	}
	if o.m != nil {
		o.m.RecordRowsLoaded(src.Name(), len(s.records))
	}
	return s, nil
}

// NewPriceStore builds a store directly from already-clean records.
func NewPriceStore(records []models.PriceRecord) *PriceStore {
	s := &PriceStore{byCommodity: make(map[string][]models.PriceRecord)}
	s.records = models.SortByDate(records)
	for _, r := range s.records {
		if _, ok := s.byCommodity[r.Commodity]; !ok {
			s.commodities = append(s.commodities, r.Commodity)
		}
		s.byCommodity[r.Commodity] = append(s.byCommodity[r.Commodity], r)
	}
	sort.Strings(s.commodities)
	return s
}

// All returns the full dataset. Callers must not modify it.
func (s *PriceStore) All() []models.PriceRecord { return s.records }

// Len is the number of rows kept after cleaning.
func (s *PriceStore) Len() int { return len(s.records) }

// Dropped is the number of rows rejected during cleaning.
func (s *PriceStore) Dropped() int { return s.dropped }

// Commodities lists the distinct normalized commodity names, sorted.
func (s *PriceStore) Commodities() []string { return s.commodities }

// Filter applies commodity and location constraints. The season field is ignored;
// use FilterSeason for that.
func (s *PriceStore) Filter(q models.Query) []models.PriceRecord {
	commodity := util.Normalize(q.Commodity)
	if commodity == "" {
		return nil
	}
	state, district, market := util.Normalize(q.State), util.Normalize(q.District), util.Normalize(q.Market)

	var out []models.PriceRecord
	for _, r := range s.byCommodity[commodity] {
		if state != "" && r.State != state {
			continue
		}
		if district != "" && r.District != district {
			continue
		}
		if market != "" && r.Market != market {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterSeason is Filter plus the season month constraint. An empty or unknown
// season applies no constraint and reports seasonApplied=false.
func (s *PriceStore) FilterSeason(q models.Query) ([]models.PriceRecord, bool) {
	base := s.Filter(q)
	season, ok := models.ParseSeason(q.Season)
	if !ok {
		return base, false
	}
	var out []models.PriceRecord
	for _, r := range base {
		if season.Contains(r.PriceDate.Month()) {
			out = append(out, r)
		}
	}
	return out, true
}

func cleanRow(raw repository.RawPrice) (models.PriceRecord, bool) {
	date, ok := util.ParseDate(raw.PriceDate)
	if !ok {
		return models.PriceRecord{}, false
	}
	modal, ok := util.ParsePrice(raw.ModalPrice)
	if !ok || modal <= 0 {
		return models.PriceRecord{}, false
	}
	commodity := util.Normalize(raw.Commodity)
	if commodity == "" {
		return models.PriceRecord{}, false
	}
	rec := models.PriceRecord{
		Commodity:  commodity,
		State:      util.Normalize(raw.State),
		District:   util.Normalize(raw.District),
		Market:     util.Normalize(raw.Market),
		PriceDate:  date,
		ModalPrice: modal,
		MinPrice:   modal,
		MaxPrice:   modal,
	}
	if v, ok := util.ParsePrice(raw.MinPrice); ok && v > 0 {
		rec.MinPrice = v
	}
	if v, ok := util.ParsePrice(raw.MaxPrice); ok && v > 0 {
		rec.MaxPrice = v
	}
	return rec, true
}
