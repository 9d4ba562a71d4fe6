package repository

import (
	"context"
	"time"

	"MandiPulse/internal/domain/models"
)

// RawPrice is one uncleaned row as read from a dataset source. Every field is
// textual so CSV files and database tables share a single cleaning path.
type RawPrice struct {
	Commodity  string
	State      string
	District   string
	Market     string
	PriceDate  string
	ModalPrice string
	MinPrice   string
	MaxPrice   string
}

// PriceSource yields raw dataset rows. It is read once at startup.
type PriceSource interface {
	Name() string
	Rows(ctx context.Context) ([]RawPrice, error)
}

// PriceReader is the read-only query surface over the loaded dataset.
type PriceReader interface {
	All() []models.PriceRecord
	Filter(q models.Query) []models.PriceRecord
	FilterSeason(q models.Query) (records []models.PriceRecord, seasonApplied bool)
	Commodities() []string
}

// SnapshotPublisher emits live price snapshots to downstream consumers.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, commodity, source string, records []models.PriceRecord) error
	Close() error
}

type Metrics interface {
	RecordForecastCache(hit bool)
	RecordTraining(fingerprint string, d time.Duration)
	RecordLiveFetch(source, outcome string)
	RecordRowsLoaded(source string, n int)
	RecordError(kind string)
}
