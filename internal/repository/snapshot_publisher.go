package repository

import (
	"context"
	"time"

	"MandiPulse/internal/domain/models"
	"MandiPulse/internal/domain/repository"
	pkgkafka "MandiPulse/pkg/kafka"
	"MandiPulse/pkg/util"
)

// SnapshotEvent is the payload of one live price snapshot on the wire.
type SnapshotEvent struct {
	Commodity string          `json:"commodity"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
	Count     int             `json:"count"`
	Prices    []SnapshotPrice `json:"prices"`
}

type SnapshotPrice struct {
	State      string  `json:"state"`
	District   string  `json:"district"`
	Market     string  `json:"market"`
	Date       string  `json:"date"`
	ModalPrice float64 `json:"modal_price"`
	MinPrice   float64 `json:"min_price"`
	MaxPrice   float64 `json:"max_price"`
}

// KafkaSnapshotPublisher sends live snapshots keyed by commodity.
type KafkaSnapshotPublisher struct {
	producer *pkgkafka.Producer
	now      func() time.Time
}

var _ repository.SnapshotPublisher = (*KafkaSnapshotPublisher)(nil)

func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer) *KafkaSnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: producer, now: time.Now}
}

func (p *KafkaSnapshotPublisher) PublishSnapshot(ctx context.Context, commodity, source string, records []models.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}
	ev := SnapshotEvent{
		Commodity: util.Normalize(commodity),
		Source:    source,
		FetchedAt: p.now().UTC(),
		Count:     len(records),
		Prices:    make([]SnapshotPrice, len(records)),
	}
	for i, r := range records {
		ev.Prices[i] = SnapshotPrice{
			State:      r.State,
			District:   r.District,
			Market:     r.Market,
			Date:       util.FormatDate(r.PriceDate),
			ModalPrice: r.ModalPrice,
			MinPrice:   r.MinPrice,
			MaxPrice:   r.MaxPrice,
		}
	}
	return p.producer.Publish(ctx, []byte(ev.Commodity), ev)
}

func (p *KafkaSnapshotPublisher) Close() error {
	return p.producer.Close()
}
