// Package broadcast pushes periodic state snapshots to subscribed
// consumers: the websocket hub always, an MQTT broker when configured.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Briareos12/amiws-queue/internal/metrics"
	"github.com/Briareos12/amiws-queue/internal/publisher"
	"github.com/Briareos12/amiws-queue/internal/store"
	"github.com/Briareos12/amiws-queue/internal/types"
)

// Snapshot is the message pushed to consumers on every cycle.
type Snapshot struct {
	Timestamp string         `json:"timestamp"`
	Stats     types.Stats    `json:"stats"`
	Servers   []types.Server `json:"servers"`
	Queues    []types.Queue  `json:"queues"`
}

// Sink receives the marshaled snapshot; the websocket hub satisfies it.
type Sink interface {
	Broadcast(message []byte)
	ClientCount() int
}

// Broadcaster periodically reads the store and fans the snapshot out.
type Broadcaster struct {
	store    *store.Store
	sink     Sink
	pub      publisher.Publisher // nil when MQTT is not configured
	topic    string
	interval time.Duration
	logger   zerolog.Logger
}

// New creates a Broadcaster. pub may be nil to disable publishing.
func New(st *store.Store, sink Sink, pub publisher.Publisher, topicPrefix string, interval time.Duration, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		store:    st,
		sink:     sink,
		pub:      pub,
		topic:    fmt.Sprintf("%s/stats", topicPrefix),
		interval: interval,
		logger:   logger.With().Str("component", "broadcast").Logger(),
	}
}

// Start runs broadcast cycles until the context is cancelled.
func (b *Broadcaster) Start(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.logger.Info().Dur("interval", b.interval).Msg("broadcaster started")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("broadcaster stopped")
			return

		case <-ticker.C:
			b.cycle(ctx)
		}
	}
}

func (b *Broadcaster) cycle(ctx context.Context) {
	m := metrics.Get()
	start := time.Now()

	data, err := json.Marshal(b.snapshot(start))
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to marshal snapshot")
		m.RecordBroadcastError()
		return
	}

	b.sink.Broadcast(data)

	if b.pub != nil {
		if err := b.pub.Publish(ctx, b.topic, data); err != nil {
			b.logger.Error().Err(err).Str("topic", b.topic).Msg("publish failed")
			m.RecordPublishError()
		} else {
			m.RecordStatsPublished()
		}
	}

	m.RecordBroadcastCycle(time.Since(start))
	b.logger.Debug().
		Int("clients", b.sink.ClientCount()).
		Msg("snapshot broadcasted")
}

func (b *Broadcaster) snapshot(now time.Time) Snapshot {
	return Snapshot{
		Timestamp: now.UTC().Format(time.RFC3339),
		Stats:     b.store.Stats(),
		Servers:   b.store.Servers(),
		Queues:    b.store.Queues(),
	}
}
