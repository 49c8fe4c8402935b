package broadcast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Briareos12/amiws-queue/internal/publisher"
	"github.com/Briareos12/amiws-queue/internal/store"
	"github.com/Briareos12/amiws-queue/internal/types"
)

// fakeSink captures broadcast payloads in place of the websocket hub.
type fakeSink struct {
	mu       sync.Mutex
	messages [][]byte
}

func (f *fakeSink) Broadcast(message []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := make([]byte, len(message))
	copy(msg, message)
	f.messages = append(f.messages, msg)
}

func (f *fakeSink) ClientCount() int { return 0 }

func (f *fakeSink) Messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := make([][]byte, len(f.messages))
	copy(msgs, f.messages)
	return msgs
}

func newSeededStore() *store.Store {
	st := store.New()
	st.UpsertServer(types.ServerStatus{ID: "srv-1", Name: "ami srv-1"})
	st.UpsertQueue(types.QueueParams{
		ServerID:  "srv-1",
		Name:      "support",
		Max:       10,
		Strategy:  "ringall",
		Completed: 3,
		Abandoned: 1,
	})
	return st
}

func TestBroadcasterCycles(t *testing.T) {
	st := newSeededStore()
	sink := &fakeSink{}
	logger := zerolog.New(&bytes.Buffer{})

	b := New(st, sink, nil, "amiws", 10*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Start(ctx)
		close(done)
	}()

	time.Sleep(55 * time.Millisecond)
	cancel()
	<-done

	msgs := sink.Messages()
	if len(msgs) < 2 {
		t.Fatalf("expected at least 2 broadcast cycles, got %d", len(msgs))
	}

	var snap Snapshot
	if err := json.Unmarshal(msgs[0], &snap); err != nil {
		t.Fatalf("invalid snapshot payload: %v", err)
	}
	if snap.Timestamp == "" {
		t.Error("expected timestamp to be set")
	}
	if snap.Stats.Servers != 1 {
		t.Errorf("expected 1 server in stats, got %d", snap.Stats.Servers)
	}
	if len(snap.Queues) != 1 || snap.Queues[0].Name != "support" {
		t.Errorf("unexpected queues in snapshot: %+v", snap.Queues)
	}
	if snap.Queues[0].Completed != 3 {
		t.Errorf("expected 3 completed, got %d", snap.Queues[0].Completed)
	}
}

func TestBroadcasterPublishesToTopic(t *testing.T) {
	st := newSeededStore()
	sink := &fakeSink{}
	pub := publisher.NewMockPublisher()
	logger := zerolog.New(&bytes.Buffer{})

	b := New(st, sink, pub, "callcenter", 10*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Start(ctx)
	time.Sleep(35 * time.Millisecond)
	cancel()

	msgs := pub.Messages()
	if len(msgs) == 0 {
		t.Fatal("expected messages published to broker")
	}
	if msgs[0].Topic != "callcenter/stats" {
		t.Errorf("expected topic callcenter/stats, got %s", msgs[0].Topic)
	}
	if !bytes.Contains(msgs[0].Payload, []byte(`"support"`)) {
		t.Errorf("expected payload to carry queue state, got %s", msgs[0].Payload)
	}
}

func TestBroadcasterSurvivesPublishErrors(t *testing.T) {
	st := newSeededStore()
	sink := &fakeSink{}
	pub := publisher.NewMockPublisher()
	pub.SetError(errors.New("broker unreachable"))
	logger := zerolog.New(&bytes.Buffer{})

	b := New(st, sink, pub, "amiws", 10*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Start(ctx)
	time.Sleep(35 * time.Millisecond)
	cancel()

	// The hub keeps receiving snapshots even while the broker is down.
	if len(sink.Messages()) == 0 {
		t.Error("expected broadcasts to continue despite publish errors")
	}
	if len(pub.Messages()) != 0 {
		t.Errorf("expected no recorded publishes, got %d", len(pub.Messages()))
	}
}
