// Package ingest routes decoded amiws messages to state store updates.
package ingest

import (
	"github.com/rs/zerolog"

	"github.com/Briareos12/amiws-queue/internal/amiws"
	"github.com/Briareos12/amiws-queue/internal/metrics"
	"github.com/Briareos12/amiws-queue/internal/store"
	"github.com/Briareos12/amiws-queue/internal/types"
)

// Processor classifies incoming amiws messages and applies exactly one
// store update per recognized message. It holds no state of its own;
// routing is pure and unknown event names are no-ops so newer Asterisk
// versions can add events without breaking the stream.
type Processor struct {
	store  *store.Store
	logger zerolog.Logger
}

// NewProcessor creates a Processor writing into the given store.
func NewProcessor(st *store.Store, logger zerolog.Logger) *Processor {
	return &Processor{
		store:  st,
		logger: logger.With().Str("component", "ingest").Logger(),
	}
}

// Process decodes one raw websocket payload and applies it to the store.
// A malformed payload returns a *amiws.DecodeError and leaves the store
// untouched; the transport drops the message and keeps streaming.
func (p *Processor) Process(raw []byte) error {
	m := metrics.Get()
	m.RecordMessageReceived()

	msg, err := amiws.Decode(raw)
	if err != nil {
		m.RecordMessageDropped()
		return err
	}

	switch msg.Type {
	case amiws.TypeResponse:
		p.processResponse(msg)
	case amiws.TypeEvent:
		p.processEvent(msg)
	default:
		m.RecordEventIgnored()
	}
	return nil
}

// processResponse handles AMI action responses. The only response this
// consumer acts on is CoreStatus, recognized by its startup date field.
func (p *Processor) processResponse(msg amiws.Message) {
	m := metrics.Get()

	if msg.Data.Get("CoreStartupDate") == "" {
		m.RecordEventIgnored()
		return
	}

	p.store.UpsertServer(types.ServerStatus{
		ID:       msg.ServerID,
		Name:     msg.ServerName,
		SSL:      msg.SSL,
		Reloaded: msg.Data.DateTime("CoreReloadDate", "CoreReloadTime"),
		Started:  msg.Data.DateTime("CoreStartupDate", "CoreStartupTime"),
	})
	m.RecordEventProcessed("CoreStatus")
}

func (p *Processor) processEvent(msg amiws.Message) {
	m := metrics.Get()
	data := msg.Data
	event := data.Event()

	applied := true
	switch event {
	case "QueueParams":
		applied = p.store.UpsertQueue(queueParams(msg))

	case "QueueMember", "QueueMemberAdded":
		applied = p.store.UpsertMember(msg.ServerID, data.Get("Queue"), memberUpdate(data))

	case "QueueMemberRemoved":
		applied = p.store.RemoveMember(msg.ServerID, data.Get("Queue"),
			data.Get("MemberName"), data.Get("StateInterface"))

	case "QueueEntry", "Join", "QueueCallerJoin":
		applied = p.store.InsertCaller(msg.ServerID, data.Get("Queue"), callerEntry(data, event))

	case "Leave":
		applied = p.store.AnswerCaller(msg.ServerID, data.Get("Queue"),
			data.Get("Channel"), data.Get("Uniqueid"))

	case "Hangup", "SoftHangupRequest":
		applied = p.store.CompleteCaller(msg.ServerID, data.Get("Channel"), data.Get("Uniqueid"))

	case "QueueCallerAbandon":
		applied = p.store.AbandonCaller(msg.ServerID, data.Get("Queue"))

	default:
		m.RecordEventIgnored()
		return
	}

	m.RecordEventProcessed(event)
	if !applied {
		// Not an error: the referenced entity is simply unknown, which
		// happens routinely while the snapshot replay is still underway.
		m.RecordEntityNotFound()
		p.logger.Debug().
			Str("server_id", msg.ServerID).
			Str("event", event).
			Str("queue", data.Get("Queue")).
			Msg("event referenced unknown entity")
	}
}

func queueParams(msg amiws.Message) types.QueueParams {
	data := msg.Data
	return types.QueueParams{
		ServerID:         msg.ServerID,
		Name:             data.Get("Queue"),
		Max:              data.Int("Max"),
		Strategy:         data.Get("Strategy"),
		Holdtime:         data.Int("Holdtime"),
		Talktime:         data.Int("TalkTime"),
		Completed:        data.Int("Completed"),
		Abandoned:        data.Int("Abandoned"),
		ServiceLevel:     data.Float("ServiceLevel"),
		ServiceLevelPerf: data.Float("ServicelevelPerf"),
		Weight:           data.Int("Weight"),
	}
}

func memberUpdate(data amiws.Fields) types.MemberUpdate {
	name := data.Get("Name")
	if name == "" {
		name = data.Get("MemberName")
	}
	return types.MemberUpdate{
		Name:         name,
		Location:     data.Get("Location"),
		Interface:    data.Get("StateInterface"),
		Membership:   data.Get("Membership"),
		Penalty:      data.Int("Penalty"),
		CallsTaken:   data.Int("CallsTaken"),
		LastCall:     data.Int64("LastCall"),
		InCall:       data.Flag("InCall"),
		Status:       data.Int("Status"),
		Paused:       data.Flag("Paused"),
		PausedReason: data.Get("PausedReason"),
	}
}

func callerEntry(data amiws.Fields, event string) types.CallerEntry {
	// Join and QueueCallerJoin signal a fresh arrival; QueueEntry lists a
	// call that was already in the queue when the snapshot was requested.
	status := types.CallerAnswered
	if event == "Join" || event == "QueueCallerJoin" {
		status = types.CallerJoined
	}
	return types.CallerEntry{
		Position:          data.Int("Position"),
		Status:            status,
		Channel:           data.Get("Channel"),
		UniqueID:          data.Get("Uniqueid"),
		CallerIDNum:       data.Get("CallerIDNum"),
		CallerIDName:      data.Get("CallerIDName"),
		ConnectedLineNum:  data.Get("ConnectedLineNum"),
		ConnectedLineName: data.Get("ConnectedLineName"),
		Wait:              data.Int("Wait"),
	}
}
