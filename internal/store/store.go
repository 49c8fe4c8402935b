package store

import (
	"sync"

	"github.com/Briareos12/amiws-queue/internal/types"
)

// Store is the normalized in-memory graph of servers, queues, members and
// callers built from the AMI event stream. It is the single source of truth
// for all aggregate reads.
//
// One logical writer (the event classifier) applies mutations in arrival
// order while readers (API handlers, broadcaster) take snapshots under a
// read lock. Collections are slices scanned linearly; insertion order is
// arrival order, which matters for caller sequences.
type Store struct {
	mu       sync.RWMutex
	servers  []*types.Server
	queues   []*types.Queue
	selected string
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// UpsertServer creates a server on first sight of its ID, or refreshes the
// reload/startup timestamps of an existing one. Name and SSL are fixed at
// creation; servers are never removed during a session.
func (s *Store) UpsertServer(st types.ServerStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if srv := s.findServer(st.ID); srv != nil {
		srv.Reloaded = st.Reloaded
		srv.Started = st.Started
		return
	}

	s.servers = append(s.servers, &types.Server{
		ID:       st.ID,
		Name:     st.Name,
		SSL:      st.SSL,
		Reloaded: st.Reloaded,
		Started:  st.Started,
	})
}

// UpsertQueue creates a queue on the first QueueParams event for a
// (serverID, name) pair, or overwrites the rolling metrics of an existing
// one. Max and Strategy are immutable after creation. The event is ignored
// when the owning server is unknown.
func (s *Store) UpsertQueue(p types.QueueParams) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	srv := s.findServer(p.ServerID)
	if srv == nil {
		return false
	}

	if q := s.findQueue(p.ServerID, p.Name); q != nil {
		q.Holdtime = p.Holdtime
		q.Talktime = p.Talktime
		q.Completed = p.Completed
		q.Abandoned = p.Abandoned
		q.ServiceLevel = p.ServiceLevel
		q.ServiceLevelPerf = p.ServiceLevelPerf
		q.Weight = p.Weight
		return true
	}

	s.queues = append(s.queues, &types.Queue{
		ServerID:         p.ServerID,
		Name:             p.Name,
		Max:              p.Max,
		Strategy:         p.Strategy,
		Holdtime:         p.Holdtime,
		Talktime:         p.Talktime,
		Completed:        p.Completed,
		Abandoned:        p.Abandoned,
		ServiceLevel:     p.ServiceLevel,
		ServiceLevelPerf: p.ServiceLevelPerf,
		Weight:           p.Weight,
		Members:          []*types.Member{},
		Callers:          []*types.Caller{},
	})
	srv.QueueCount++
	return true
}

// UpsertMember creates or updates a member within a queue, keyed by name.
// Returns false when the queue is unknown.
func (s *Store) UpsertMember(serverID, queueName string, m types.MemberUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.findQueue(serverID, queueName)
	if q == nil {
		return false
	}

	for _, mem := range q.Members {
		if mem.Name == m.Name {
			mem.Location = m.Location
			mem.Interface = m.Interface
			mem.Membership = m.Membership
			mem.Penalty = m.Penalty
			mem.CallsTaken = m.CallsTaken
			mem.LastCall = m.LastCall
			mem.InCall = m.InCall
			mem.Status = m.Status
			mem.Paused = m.Paused
			mem.PausedReason = m.PausedReason
			return true
		}
	}

	q.Members = append(q.Members, &types.Member{
		Name:         m.Name,
		Location:     m.Location,
		Interface:    m.Interface,
		Membership:   m.Membership,
		Penalty:      m.Penalty,
		CallsTaken:   m.CallsTaken,
		LastCall:     m.LastCall,
		InCall:       m.InCall,
		Status:       m.Status,
		Paused:       m.Paused,
		PausedReason: m.PausedReason,
	})
	return true
}

// RemoveMember removes the first member matching (name, interface) from a
// queue. Returns false when the queue is unknown; an unmatched member is
// a silent no-op.
func (s *Store) RemoveMember(serverID, queueName, name, iface string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.findQueue(serverID, queueName)
	if q == nil {
		return false
	}

	for i, mem := range q.Members {
		if mem.Name == name && mem.Interface == iface {
			q.Members = append(q.Members[:i], q.Members[i+1:]...)
			break
		}
	}
	return true
}

// InsertCaller appends a caller to a queue's sequence. Arrival order is
// preserved; the Position field is informational and not used for ordering.
// Returns false when the queue is unknown.
func (s *Store) InsertCaller(serverID, queueName string, c types.CallerEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.findQueue(serverID, queueName)
	if q == nil {
		return false
	}

	q.Callers = append(q.Callers, &types.Caller{
		Position:          c.Position,
		Status:            c.Status,
		Channel:           c.Channel,
		UniqueID:          c.UniqueID,
		CallerIDNum:       c.CallerIDNum,
		CallerIDName:      c.CallerIDName,
		ConnectedLineNum:  c.ConnectedLineNum,
		ConnectedLineName: c.ConnectedLineName,
		Wait:              c.Wait,
	})
	return true
}

// AnswerCaller transitions a caller to answered on a Leave event, matched
// by (channel, uniqueID). Returns false when the queue is unknown; an
// unmatched caller is a silent no-op.
func (s *Store) AnswerCaller(serverID, queueName, channel, uniqueID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.findQueue(serverID, queueName)
	if q == nil {
		return false
	}

	for _, c := range q.Callers {
		if c.Channel == channel && c.UniqueID == uniqueID {
			c.Status = types.CallerAnswered
			break
		}
	}
	return true
}

// CompleteCaller removes the caller matching (channel, uniqueID) from
// whichever of the server's queues holds it, incrementing that queue's
// completed counter in the same step. Hangup events carry no queue name,
// so the lookup scans all queues owned by the server. Returns false when
// no queue holds a matching caller.
func (s *Store) CompleteCaller(serverID, channel, uniqueID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, q := range s.queues {
		if q.ServerID != serverID {
			continue
		}
		for i, c := range q.Callers {
			if c.Channel == channel && c.UniqueID == uniqueID {
				q.Callers = append(q.Callers[:i], q.Callers[i+1:]...)
				q.Completed++
				return true
			}
		}
	}
	return false
}

// AbandonCaller applies the abandonment delta to a queue: completed -1,
// abandoned +1. The matching Hangup for the same call carries the +1
// completed, so the pair nets out to one abandoned call; the completed
// counter may dip negative when the abandon arrives first. The caller
// entry itself is removed by the Hangup, not here.
//
// Lookup prefers the (serverID, name) composite key and falls back to
// name alone when the event arrived without a server scope.
func (s *Store) AbandonCaller(serverID, queueName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.findQueue(serverID, queueName)
	if q == nil && serverID == "" {
		q = s.findQueueByName(queueName)
	}
	if q == nil {
		return false
	}

	q.Completed--
	q.Abandoned++
	return true
}

// ResetServers empties the server collection. Called when a transport
// connection is re-established so the replayed status responses rebuild
// the list without duplicates.
func (s *Store) ResetServers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servers = nil
}

// ResetQueues empties the queue collection and zeroes the per-server
// queue counters.
func (s *Store) ResetQueues() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues = nil
	for _, srv := range s.servers {
		srv.QueueCount = 0
	}
}

// Servers returns a copy of the server collection in arrival order.
func (s *Store) Servers() []types.Server {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Server, 0, len(s.servers))
	for _, srv := range s.servers {
		out = append(out, *srv)
	}
	return out
}

// Queues returns a deep copy of the queue collection, safe to serialize
// while mutations continue.
func (s *Store) Queues() []types.Queue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Queue, 0, len(s.queues))
	for _, q := range s.queues {
		out = append(out, copyQueue(q))
	}
	return out
}

func copyQueue(q *types.Queue) types.Queue {
	cp := *q
	cp.Members = make([]*types.Member, 0, len(q.Members))
	for _, m := range q.Members {
		mc := *m
		cp.Members = append(cp.Members, &mc)
	}
	cp.Callers = make([]*types.Caller, 0, len(q.Callers))
	for _, c := range q.Callers {
		cc := *c
		cp.Callers = append(cp.Callers, &cc)
	}
	return cp
}

// findServer and findQueue run under the caller's lock.

func (s *Store) findServer(id string) *types.Server {
	for _, srv := range s.servers {
		if srv.ID == id {
			return srv
		}
	}
	return nil
}

func (s *Store) findQueue(serverID, name string) *types.Queue {
	for _, q := range s.queues {
		if q.ServerID == serverID && q.Name == name {
			return q
		}
	}
	return nil
}

func (s *Store) findQueueByName(name string) *types.Queue {
	for _, q := range s.queues {
		if q.Name == name {
			return q
		}
	}
	return nil
}
