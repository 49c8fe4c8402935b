package store

import "github.com/Briareos12/amiws-queue/internal/types"

// Aggregate reads. Each is recomputed from the live graph under a read
// lock on every call; nothing here is cached.

// QueuesPerServer counts the queues owned by a server.
func (s *Store) QueuesPerServer(serverID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, q := range s.queues {
		if q.ServerID == serverID {
			n++
		}
	}
	return n
}

// TotalActiveCalls counts callers connected to a member across all queues.
func (s *Store) TotalActiveCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countCallers(types.CallerAnswered)
}

// TotalWaitingCalls counts callers still waiting across all queues.
func (s *Store) TotalWaitingCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countCallers(types.CallerJoined)
}

func (s *Store) countCallers(status types.CallerStatus) int {
	n := 0
	for _, q := range s.queues {
		for _, c := range q.Callers {
			if c.Status == status {
				n++
			}
		}
	}
	return n
}

// TotalCompletedCalls sums the completed counters of all queues.
func (s *Store) TotalCompletedCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, q := range s.queues {
		n += q.Completed
	}
	return n
}

// TotalAbandonedCalls sums the abandoned counters of all queues.
func (s *Store) TotalAbandonedCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, q := range s.queues {
		n += q.Abandoned
	}
	return n
}

// TotalPausedMembers counts paused members across all queues.
func (s *Store) TotalPausedMembers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countMembers(true)
}

// TotalUnpausedMembers counts unpaused members across all queues.
func (s *Store) TotalUnpausedMembers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countMembers(false)
}

func (s *Store) countMembers(paused bool) int {
	n := 0
	for _, q := range s.queues {
		for _, m := range q.Members {
			if m.Paused == paused {
				n++
			}
		}
	}
	return n
}

// Stats computes every cross-queue total in a single pass under one
// read lock, for consumers that want the whole snapshot at once.
func (s *Store) Stats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := types.Stats{
		Servers: len(s.servers),
		Queues:  len(s.queues),
	}
	for _, q := range s.queues {
		st.CompletedCalls += q.Completed
		st.AbandonedCalls += q.Abandoned
		for _, c := range q.Callers {
			if c.Status == types.CallerAnswered {
				st.ActiveCalls++
			} else {
				st.WaitingCalls++
			}
		}
		for _, m := range q.Members {
			if m.Paused {
				st.PausedMembers++
			} else {
				st.UnpausedMembers++
			}
		}
	}
	return st
}

// SelectedMembers returns a copy of the selected queue's member sequence,
// or nil when no queue matches the current selection.
func (s *Store) SelectedMembers() []types.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := s.findQueueByName(s.selected)
	if q == nil {
		return nil
	}

	out := make([]types.Member, 0, len(q.Members))
	for _, m := range q.Members {
		out = append(out, *m)
	}
	return out
}

// SelectedCallers returns a copy of the selected queue's caller sequence,
// or nil when no queue matches the current selection.
func (s *Store) SelectedCallers() []types.Caller {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := s.findQueueByName(s.selected)
	if q == nil {
		return nil
	}

	out := make([]types.Caller, 0, len(q.Callers))
	for _, c := range q.Callers {
		out = append(out, *c)
	}
	return out
}
