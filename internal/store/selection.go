package store

// SetSelectedQueue replaces the selected queue name unconditionally. The
// name is not validated against the queue collection; selection-scoped
// reads return empty results on a miss.
func (s *Store) SetSelectedQueue(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = name
}

// SelectedQueue returns the currently selected queue name.
func (s *Store) SelectedQueue() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}
