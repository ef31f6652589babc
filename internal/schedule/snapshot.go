package schedule

import "sort"

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	enabled := s.cfg.Enabled
	workers := s.cfg.Workers
	rebuild := s.cfg.Rebuild
	q := s.queue
	s.mu.Unlock()
	if workers <= 0 {
		workers = 2
	}

	s.tmu.Lock()
	pending := make([]JobInfo, 0, len(s.jobAt))
	for name, at := range s.jobAt {
		pending = append(pending, JobInfo{Name: name, At: at})
	}
	s.tmu.Unlock()
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].At.Equal(pending[j].At) {
			return pending[i].Name < pending[j].Name
		}
		return pending[i].At.Before(pending[j].At)
	})

	s.hmu.Lock()
	hist := make([]HistoryItem, len(s.history))
	copy(hist, s.history)
	s.hmu.Unlock()

	snap := Snapshot{
		Enabled: enabled,
		Workers: workers,
		Rebuild: rebuild,
		Pending: pending,
		History: hist,
	}
	if q != nil {
		snap.QueueLen = len(q)
		snap.QueueCap = cap(q)
	}
	return snap
}
