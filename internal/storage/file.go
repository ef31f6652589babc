package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "carepilot/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.deliveries.jsonl     (append-only JSON Lines)
//   - <prefix>.dedupe.snapshot.json (periodic snapshot)
//   - <prefix>.dedupe.journal.jsonl (append-only journal)
//
// The journal is periodically compacted into the snapshot.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	deliveryFile *os.File

	dedupeSnapshotPath string
	dedupeJournalFile  *os.File
	dedupe             map[string]int64 // unix milli

	dedupeWrites int
}

type dedupeRecord struct {
	Key   string `json:"key"`
	Until int64  `json:"until"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	deliveryPath := prefix + ".deliveries.jsonl"
	snapPath := prefix + ".dedupe.snapshot.json"
	journalPath := prefix + ".dedupe.journal.jsonl"

	df, err := os.OpenFile(deliveryPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	// Load dedupe state from snapshot + journal.
	dedupe := map[string]int64{}
	_ = loadDedupeSnapshot(snapPath, dedupe)
	_ = replayDedupeJournal(journalPath, dedupe)
	pruneExpiredDedupe(dedupe)

	jf, err := os.OpenFile(journalPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		_ = df.Close()
		return nil, err
	}

	return &fileStore{
		log:                log,
		deliveryFile:       df,
		dedupeSnapshotPath: snapPath,
		dedupeJournalFile:  jf,
		dedupe:             dedupe,
	}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err1, err2 error
	if s.deliveryFile != nil {
		err1 = s.deliveryFile.Close()
		s.deliveryFile = nil
	}
	if s.dedupeJournalFile != nil {
		err2 = s.dedupeJournalFile.Close()
		s.dedupeJournalFile = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

func (s *fileStore) AppendDelivery(ctx context.Context, r DeliveryRecord) error {
	_ = ctx
	if r.At.IsZero() {
		r.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deliveryFile == nil {
		return errors.New("delivery log closed")
	}
	return json.NewEncoder(s.deliveryFile).Encode(r)
}

func (s *fileStore) PutDedupe(ctx context.Context, key string, until time.Time) error {
	_ = ctx
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	ms := until.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dedupeJournalFile == nil {
		return errors.New("dedupe journal closed")
	}
	if s.dedupe == nil {
		s.dedupe = map[string]int64{}
	}
	s.dedupe[key] = ms

	// Append journal record.
	enc := json.NewEncoder(s.dedupeJournalFile)
	if err := enc.Encode(dedupeRecord{Key: key, Until: ms}); err != nil {
		return err
	}
	s.dedupeWrites++
	if s.dedupeWrites%1000 == 0 {
		// Best-effort compact.
		if err := s.compactLocked(); err != nil {
			s.log.Debug("dedupe compact failed", logx.Any("err", err))
		}
	}
	return nil
}

func (s *fileStore) GetDedupe(ctx context.Context, key string) (time.Time, bool, error) {
	_ = ctx
	key = strings.TrimSpace(key)
	if key == "" {
		return time.Time{}, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dedupe == nil {
		return time.Time{}, false, nil
	}
	ms, ok := s.dedupe[key]
	if !ok {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

func (s *fileStore) compactLocked() error {
	if s.dedupe == nil {
		return nil
	}
	pruneExpiredDedupe(s.dedupe)

	tmp := s.dedupeSnapshotPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(s.dedupe); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.dedupeSnapshotPath); err != nil {
		return err
	}
	// Truncate journal.
	if err := s.dedupeJournalFile.Truncate(0); err != nil {
		return err
	}
	_, err = s.dedupeJournalFile.Seek(0, 2)
	return err
}

func loadDedupeSnapshot(path string, out map[string]int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var m map[string]int64
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return err
	}
	for k, v := range m {
		out[k] = v
	}
	return nil
}

func replayDedupeJournal(path string, out map[string]int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	for s.Scan() {
		var r dedupeRecord
		if err := json.Unmarshal(s.Bytes(), &r); err != nil {
			continue
		}
		if r.Key == "" {
			continue
		}
		out[r.Key] = r.Until
	}
	return s.Err()
}

func pruneExpiredDedupe(m map[string]int64) {
	now := time.Now().UnixMilli()
	for k, v := range m {
		if v < now {
			delete(m, k)
		}
	}
}
