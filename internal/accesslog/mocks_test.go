package accesslog

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	accesslogdm "github.com/frahmantamala/filehub/internal/core/datamodel/accesslog"
)

type mockRepository struct {
	mu            sync.Mutex
	rows          []accesslogdm.AccessLog
	nextID        int64
	returnError   bool
	errorToReturn error
	lastSince     time.Time
	lastCutoff    time.Time
}

func (m *mockRepository) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

func (m *mockRepository) Insert(_ context.Context, row *accesslogdm.AccessLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnError {
		return m.errorToReturn
	}
	m.nextID++
	row.ID = m.nextID
	m.rows = append(m.rows, *row)
	return nil
}

func (m *mockRepository) snapshot() []accesslogdm.AccessLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]accesslogdm.AccessLog(nil), m.rows...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *mockRepository) Recent(_ context.Context, n int) ([]accesslogdm.AccessLog, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	rows := m.snapshot()
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

func (m *mockRepository) ListSince(_ context.Context, since time.Time, limit, offset int) ([]accesslogdm.AccessLog, int64, error) {
	if m.returnError {
		return nil, 0, m.errorToReturn
	}
	m.lastSince = since
	var matched []accesslogdm.AccessLog
	for _, row := range m.snapshot() {
		if !row.CreatedAt.Before(since) {
			matched = append(matched, row)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockRepository) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnError {
		return 0, m.errorToReturn
	}
	m.lastCutoff = cutoff
	kept := m.rows[:0]
	var deleted int64
	for _, row := range m.rows {
		if row.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.rows = kept
	return deleted, nil
}

type captureSink struct {
	mu      sync.Mutex
	entries []*Entry
}

func (s *captureSink) Record(e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func (s *captureSink) all() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Entry(nil), s.entries...)
}

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
