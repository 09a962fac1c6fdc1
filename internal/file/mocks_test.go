package file

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/frahmantamala/filehub/internal/auth"
	filedm "github.com/frahmantamala/filehub/internal/core/datamodel/file"
	userdm "github.com/frahmantamala/filehub/internal/core/datamodel/user"
	"github.com/frahmantamala/filehub/internal/core/events"
	"github.com/frahmantamala/filehub/internal/storage"
)

type mockFileRepository struct {
	files       map[int64]*filedm.File
	grants      map[int64]*filedm.FilePermission
	users       map[int64]string
	nextID      int64
	nextGrantID int64
	downloads   map[int64]int

	returnError   bool
	errorToReturn error
	createError   error
}

func newMockFileRepository() *mockFileRepository {
	return &mockFileRepository{
		files:     map[int64]*filedm.File{},
		grants:    map[int64]*filedm.FilePermission{},
		users:     map[int64]string{1: "owner", 2: "stranger", 3: "grantee", 4: "root"},
		nextID:    100,
		downloads: map[int64]int{},
	}
}

func (m *mockFileRepository) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

func (m *mockFileRepository) seed(f *filedm.File) *filedm.File {
	m.nextID++
	f.ID = m.nextID
	m.files[f.ID] = f
	return f
}

func (m *mockFileRepository) hydrate(f *filedm.File) *filedm.File {
	out := *f
	out.Permissions = nil
	if name, ok := m.users[f.UploadedBy]; ok {
		out.Uploader = &userdm.User{ID: f.UploadedBy, Username: name}
	}
	for _, g := range m.sortedGrants(f.ID) {
		out.Permissions = append(out.Permissions, *g)
	}
	return &out
}

func (m *mockFileRepository) sortedGrants(fileID int64) []*filedm.FilePermission {
	var out []*filedm.FilePermission
	for _, g := range m.grants {
		if g.FileID == fileID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockFileRepository) Create(_ context.Context, f *filedm.File) error {
	if m.createError != nil {
		return m.createError
	}
	if m.returnError {
		return m.errorToReturn
	}
	m.seed(f)
	return nil
}

func (m *mockFileRepository) GetByID(_ context.Context, fileID int64) (*filedm.File, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	f, ok := m.files[fileID]
	if !ok {
		return nil, ErrFileNotFound
	}
	return m.hydrate(f), nil
}

func (m *mockFileRepository) List(_ context.Context, q ListQuery) ([]filedm.File, int64, error) {
	if m.returnError {
		return nil, 0, m.errorToReturn
	}
	var matched []filedm.File
	for _, f := range m.files {
		if q.OwnerID != nil && f.UploadedBy != *q.OwnerID {
			continue
		}
		if q.PublicOnly && !f.IsPublic {
			continue
		}
		if q.Search != "" && !strings.Contains(f.OriginalFilename, q.Search) && !strings.Contains(f.Description, q.Search) {
			continue
		}
		matched = append(matched, *m.hydrate(f))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].UploadDate.After(matched[j].UploadDate) })

	total := int64(len(matched))
	if q.Limit > 0 {
		if q.Offset >= len(matched) {
			return nil, total, nil
		}
		end := q.Offset + q.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[q.Offset:end]
	}
	return matched, total, nil
}

func (m *mockFileRepository) IncrementDownloads(_ context.Context, fileID int64) error {
	if m.returnError {
		return m.errorToReturn
	}
	m.downloads[fileID]++
	if f, ok := m.files[fileID]; ok {
		f.DownloadCount++
	}
	return nil
}

// DeleteWithBlob mimics the transactional contract: nothing changes unless
// removeBlob succeeds.
func (m *mockFileRepository) DeleteWithBlob(ctx context.Context, fileID int64, removeBlob func(ctx context.Context) error) error {
	if m.returnError {
		return m.errorToReturn
	}
	if _, ok := m.files[fileID]; !ok {
		return ErrFileNotFound
	}
	if err := removeBlob(ctx); err != nil {
		return err
	}
	delete(m.files, fileID)
	for id, g := range m.grants {
		if g.FileID == fileID {
			delete(m.grants, id)
		}
	}
	return nil
}

func (m *mockFileRepository) CreateGrant(_ context.Context, g *filedm.FilePermission) (bool, error) {
	if m.returnError {
		return false, m.errorToReturn
	}
	for _, existing := range m.grants {
		if existing.FileID == g.FileID && existing.UserID == g.UserID && existing.PermissionType == g.PermissionType {
			*g = *existing
			return false, nil
		}
	}
	m.nextGrantID++
	g.ID = m.nextGrantID
	stored := *g
	m.grants[g.ID] = &stored
	return true, nil
}

func (m *mockFileRepository) ListGrants(_ context.Context, fileID int64) ([]filedm.FilePermission, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	var out []filedm.FilePermission
	for _, g := range m.sortedGrants(fileID) {
		out = append(out, *g)
	}
	return out, nil
}

func (m *mockFileRepository) DeleteGrant(_ context.Context, fileID, grantID int64) error {
	if m.returnError {
		return m.errorToReturn
	}
	g, ok := m.grants[grantID]
	if !ok || g.FileID != fileID {
		return ErrGrantNotFound
	}
	delete(m.grants, grantID)
	return nil
}

func (m *mockFileRepository) Stats(_ context.Context, userID *int64) (*Stats, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	stats := &Stats{FileTypes: map[string]TypeStat{}}
	for _, f := range m.files {
		if userID != nil && f.UploadedBy != *userID {
			continue
		}
		stats.TotalFiles++
		stats.TotalSize += f.FileSize
		ts := stats.FileTypes[f.FileType]
		ts.Count++
		ts.Size += f.FileSize
		stats.FileTypes[f.FileType] = ts
	}
	return stats, nil
}

func (m *mockFileRepository) UserExists(_ context.Context, userID int64) (bool, error) {
	if m.returnError {
		return false, m.errorToReturn
	}
	_, ok := m.users[userID]
	return ok, nil
}

func (m *mockFileRepository) LoadFileAccess(ctx context.Context, fileID int64) (*auth.FileAccess, error) {
	row, err := m.GetByID(ctx, fileID)
	if err != nil {
		return nil, auth.ErrResourceNotFound
	}
	return FromDataModel(row).Access(), nil
}

type memoryStorage struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	deleteErr error
	saveErr   error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{blobs: map[string][]byte{}}
}

func (s *memoryStorage) Save(_ context.Context, key string, r io.Reader) (int64, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return int64(len(data)), nil
}

func (s *memoryStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memoryStorage) Delete(_ context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *memoryStorage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]
	return ok, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

var (
	owner    = &auth.User{ID: 1, Username: "owner", IsActive: true, Roles: []string{auth.RoleUser}}
	stranger = &auth.User{ID: 2, Username: "stranger", IsActive: true, Roles: []string{auth.RoleUser}}
	grantee  = &auth.User{ID: 3, Username: "grantee", IsActive: true, Roles: []string{auth.RoleViewer}}
	admin    = &auth.User{ID: 4, Username: "root", IsActive: true, Roles: []string{auth.RoleAdmin}}
)
