package inmemory

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/donmikel/filedash/applications/dashboard/domain"
	"github.com/donmikel/filedash/applications/dashboard/interfaces"
)

const (
	uploadServerURL  = "inmemory://upload"
	downloadURL      = "inmemory://download/"
	defaultFreeSpace = 100 * 1024 * 1024 // 100 Mb
	fileCodeLen      = 12
)

type storedFile struct {
	info     domain.FileInfo
	data     []byte
	password string
	deleted  time.Time
}

type storedFolder struct {
	folder   domain.Folder
	password string
	deleted  bool
}

type inMemoryStorage struct {
	files    map[string]*storedFile
	folders  map[int64]*storedFolder
	sessions map[string]struct{}
	jobs     []domain.RemoteUploadStatus
	nextID   int64

	// freeSpace is charged for every stored file, removed ones included:
	// they stay in the trash until restored.
	freeSpace int

	log   log.Logger
	mutex sync.RWMutex
}

// NewStorage returns a RemoteStorage kept entirely in memory. It mirrors the
// FileLu API closely enough to run the dashboard without an account.
func NewStorage(logger log.Logger) interfaces.RemoteStorage {
	return &inMemoryStorage{
		files:     map[string]*storedFile{},
		folders:   map[int64]*storedFolder{},
		sessions:  map[string]struct{}{},
		freeSpace: defaultFreeSpace,
		log:       logger,
	}
}

func notFound(endpoint, what string) error {
	return &domain.ServiceError{Endpoint: endpoint, Status: http.StatusNotFound, Msg: what + " not found"}
}

func newFileCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:fileCodeLen]
}

func (m *inMemoryStorage) GetUploadServer(ctx context.Context) (domain.UploadTarget, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	sess := uuid.NewString()
	m.sessions[sess] = struct{}{}

	return domain.UploadTarget{ServerURL: uploadServerURL, SessionID: sess}, nil
}

func (m *inMemoryStorage) UploadFile(ctx context.Context, target domain.UploadTarget, payload domain.MultipartPayload) ([]domain.UploadedFile, error) {
	defer payload.Body.Close()

	sess, name, data, err := readUpload(payload)
	if err != nil {
		return nil, &domain.TransportError{Op: http.MethodPost, URL: target.ServerURL, StatusCode: http.StatusBadRequest, Err: err}
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.sessions[sess]; !ok {
		return []domain.UploadedFile{{FileStatus: "invalid session"}}, nil
	}
	delete(m.sessions, sess)

	if len(data) > m.freeSpace {
		return []domain.UploadedFile{{FileStatus: "not enough free space"}}, nil
	}

	code := newFileCode()
	m.files[code] = &storedFile{
		info: domain.FileInfo{
			FileCode: code,
			Name:     name,
			Size:     int64(len(data)),
			Uploaded: time.Now().UTC().Format(time.RFC3339),
			Link:     downloadURL + code,
		},
		data: data,
	}
	m.freeSpace -= len(data)

	level.Info(m.log).Log("msg", "file stored",
		"file_code", code,
		"name", name,
		"size", humanize.Bytes(uint64(len(data))),
		"free_space", humanize.Bytes(uint64(m.freeSpace)),
	)

	return []domain.UploadedFile{{FileCode: code, FileStatus: "OK"}}, nil
}

func readUpload(payload domain.MultipartPayload) (sess, name string, data []byte, err error) {
	_, params, err := mime.ParseMediaType(payload.ContentType)
	if err != nil {
		return "", "", nil, fmt.Errorf("can't parse content type: %w", err)
	}

	mr := multipart.NewReader(payload.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return sess, name, data, nil
		}
		if err != nil {
			return "", "", nil, fmt.Errorf("can't read part: %w", err)
		}

		content, err := io.ReadAll(part)
		if err != nil {
			return "", "", nil, fmt.Errorf("can't read part: %w", err)
		}

		switch part.FormName() {
		case "sess_id":
			sess = string(content)
		case "file_0":
			name, data = part.FileName(), content
		}
	}
}

func (m *inMemoryStorage) SetFileFolder(ctx context.Context, assignment domain.FolderAssignment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	f, ok := m.liveFile(assignment.FileCode)
	if !ok {
		return notFound("/file/set_folder", "file")
	}
	if _, ok = m.liveFolder(assignment.FolderID); !ok && assignment.FolderID != domain.NoFolder {
		return notFound("/file/set_folder", "folder")
	}

	f.info.FolderID = assignment.FolderID

	return nil
}

func (m *inMemoryStorage) UploadRemoteURL(ctx context.Context, job domain.RemoteFetchJob) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	code := newFileCode()
	m.jobs = append(m.jobs, domain.RemoteUploadStatus{
		FileCode:  code,
		RemoteURL: job.SourceURL,
		Status:    "pending",
		FolderID:  job.FolderID,
		Created:   time.Now().UTC().Format(time.RFC3339),
	})

	return code, nil
}

func (m *inMemoryStorage) RemoteUploadStatus(ctx context.Context) ([]domain.RemoteUploadStatus, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return append([]domain.RemoteUploadStatus(nil), m.jobs...), nil
}

func (m *inMemoryStorage) liveFile(code string) (*storedFile, bool) {
	f, ok := m.files[code]
	if !ok || !f.deleted.IsZero() {
		return nil, false
	}
	return f, true
}

func (m *inMemoryStorage) liveFolder(id int64) (*storedFolder, bool) {
	f, ok := m.folders[id]
	if !ok || f.deleted {
		return nil, false
	}
	return f, true
}

func (m *inMemoryStorage) FileInfo(ctx context.Context, fileCode string) ([]domain.FileInfo, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	f, ok := m.liveFile(fileCode)
	if !ok {
		return nil, nil
	}

	return []domain.FileInfo{f.info}, nil
}

func (m *inMemoryStorage) ListFiles(ctx context.Context, page, perPage int, folderID int64) (domain.FileList, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var files []domain.FileInfo
	for _, f := range m.files {
		if f.deleted.IsZero() && f.info.FolderID == folderID {
			files = append(files, f.info)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	total := len(files)
	files = paginate(files, page, perPage)

	return domain.FileList{Files: files, Results: len(files), Total: total}, nil
}

func paginate[T any](items []T, page, perPage int) []T {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 25
	}

	start := (page - 1) * perPage
	if start >= len(items) {
		return nil
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}

	return items[start:end]
}

func (m *inMemoryStorage) DirectLink(ctx context.Context, fileCode string) (domain.DirectLink, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	f, ok := m.liveFile(fileCode)
	if !ok {
		return domain.DirectLink{}, notFound("/file/direct_link", "file")
	}

	return domain.DirectLink{URL: f.info.Link, Size: f.info.Size}, nil
}

func (m *inMemoryStorage) RenameFile(ctx context.Context, fileCode, name string) error {
	return m.updateFile("/file/rename", fileCode, func(f *storedFile) { f.info.Name = name })
}

func (m *inMemoryStorage) CloneFile(ctx context.Context, fileCode string) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	f, ok := m.liveFile(fileCode)
	if !ok {
		return "", notFound("/file/clone", "file")
	}

	if len(f.data) > m.freeSpace {
		return "", &domain.ServiceError{Endpoint: "/file/clone", Status: http.StatusForbidden, Msg: "not enough free space"}
	}

	code := newFileCode()
	info := f.info
	info.FileCode = code
	info.Link = downloadURL + code
	m.files[code] = &storedFile{info: info, data: f.data}
	m.freeSpace -= len(f.data)

	return code, nil
}

func (m *inMemoryStorage) SetFileOnlyMe(ctx context.Context, fileCode string, onlyMe bool) error {
	return m.updateFile("/file/only_me", fileCode, func(f *storedFile) {
		f.info.OnlyMe = 0
		if onlyMe {
			f.info.OnlyMe = 1
		}
	})
}

func (m *inMemoryStorage) SetFilePassword(ctx context.Context, fileCode, password string) error {
	return m.updateFile("/file/set_password", fileCode, func(f *storedFile) {
		f.password = password
		f.info.HasPasswd = 0
		if password != "" {
			f.info.HasPasswd = 1
		}
	})
}

func (m *inMemoryStorage) RemoveFile(ctx context.Context, fileCode string) error {
	return m.updateFile("/file/remove", fileCode, func(f *storedFile) { f.deleted = time.Now() })
}

func (m *inMemoryStorage) RestoreFile(ctx context.Context, fileCode string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	f, ok := m.files[fileCode]
	if !ok || f.deleted.IsZero() {
		return notFound("/file/restore", "deleted file")
	}
	f.deleted = time.Time{}

	return nil
}

func (m *inMemoryStorage) ListDeletedFiles(ctx context.Context) ([]domain.DeletedFile, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var deleted []domain.DeletedFile
	for _, f := range m.files {
		if f.deleted.IsZero() {
			continue
		}
		deleted = append(deleted, domain.DeletedFile{
			FileCode:      f.info.FileCode,
			Name:          f.info.Name,
			Deleted:       f.deleted.UTC().Format(time.RFC3339),
			DeletedAgoSec: int64(time.Since(f.deleted).Seconds()),
		})
	}
	sort.Slice(deleted, func(i, j int) bool { return deleted[i].FileCode < deleted[j].FileCode })

	return deleted, nil
}

func (m *inMemoryStorage) updateFile(endpoint, fileCode string, update func(f *storedFile)) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	f, ok := m.liveFile(fileCode)
	if !ok {
		return notFound(endpoint, "file")
	}
	update(f)

	return nil
}
