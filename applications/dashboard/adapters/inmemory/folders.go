package inmemory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/donmikel/filedash/applications/dashboard/domain"
)

func (m *inMemoryStorage) ListFolders(ctx context.Context, page, perPage int, parentID int64) (domain.FolderList, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var folders []domain.Folder
	for _, f := range m.folders {
		if !f.deleted && f.folder.ParentID == parentID {
			folders = append(folders, f.folder)
		}
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].ID < folders[j].ID })

	var files []domain.FileInfo
	for _, f := range m.files {
		if f.deleted.IsZero() && f.info.FolderID == parentID {
			files = append(files, f.info)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	return domain.FolderList{Folders: paginate(folders, page, perPage), Files: files}, nil
}

func (m *inMemoryStorage) CreateFolder(ctx context.Context, parentID int64, name string) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.liveFolder(parentID); !ok && parentID != domain.NoFolder {
		return 0, notFound("/folder/create", "parent folder")
	}

	return m.addFolder(parentID, name), nil
}

func (m *inMemoryStorage) addFolder(parentID int64, name string) int64 {
	m.nextID++
	m.folders[m.nextID] = &storedFolder{folder: domain.Folder{
		ID:       m.nextID,
		Name:     name,
		ParentID: parentID,
		Token:    uuid.NewString(),
	}}

	return m.nextID
}

func (m *inMemoryStorage) MoveFolder(ctx context.Context, folderID, destFolderID int64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	f, ok := m.liveFolder(folderID)
	if !ok {
		return notFound("/folder/move", "folder")
	}
	if _, ok = m.liveFolder(destFolderID); !ok && destFolderID != domain.NoFolder {
		return notFound("/folder/move", "destination folder")
	}
	if m.isDescendant(destFolderID, folderID) {
		return &domain.ServiceError{Endpoint: "/folder/move", Status: 400, Msg: "can't move folder into itself"}
	}

	f.folder.ParentID = destFolderID

	return nil
}

// isDescendant reports whether id is ancestor itself or lies below it.
func (m *inMemoryStorage) isDescendant(id, ancestor int64) bool {
	for id != domain.NoFolder {
		if id == ancestor {
			return true
		}
		f, ok := m.folders[id]
		if !ok {
			return false
		}
		id = f.folder.ParentID
	}
	return false
}

func (m *inMemoryStorage) CopyFolder(ctx context.Context, folderID int64) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	f, ok := m.liveFolder(folderID)
	if !ok {
		return 0, notFound("/folder/copy", "folder")
	}

	return m.addFolder(f.folder.ParentID, f.folder.Name+" (copy)"), nil
}

func (m *inMemoryStorage) DeleteFolder(ctx context.Context, folderID int64) error {
	return m.updateFolder("/folder/delete", folderID, func(f *storedFolder) { f.deleted = true })
}

func (m *inMemoryStorage) RestoreFolder(ctx context.Context, folderID int64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	f, ok := m.folders[folderID]
	if !ok || !f.deleted {
		return notFound("/folder/restore", "deleted folder")
	}
	f.deleted = false

	return nil
}

func (m *inMemoryStorage) RenameFolder(ctx context.Context, folderID int64, name string) error {
	return m.updateFolder("/folder/rename", folderID, func(f *storedFolder) { f.folder.Name = name })
}

func (m *inMemoryStorage) SetFolderPassword(ctx context.Context, folderToken, password string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, f := range m.folders {
		if !f.deleted && f.folder.Token == folderToken {
			f.password = password
			return nil
		}
	}

	return notFound("/folder/set_password", "folder")
}

func (m *inMemoryStorage) SetFolderSetting(ctx context.Context, folderID int64, setting domain.FolderSetting) error {
	return m.updateFolder("/folder/setting", folderID, func(f *storedFolder) {
		f.folder.FileDrop, f.folder.Public = 0, 0
		if setting.FileDrop {
			f.folder.FileDrop = 1
		}
		if setting.Public {
			f.folder.Public = 1
		}
	})
}

func (m *inMemoryStorage) updateFolder(endpoint string, folderID int64, update func(f *storedFolder)) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	f, ok := m.liveFolder(folderID)
	if !ok {
		return notFound(endpoint, "folder")
	}
	update(f)

	return nil
}
