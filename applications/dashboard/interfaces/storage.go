package interfaces

import (
	"context"

	"github.com/donmikel/filedash/applications/dashboard/domain"
)

type UploadAPI interface {
	GetUploadServer(ctx context.Context) (domain.UploadTarget, error)
	UploadFile(ctx context.Context, target domain.UploadTarget, payload domain.MultipartPayload) ([]domain.UploadedFile, error)
	SetFileFolder(ctx context.Context, assignment domain.FolderAssignment) error
}

type RemoteFetchAPI interface {
	UploadRemoteURL(ctx context.Context, job domain.RemoteFetchJob) (string, error)
	RemoteUploadStatus(ctx context.Context) ([]domain.RemoteUploadStatus, error)
}

type FileAPI interface {
	FileInfo(ctx context.Context, fileCode string) ([]domain.FileInfo, error)
	ListFiles(ctx context.Context, page, perPage int, folderID int64) (domain.FileList, error)
	DirectLink(ctx context.Context, fileCode string) (domain.DirectLink, error)
	RenameFile(ctx context.Context, fileCode, name string) error
	CloneFile(ctx context.Context, fileCode string) (string, error)
	SetFileFolder(ctx context.Context, assignment domain.FolderAssignment) error
	SetFileOnlyMe(ctx context.Context, fileCode string, onlyMe bool) error
	SetFilePassword(ctx context.Context, fileCode, password string) error
	RemoveFile(ctx context.Context, fileCode string) error
	RestoreFile(ctx context.Context, fileCode string) error
	ListDeletedFiles(ctx context.Context) ([]domain.DeletedFile, error)
}

type FolderAPI interface {
	ListFolders(ctx context.Context, page, perPage int, parentID int64) (domain.FolderList, error)
	CreateFolder(ctx context.Context, parentID int64, name string) (int64, error)
	MoveFolder(ctx context.Context, folderID, destFolderID int64) error
	CopyFolder(ctx context.Context, folderID int64) (int64, error)
	DeleteFolder(ctx context.Context, folderID int64) error
	RestoreFolder(ctx context.Context, folderID int64) error
	RenameFolder(ctx context.Context, folderID int64, name string) error
	SetFolderPassword(ctx context.Context, folderToken, password string) error
	SetFolderSetting(ctx context.Context, folderID int64, setting domain.FolderSetting) error
}

// RemoteStorage is the whole remote API surface the dashboard consumes.
type RemoteStorage interface {
	UploadAPI
	RemoteFetchAPI
	FileAPI
	FolderAPI
}
