package dashboard

import (
	"context"

	"github.com/donmikel/filedash/applications/dashboard/domain"
)

// Uploader pushes local content into the remote storage. It never returns an
// error: every failure is reported through the outcome.
type Uploader interface {
	Upload(ctx context.Context, file domain.File, folderID int64) domain.UploadOutcome
	UploadMany(ctx context.Context, files []domain.File, folderID int64) []domain.UploadOutcome
}

// RemoteFetcher asks the remote storage to download a file by URL.
type RemoteFetcher interface {
	Submit(ctx context.Context, sourceURL string, folderID int64) domain.RemoteFetchOutcome
	Status(ctx context.Context) ([]domain.RemoteUploadStatus, error)
}

// Library manages files and folders already stored remotely.
type Library interface {
	ListFiles(ctx context.Context, page, perPage int, folderID int64) (domain.FileList, error)
	FileInfo(ctx context.Context, fileCode string) (domain.FileInfo, error)
	DirectLink(ctx context.Context, fileCode string) (domain.DirectLink, error)
	RenameFile(ctx context.Context, fileCode, name string) error
	CloneFile(ctx context.Context, fileCode string) (string, error)
	MoveFile(ctx context.Context, assignment domain.FolderAssignment) error
	SetFileOnlyMe(ctx context.Context, fileCode string, onlyMe bool) error
	SetFilePassword(ctx context.Context, fileCode, password string) error
	RemoveFile(ctx context.Context, fileCode string) error
	RestoreFile(ctx context.Context, fileCode string) error
	ListDeletedFiles(ctx context.Context) ([]domain.DeletedFile, error)

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
