package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/donmikel/filedash/applications/dashboard"
	"github.com/donmikel/filedash/applications/dashboard/domain"
	"github.com/donmikel/filedash/applications/dashboard/interfaces"
)

type library struct {
	files   interfaces.FileAPI
	folders interfaces.FolderAPI
	logger  log.Logger
}

func NewLibrary(files interfaces.FileAPI, folders interfaces.FolderAPI, logger log.Logger) dashboard.Library {
	return &library{files: files, folders: folders, logger: logger}
}

func (l *library) ListFiles(ctx context.Context, page, perPage int, folderID int64) (domain.FileList, error) {
	list, err := l.files.ListFiles(ctx, page, perPage, folderID)
	if err != nil {
		return domain.FileList{}, fmt.Errorf("can't list files: %w", err)
	}

	return list, nil
}

func (l *library) FileInfo(ctx context.Context, fileCode string) (domain.FileInfo, error) {
	if err := requireCode(fileCode); err != nil {
		return domain.FileInfo{}, err
	}

	info, err := l.files.FileInfo(ctx, fileCode)
	if err != nil {
		return domain.FileInfo{}, fmt.Errorf("can't get file info: %w", err)
	}
	if len(info) == 0 {
		return domain.FileInfo{}, fmt.Errorf("file %s: %w", fileCode, domain.ErrNotFound)
	}

	return info[0], nil
}

func (l *library) DirectLink(ctx context.Context, fileCode string) (domain.DirectLink, error) {
	if err := requireCode(fileCode); err != nil {
		return domain.DirectLink{}, err
	}

	link, err := l.files.DirectLink(ctx, fileCode)
	if err != nil {
		return domain.DirectLink{}, fmt.Errorf("can't get direct link: %w", err)
	}

	return link, nil
}

func (l *library) RenameFile(ctx context.Context, fileCode, name string) error {
	if err := requireCode(fileCode); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return domain.ErrEmptyName
	}

	return l.mutated("file renamed", l.files.RenameFile(ctx, fileCode, name), "file_code", fileCode, "name", name)
}

func (l *library) CloneFile(ctx context.Context, fileCode string) (string, error) {
	if err := requireCode(fileCode); err != nil {
		return "", err
	}

	clone, err := l.files.CloneFile(ctx, fileCode)
	if err = l.mutated("file cloned", err, "file_code", fileCode, "clone", clone); err != nil {
		return "", err
	}

	return clone, nil
}

// MoveFile places a file into a folder. domain.NoFolder is not a folder and
// is rejected like any other invalid id.
func (l *library) MoveFile(ctx context.Context, assignment domain.FolderAssignment) error {
	if err := requireCode(assignment.FileCode); err != nil {
		return err
	}
	if assignment.FolderID <= domain.NoFolder {
		return fmt.Errorf("%w: %d", domain.ErrInvalidFolder, assignment.FolderID)
	}

	err := l.files.SetFileFolder(ctx, assignment)
	return l.mutated("file moved", err, "file_code", assignment.FileCode, "fld_id", assignment.FolderID)
}

func (l *library) SetFileOnlyMe(ctx context.Context, fileCode string, onlyMe bool) error {
	if err := requireCode(fileCode); err != nil {
		return err
	}

	return l.mutated("file visibility changed", l.files.SetFileOnlyMe(ctx, fileCode, onlyMe), "file_code", fileCode, "only_me", onlyMe)
}

func (l *library) SetFilePassword(ctx context.Context, fileCode, password string) error {
	if err := requireCode(fileCode); err != nil {
		return err
	}

	return l.mutated("file password changed", l.files.SetFilePassword(ctx, fileCode, password), "file_code", fileCode)
}

func (l *library) RemoveFile(ctx context.Context, fileCode string) error {
	if err := requireCode(fileCode); err != nil {
		return err
	}

	return l.mutated("file removed", l.files.RemoveFile(ctx, fileCode), "file_code", fileCode)
}

func (l *library) RestoreFile(ctx context.Context, fileCode string) error {
	if err := requireCode(fileCode); err != nil {
		return err
	}

	return l.mutated("file restored", l.files.RestoreFile(ctx, fileCode), "file_code", fileCode)
}

func (l *library) ListDeletedFiles(ctx context.Context) ([]domain.DeletedFile, error) {
	deleted, err := l.files.ListDeletedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't list deleted files: %w", err)
	}

	return deleted, nil
}

func (l *library) ListFolders(ctx context.Context, page, perPage int, parentID int64) (domain.FolderList, error) {
	list, err := l.folders.ListFolders(ctx, page, perPage, parentID)
	if err != nil {
		return domain.FolderList{}, fmt.Errorf("can't list folders: %w", err)
	}

	return list, nil
}

func (l *library) CreateFolder(ctx context.Context, parentID int64, name string) (int64, error) {
	if parentID < domain.NoFolder {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidFolder, parentID)
	}
	if strings.TrimSpace(name) == "" {
		return 0, domain.ErrEmptyName
	}

	id, err := l.folders.CreateFolder(ctx, parentID, name)
	if err = l.mutated("folder created", err, "parent_id", parentID, "name", name, "fld_id", id); err != nil {
		return 0, err
	}

	return id, nil
}

func (l *library) MoveFolder(ctx context.Context, folderID, destFolderID int64) error {
	if folderID <= domain.NoFolder || destFolderID < domain.NoFolder {
		return fmt.Errorf("%w: %d -> %d", domain.ErrInvalidFolder, folderID, destFolderID)
	}

	return l.mutated("folder moved", l.folders.MoveFolder(ctx, folderID, destFolderID), "fld_id", folderID, "dest_fld_id", destFolderID)
}

func (l *library) CopyFolder(ctx context.Context, folderID int64) (int64, error) {
	if err := requireFolder(folderID); err != nil {
		return 0, err
	}

	id, err := l.folders.CopyFolder(ctx, folderID)
	if err = l.mutated("folder copied", err, "fld_id", folderID, "copy_fld_id", id); err != nil {
		return 0, err
	}

	return id, nil
}

func (l *library) DeleteFolder(ctx context.Context, folderID int64) error {
	if err := requireFolder(folderID); err != nil {
		return err
	}

	return l.mutated("folder deleted", l.folders.DeleteFolder(ctx, folderID), "fld_id", folderID)
}

func (l *library) RestoreFolder(ctx context.Context, folderID int64) error {
	if err := requireFolder(folderID); err != nil {
		return err
	}

	return l.mutated("folder restored", l.folders.RestoreFolder(ctx, folderID), "fld_id", folderID)
}

func (l *library) RenameFolder(ctx context.Context, folderID int64, name string) error {
	if err := requireFolder(folderID); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return domain.ErrEmptyName
	}

	return l.mutated("folder renamed", l.folders.RenameFolder(ctx, folderID, name), "fld_id", folderID, "name", name)
}

func (l *library) SetFolderPassword(ctx context.Context, folderToken, password string) error {
	if strings.TrimSpace(folderToken) == "" {
		return domain.ErrEmptyFolderToken
	}

	return l.mutated("folder password changed", l.folders.SetFolderPassword(ctx, folderToken, password), "fld_token", folderToken)
}

func (l *library) SetFolderSetting(ctx context.Context, folderID int64, setting domain.FolderSetting) error {
	if err := requireFolder(folderID); err != nil {
		return err
	}

	err := l.folders.SetFolderSetting(ctx, folderID, setting)
	return l.mutated("folder settings changed", err, "fld_id", folderID, "filedrop", setting.FileDrop, "public", setting.Public)
}

// mutated logs the result of a mutating call and wraps its error.
func (l *library) mutated(action string, err error, keyvals ...interface{}) error {
	if err != nil {
		level.Error(l.logger).Log(append([]interface{}{"msg", action + " failed", "err", err}, keyvals...)...)
		return fmt.Errorf("can't complete %q: %w", action, err)
	}

	level.Info(l.logger).Log(append([]interface{}{"msg", action}, keyvals...)...)

	return nil
}

func requireCode(fileCode string) error {
	if strings.TrimSpace(fileCode) == "" {
		return domain.ErrEmptyFileCode
	}
	return nil
}

func requireFolder(folderID int64) error {
	if folderID <= domain.NoFolder {
		return fmt.Errorf("%w: %d", domain.ErrInvalidFolder, folderID)
	}
	return nil
}
