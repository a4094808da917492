package filelu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/donmikel/filedash/applications/dashboard/domain"
	"github.com/donmikel/filedash/applications/dashboard/interfaces"
)

const (
	defaultPage    = 1
	defaultPerPage = 25
)

type api struct {
	transport interfaces.Transport
}

func NewAPI(transport interfaces.Transport) interfaces.RemoteStorage {
	return &api{transport: transport}
}

// call issues a query-encoded request and decodes the envelope's result into
// result when the endpoint's predicate reports success.
func (a *api) call(ctx context.Context, ep endpoint, params url.Values, result any) error {
	var env envelope
	if err := a.transport.Call(ctx, ep.path, params, &env); err != nil {
		return err
	}

	return decodeEnvelope(ep, env, result)
}

func decodeEnvelope(ep endpoint, env envelope, result any) error {
	if !ep.success(env) {
		return &domain.ServiceError{Endpoint: ep.path, Status: env.Status, Msg: env.Msg}
	}

	if result == nil || len(env.Result) == 0 || bytes.Equal(env.Result, []byte("null")) {
		return nil
	}

	if err := json.Unmarshal(env.Result, result); err != nil {
		return fmt.Errorf("can't decode %s result: %w", ep.path, err)
	}

	return nil
}

func (a *api) GetUploadServer(ctx context.Context) (domain.UploadTarget, error) {
	var env envelope
	if err := a.transport.Call(ctx, epUploadServer.path, nil, &env); err != nil {
		return domain.UploadTarget{}, err
	}

	var serverURL string
	if err := decodeEnvelope(epUploadServer, env, &serverURL); err != nil {
		return domain.UploadTarget{}, err
	}
	if serverURL == "" {
		return domain.UploadTarget{}, &domain.ServiceError{Endpoint: epUploadServer.path, Status: env.Status, Msg: "no upload server returned"}
	}

	return domain.UploadTarget{ServerURL: serverURL, SessionID: env.SessID}, nil
}

func (a *api) UploadFile(ctx context.Context, target domain.UploadTarget, payload domain.MultipartPayload) ([]domain.UploadedFile, error) {
	var uploaded []domain.UploadedFile
	if err := a.transport.UploadBytes(ctx, target.ServerURL, payload, &uploaded); err != nil {
		return nil, err
	}

	return uploaded, nil
}

func (a *api) SetFileFolder(ctx context.Context, assignment domain.FolderAssignment) error {
	return a.call(ctx, epFileSetFolder, url.Values{
		"file_code": {assignment.FileCode},
		"fld_id":    {formatID(assignment.FolderID)},
	}, nil)
}

func (a *api) UploadRemoteURL(ctx context.Context, job domain.RemoteFetchJob) (string, error) {
	var env envelope
	err := a.transport.Call(ctx, epUploadURL.path, url.Values{
		"url":    {job.SourceURL},
		"fld_id": {formatID(job.FolderID)},
	}, &env)
	if err != nil {
		return "", err
	}

	var result struct {
		FileCode string `json:"filecode"`
	}
	if err = decodeEnvelope(epUploadURL, env, &result); err != nil {
		return "", err
	}
	if result.FileCode == "" {
		return "", &domain.ServiceError{Endpoint: epUploadURL.path, Status: env.Status, Msg: env.Msg}
	}

	return result.FileCode, nil
}

func (a *api) RemoteUploadStatus(ctx context.Context) ([]domain.RemoteUploadStatus, error) {
	var statuses []domain.RemoteUploadStatus
	if err := a.call(ctx, epRemoteStatus, nil, &statuses); err != nil {
		return nil, err
	}

	return statuses, nil
}

func (a *api) FileInfo(ctx context.Context, fileCode string) ([]domain.FileInfo, error) {
	var info []domain.FileInfo
	if err := a.call(ctx, epFileInfo, url.Values{"file_code": {fileCode}}, &info); err != nil {
		return nil, err
	}

	return info, nil
}

func (a *api) ListFiles(ctx context.Context, page, perPage int, folderID int64) (domain.FileList, error) {
	var list domain.FileList
	err := a.call(ctx, epFileList, pageParams(page, perPage, folderID), &list)

	return list, err
}

func (a *api) DirectLink(ctx context.Context, fileCode string) (domain.DirectLink, error) {
	var env envelope
	err := a.transport.CallFormEncoded(ctx, epDirectLink.path, url.Values{"file_code": {fileCode}}, &env)
	if err != nil {
		return domain.DirectLink{}, err
	}

	var link domain.DirectLink
	err = decodeEnvelope(epDirectLink, env, &link)

	return link, err
}

func (a *api) RenameFile(ctx context.Context, fileCode, name string) error {
	return a.call(ctx, epFileRename, url.Values{
		"file_code": {fileCode},
		"name":      {name},
	}, nil)
}

func (a *api) CloneFile(ctx context.Context, fileCode string) (string, error) {
	var result struct {
		FileCode string `json:"filecode"`
		URL      string `json:"url"`
	}
	if err := a.call(ctx, epFileClone, url.Values{"file_code": {fileCode}}, &result); err != nil {
		return "", err
	}

	return result.FileCode, nil
}

func (a *api) SetFileOnlyMe(ctx context.Context, fileCode string, onlyMe bool) error {
	return a.call(ctx, epFileOnlyMe, url.Values{
		"file_code": {fileCode},
		"only_me":   {formatFlag(onlyMe)},
	}, nil)
}

func (a *api) SetFilePassword(ctx context.Context, fileCode, password string) error {
	return a.call(ctx, epFileSetPassword, url.Values{
		"file_code":     {fileCode},
		"file_password": {password},
	}, nil)
}

func (a *api) RemoveFile(ctx context.Context, fileCode string) error {
	return a.call(ctx, epFileRemove, url.Values{
		"file_code": {fileCode},
		"remove":    {"1"},
	}, nil)
}

func (a *api) RestoreFile(ctx context.Context, fileCode string) error {
	return a.call(ctx, epFileRestore, url.Values{
		"file_code": {fileCode},
		"restore":   {"1"},
	}, nil)
}

func (a *api) ListDeletedFiles(ctx context.Context) ([]domain.DeletedFile, error) {
	var deleted []domain.DeletedFile
	if err := a.call(ctx, epFilesDeleted, nil, &deleted); err != nil {
		return nil, err
	}

	return deleted, nil
}

func (a *api) ListFolders(ctx context.Context, page, perPage int, parentID int64) (domain.FolderList, error) {
	var list domain.FolderList
	err := a.call(ctx, epFolderList, pageParams(page, perPage, parentID), &list)

	return list, err
}

func (a *api) CreateFolder(ctx context.Context, parentID int64, name string) (int64, error) {
	var result struct {
		FolderID int64 `json:"fld_id"`
	}
	err := a.call(ctx, epFolderCreate, url.Values{
		"parent_id": {formatID(parentID)},
		"name":      {name},
	}, &result)

	return result.FolderID, err
}

func (a *api) MoveFolder(ctx context.Context, folderID, destFolderID int64) error {
	return a.call(ctx, epFolderMove, url.Values{
		"fld_id":      {formatID(folderID)},
		"dest_fld_id": {formatID(destFolderID)},
	}, nil)
}

func (a *api) CopyFolder(ctx context.Context, folderID int64) (int64, error) {
	var result struct {
		FolderID int64 `json:"fld_id"`
	}
	err := a.call(ctx, epFolderCopy, url.Values{"fld_id": {formatID(folderID)}}, &result)

	return result.FolderID, err
}

func (a *api) DeleteFolder(ctx context.Context, folderID int64) error {
	return a.call(ctx, epFolderDelete, url.Values{"fld_id": {formatID(folderID)}}, nil)
}

func (a *api) RestoreFolder(ctx context.Context, folderID int64) error {
	return a.call(ctx, epFolderRestore, url.Values{"fld_id": {formatID(folderID)}}, nil)
}

func (a *api) RenameFolder(ctx context.Context, folderID int64, name string) error {
	return a.call(ctx, epFolderRename, url.Values{
		"fld_id": {formatID(folderID)},
		"name":   {name},
	}, nil)
}

func (a *api) SetFolderPassword(ctx context.Context, folderToken, password string) error {
	return a.call(ctx, epFolderSetPassword, url.Values{
		"fld_token":    {folderToken},
		"fld_password": {password},
	}, nil)
}

func (a *api) SetFolderSetting(ctx context.Context, folderID int64, setting domain.FolderSetting) error {
	return a.call(ctx, epFolderSetting, url.Values{
		"fld_id":     {formatID(folderID)},
		"filedrop":   {formatFlag(setting.FileDrop)},
		"fld_public": {formatFlag(setting.Public)},
	}, nil)
}

func pageParams(page, perPage int, folderID int64) url.Values {
	if page <= 0 {
		page = defaultPage
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	return url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
		"fld_id":   {formatID(folderID)},
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
