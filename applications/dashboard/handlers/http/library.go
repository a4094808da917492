package http

import (
	"errors"
	"net/http"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"

	"github.com/donmikel/filedash/applications/dashboard"
	"github.com/donmikel/filedash/applications/dashboard/domain"
)

var errBadFolderID = errors.New("folder id must be an integer")

type nameRequest struct {
	Name string `json:"name"`
}

type folderRequest struct {
	FolderID int64 `json:"fld_id"`
}

type visibilityRequest struct {
	OnlyMe bool `json:"only_me"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type folderPasswordRequest struct {
	Token    string `json:"fld_token"`
	Password string `json:"password"`
}

type createFolderRequest struct {
	ParentID int64  `json:"parent_id"`
	Name     string `json:"name"`
}

type idResponse struct {
	FolderID int64 `json:"fld_id"`
}

type cloneResponse struct {
	FileCode string `json:"file_code"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func ListFilesHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, perPage, folderID, err := pageQuery(r)
		if err != nil {
			writeErr(w, err, http.StatusBadRequest, logger)
			return
		}

		list, err := svc.ListFiles(r.Context(), page, perPage, folderID)
		if err != nil {
			writeServiceErr(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, list, logger)
	}
}

func ListDeletedFilesHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := svc.ListDeletedFiles(r.Context())
		if err != nil {
			writeServiceErr(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, deleted, logger)
	}
}

func FileInfoHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := svc.FileInfo(r.Context(), mux.Vars(r)["code"])
		if err != nil {
			writeServiceErr(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, info, logger)
	}
}

func DirectLinkHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link, err := svc.DirectLink(r.Context(), mux.Vars(r)["code"])
		if err != nil {
			writeServiceErr(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, link, logger)
	}
}

func RenameFileHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req nameRequest
		if err := decodeBody(r, &req); err != nil {
			writeErr(w, err, http.StatusBadRequest, logger)
			return
		}

		respond(w, svc.RenameFile(r.Context(), mux.Vars(r)["code"], req.Name), logger)
	}
}

func CloneFileHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clone, err := svc.CloneFile(r.Context(), mux.Vars(r)["code"])
		if err != nil {
			writeServiceErr(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, cloneResponse{FileCode: clone}, logger)
	}
}

func MoveFileHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req folderRequest
		if err := decodeBody(r, &req); err != nil {
			writeErr(w, err, http.StatusBadRequest, logger)
			return
		}

		err := svc.MoveFile(r.Context(), domain.FolderAssignment{FileCode: mux.Vars(r)["code"], FolderID: req.FolderID})
		respond(w, err, logger)
	}
}

func FileVisibilityHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req visibilityRequest
		if err := decodeBody(r, &req); err != nil {
			writeErr(w, err, http.StatusBadRequest, logger)
			return
		}

		respond(w, svc.SetFileOnlyMe(r.Context(), mux.Vars(r)["code"], req.OnlyMe), logger)
	}
}

func FilePasswordHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req passwordRequest
		if err := decodeBody(r, &req); err != nil {
			writeErr(w, err, http.StatusBadRequest, logger)
			return
		}

		respond(w, svc.SetFilePassword(r.Context(), mux.Vars(r)["code"], req.Password), logger)
	}
}

func RemoveFileHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, svc.RemoveFile(r.Context(), mux.Vars(r)["code"]), logger)
	}
}

func RestoreFileHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, svc.RestoreFile(r.Context(), mux.Vars(r)["code"]), logger)
	}
}

func ListFoldersHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, perPage, parentID, err := pageQuery(r)
		if err != nil {
			writeErr(w, err, http.StatusBadRequest, logger)
			return
		}

		list, err := svc.ListFolders(r.Context(), page, perPage, parentID)
		if err != nil {
			writeServiceErr(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, list, logger)
	}
}

func CreateFolderHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createFolderRequest
		if err := decodeBody(r, &req); err != nil {
			writeErr(w, err, http.StatusBadRequest, logger)
			return
		}

		id, err := svc.CreateFolder(r.Context(), req.ParentID, req.Name)
		if err != nil {
			writeServiceErr(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, idResponse{FolderID: id}, logger)
	}
}

func FolderPasswordHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req folderPasswordRequest
		if err := decodeBody(r, &req); err != nil {
			writeErr(w, err, http.StatusBadRequest, logger)
			return
		}

		respond(w, svc.SetFolderPassword(r.Context(), req.Token, req.Password), logger)
	}
}

func DeleteFolderHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return withFolderID(logger, func(w http.ResponseWriter, r *http.Request, id int64) {
		respond(w, svc.DeleteFolder(r.Context(), id), logger)
	})
}

func RestoreFolderHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return withFolderID(logger, func(w http.ResponseWriter, r *http.Request, id int64) {
		respond(w, svc.RestoreFolder(r.Context(), id), logger)
	})
}

func RenameFolderHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return withFolderID(logger, func(w http.ResponseWriter, r *http.Request, id int64) {
		var req nameRequest
		if err := decodeBody(r, &req); err != nil {
			writeErr(w, err, http.StatusBadRequest, logger)
			return
		}

		respond(w, svc.RenameFolder(r.Context(), id, req.Name), logger)
	})
}

func MoveFolderHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return withFolderID(logger, func(w http.ResponseWriter, r *http.Request, id int64) {
		var req folderRequest
		if err := decodeBody(r, &req); err != nil {
			writeErr(w, err, http.StatusBadRequest, logger)
			return
		}

		respond(w, svc.MoveFolder(r.Context(), id, req.FolderID), logger)
	})
}

func CopyFolderHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return withFolderID(logger, func(w http.ResponseWriter, r *http.Request, id int64) {
		copyID, err := svc.CopyFolder(r.Context(), id)
		if err != nil {
			writeServiceErr(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, idResponse{FolderID: copyID}, logger)
	})
}

func FolderSettingsHandler(svc dashboard.Library, logger log.Logger) http.HandlerFunc {
	return withFolderID(logger, func(w http.ResponseWriter, r *http.Request, id int64) {
		var req domain.FolderSetting
		if err := decodeBody(r, &req); err != nil {
			writeErr(w, err, http.StatusBadRequest, logger)
			return
		}

		respond(w, svc.SetFolderSetting(r.Context(), id, req), logger)
	})
}

func withFolderID(logger log.Logger, next func(w http.ResponseWriter, r *http.Request, id int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := folderIDVar(r)
		if err != nil {
			writeErr(w, errBadFolderID, http.StatusBadRequest, logger)
			return
		}

		next(w, r, id)
	}
}

func respond(w http.ResponseWriter, err error, logger log.Logger) {
	if err != nil {
		writeServiceErr(w, err, logger)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true}, logger)
}

func pageQuery(r *http.Request) (int, int, int64, error) {
	page, err := intQuery(r, "page")
	if err != nil {
		return 0, 0, 0, errors.New("page must be an integer")
	}
	perPage, err := intQuery(r, "per_page")
	if err != nil {
		return 0, 0, 0, errors.New("per_page must be an integer")
	}
	folderID, err := int64Value(r.URL.Query().Get("fld_id"))
	if err != nil {
		return 0, 0, 0, errBadFolderID
	}

	return page, perPage, folderID, nil
}
