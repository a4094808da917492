package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/donmikel/filedash/applications/dashboard"
	"github.com/donmikel/filedash/applications/dashboard/domain"
)

const requestIDHeader = "X-Request-Id"

type Services struct {
	Uploader      dashboard.Uploader
	RemoteFetcher dashboard.RemoteFetcher
	Library       dashboard.Library

	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(svc Services, maxUploadBytes int64, logger log.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(requestLogger(logger))

	if svc.Metrics != nil {
		r.Handle("/metrics", svc.Metrics).Methods(http.MethodGet)
	}

	r.HandleFunc("/upload", UploadHandler(svc.Uploader, maxUploadBytes, logger)).Methods(http.MethodPost)
	r.HandleFunc("/remote-upload", RemoteUploadHandler(svc.RemoteFetcher, logger)).Methods(http.MethodPost)
	r.HandleFunc("/remote-upload/status", RemoteUploadStatusHandler(svc.RemoteFetcher, logger)).Methods(http.MethodGet)

	files := r.PathPrefix("/files").Subrouter()
	files.HandleFunc("", ListFilesHandler(svc.Library, logger)).Methods(http.MethodGet)
	files.HandleFunc("/deleted", ListDeletedFilesHandler(svc.Library, logger)).Methods(http.MethodGet)
	files.HandleFunc("/{code}", FileInfoHandler(svc.Library, logger)).Methods(http.MethodGet)
	files.HandleFunc("/{code}", RemoveFileHandler(svc.Library, logger)).Methods(http.MethodDelete)
	files.HandleFunc("/{code}/link", DirectLinkHandler(svc.Library, logger)).Methods(http.MethodGet)
	files.HandleFunc("/{code}/name", RenameFileHandler(svc.Library, logger)).Methods(http.MethodPut)
	files.HandleFunc("/{code}/clone", CloneFileHandler(svc.Library, logger)).Methods(http.MethodPost)
	files.HandleFunc("/{code}/folder", MoveFileHandler(svc.Library, logger)).Methods(http.MethodPut)
	files.HandleFunc("/{code}/visibility", FileVisibilityHandler(svc.Library, logger)).Methods(http.MethodPut)
	files.HandleFunc("/{code}/password", FilePasswordHandler(svc.Library, logger)).Methods(http.MethodPut)
	files.HandleFunc("/{code}/restore", RestoreFileHandler(svc.Library, logger)).Methods(http.MethodPost)

	folders := r.PathPrefix("/folders").Subrouter()
	folders.HandleFunc("", ListFoldersHandler(svc.Library, logger)).Methods(http.MethodGet)
	folders.HandleFunc("", CreateFolderHandler(svc.Library, logger)).Methods(http.MethodPost)
	folders.HandleFunc("/password", FolderPasswordHandler(svc.Library, logger)).Methods(http.MethodPut)
	folders.HandleFunc("/{id:[0-9]+}", DeleteFolderHandler(svc.Library, logger)).Methods(http.MethodDelete)
	folders.HandleFunc("/{id:[0-9]+}/name", RenameFolderHandler(svc.Library, logger)).Methods(http.MethodPut)
	folders.HandleFunc("/{id:[0-9]+}/parent", MoveFolderHandler(svc.Library, logger)).Methods(http.MethodPut)
	folders.HandleFunc("/{id:[0-9]+}/copy", CopyFolderHandler(svc.Library, logger)).Methods(http.MethodPost)
	folders.HandleFunc("/{id:[0-9]+}/restore", RestoreFolderHandler(svc.Library, logger)).Methods(http.MethodPost)
	folders.HandleFunc("/{id:[0-9]+}/settings", FolderSettingsHandler(svc.Library, logger)).Methods(http.MethodPut)

	return r
}

func requestLogger(logger log.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			start := time.Now()
			next.ServeHTTP(w, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}

			level.Debug(logger).Log("msg", "request served",
				"request_id", requestID,
				"method", r.Method,
				"route", route,
				"took", time.Since(start),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger log.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		level.Error(logger).Log("msg", "can't write response", "err", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeErr(w http.ResponseWriter, err error, status int, logger log.Logger) {
	writeJSON(w, status, errorResponse{Error: err.Error()}, logger)
}

// writeServiceErr maps validation errors to 400 and everything else, which
// comes from the remote storage, to 502.
func writeServiceErr(w http.ResponseWriter, err error, logger log.Logger) {
	switch {
	case errors.Is(err, domain.ErrEmptyFileCode),
		errors.Is(err, domain.ErrEmptyFolderToken),
		errors.Is(err, domain.ErrInvalidFolder),
		errors.Is(err, domain.ErrEmptyName):
		writeErr(w, err, http.StatusBadRequest, logger)
	case errors.Is(err, domain.ErrNotFound):
		writeErr(w, err, http.StatusNotFound, logger)
	default:
		writeErr(w, err, http.StatusBadGateway, logger)
	}
}

func failureStatus(f *domain.Failure) int {
	if f == nil {
		return http.StatusOK
	}

	switch f.Kind {
	case domain.FailureInvalidURL, domain.FailureInvalidFolder:
		return http.StatusBadRequest
	case domain.FailureCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusBadGateway
	}
}

func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func int64Value(raw string) (int64, error) {
	if raw == "" {
		return domain.NoFolder, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func folderIDVar(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
