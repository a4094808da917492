package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/donmikel/filedash/applications/dashboard"
	"github.com/donmikel/filedash/applications/dashboard/domain"
)

const (
	uploadFileField   = "file"
	uploadFolderField = "fld_id"
	multipartMemory   = 32 << 20
)

type uploadManyResponse struct {
	Outcomes []domain.UploadOutcome `json:"outcomes"`
}

type remoteUploadRequest struct {
	URL      string `json:"url"`
	FolderID int64  `json:"fld_id"`
}

func UploadHandler(svc dashboard.Uploader, maxUploadBytes int64, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if maxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		}

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			level.Error(logger).Log("msg", "ParseMultipartForm error",
				"err", err,
			)
			writeErr(w, err, http.StatusBadRequest, logger)
			return
		}
		defer r.MultipartForm.RemoveAll()

		folderID, err := int64Value(r.FormValue(uploadFolderField))
		if err != nil {
			writeErr(w, errors.New("fld_id must be an integer"), http.StatusBadRequest, logger)
			return
		}

		headers := r.MultipartForm.File[uploadFileField]
		if len(headers) == 0 {
			writeErr(w, errors.New("no file in form field \"file\""), http.StatusBadRequest, logger)
			return
		}

		files := make([]domain.File, 0, len(headers))
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				level.Error(logger).Log("msg", "can't open uploaded file",
					"file", header.Filename,
					"err", err,
				)
				writeErr(w, err, http.StatusBadRequest, logger)
				return
			}
			defer f.Close()

			files = append(files, toDomainFile(header, f))
		}

		if len(files) == 1 {
			outcome := svc.Upload(r.Context(), files[0], folderID)
			writeJSON(w, failureStatus(outcome.Failure), outcome, logger)
			return
		}

		writeJSON(w, http.StatusOK, uploadManyResponse{Outcomes: svc.UploadMany(r.Context(), files, folderID)}, logger)
	}
}

func toDomainFile(header *multipart.FileHeader, body multipart.File) domain.File {
	return domain.File{
		Name: header.Filename,
		Size: header.Size,
		Body: body,
	}
}

func RemoteUploadHandler(svc dashboard.RemoteFetcher, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req remoteUploadRequest
		if err := decodeBody(r, &req); err != nil {
			writeErr(w, err, http.StatusBadRequest, logger)
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			writeErr(w, errors.New("please enter a URL"), http.StatusBadRequest, logger)
			return
		}

		outcome := svc.Submit(r.Context(), req.URL, req.FolderID)
		writeJSON(w, failureStatus(outcome.Failure), outcome, logger)
	}
}

func RemoteUploadStatusHandler(svc dashboard.RemoteFetcher, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses, err := svc.Status(r.Context())
		if err != nil {
			writeServiceErr(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, statuses, logger)
	}
}
