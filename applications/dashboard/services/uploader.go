package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/donmikel/filedash/applications/dashboard"
	"github.com/donmikel/filedash/applications/dashboard/domain"
	"github.com/donmikel/filedash/applications/dashboard/interfaces"
)

// Multipart field names expected by the upload servers.
const (
	formSessionID  = "sess_id"
	formUploadType = "utype"
	formFile       = "file_0"
)

const (
	defaultUploadType  = "prem"
	defaultConcurrency = 4
	fallbackFileName   = "file"
)

type uploader struct {
	api         interfaces.UploadAPI
	uploadType  string
	concurrency int
	metrics     *Metrics
	logger      log.Logger
}

func NewUploader(api interfaces.UploadAPI, uploadType string, concurrency int, logger log.Logger) dashboard.Uploader {
	if uploadType == "" {
		uploadType = defaultUploadType
	}
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	return &uploader{
		api:         api,
		uploadType:  uploadType,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Upload acquires a fresh upload target, streams the file to it and, when
// folderID is not domain.NoFolder, moves the new file into that folder.
// Steps run strictly in order and each is attempted once.
func (u *uploader) Upload(ctx context.Context, file domain.File, folderID int64) domain.UploadOutcome {
	logger := log.With(u.logger, "upload_id", uuid.NewString(), "file", file.Name)

	start := time.Now()
	outcome := u.upload(ctx, file, folderID, logger)
	if u.metrics != nil {
		u.metrics.observeUpload(outcome, time.Since(start))
	}

	switch {
	case !outcome.OK():
		level.Error(logger).Log("msg", "upload failed",
			"kind", outcome.Failure.Kind,
			"err", outcome.Failure.Detail,
		)
	case outcome.Warning != nil:
		level.Warn(logger).Log("msg", "file uploaded with warning",
			"file_code", outcome.FileCode,
			"warning", outcome.Warning.Detail,
		)
	default:
		level.Info(logger).Log("msg", "file uploaded",
			"file_code", outcome.FileCode,
		)
	}

	return outcome
}

func (u *uploader) upload(ctx context.Context, file domain.File, folderID int64, logger log.Logger) domain.UploadOutcome {
	if folderID < domain.NoFolder {
		return domain.UploadFailed(domain.FailureInvalidFolder, fmt.Sprintf("%v: %d", domain.ErrInvalidFolder, folderID))
	}
	if err := ctx.Err(); err != nil {
		return canceledUpload(err)
	}

	target, err := u.api.GetUploadServer(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return canceledUpload(ctx.Err())
		}
		return domain.UploadFailed(domain.FailureTargetUnavailable, fmt.Sprintf("can't get upload server: %v", err))
	}

	if err = ctx.Err(); err != nil {
		return canceledUpload(err)
	}

	level.Debug(logger).Log("msg", "upload target acquired",
		"server", target.ServerURL,
		"size", humanize.Bytes(uint64(max64(file.Size, 0))),
	)

	uploaded, err := u.api.UploadFile(ctx, target, newUploadForm(target.SessionID, u.uploadType, file))
	if err != nil {
		if ctx.Err() != nil {
			return canceledUpload(ctx.Err())
		}
		if domain.IsTransportError(err) {
			return domain.UploadFailed(domain.FailureTransport, fmt.Sprintf("can't transfer file: %v", err))
		}
		return domain.UploadFailed(domain.FailureTransferRejected, fmt.Sprintf("can't transfer file: %v", err))
	}

	fileCode, detail := firstFileCode(uploaded)
	if fileCode == "" {
		return domain.UploadFailed(domain.FailureTransferRejected, detail)
	}

	if folderID == domain.NoFolder {
		return domain.UploadSucceeded(fileCode, nil)
	}

	// The file is stored at this point; a missed folder move only downgrades
	// the outcome to a warning.
	if err = ctx.Err(); err == nil {
		err = u.api.SetFileFolder(ctx, domain.FolderAssignment{FileCode: fileCode, FolderID: folderID})
	}
	if err != nil {
		return domain.UploadSucceeded(fileCode, &domain.Warning{
			Kind:   domain.WarningFolderAssignment,
			Detail: fmt.Sprintf("file not moved to folder %d: %v", folderID, err),
		})
	}

	return domain.UploadSucceeded(fileCode, nil)
}

// UploadMany uploads files concurrently. Every upload is independent and
// acquires its own target; outcomes are returned in input order.
func (u *uploader) UploadMany(ctx context.Context, files []domain.File, folderID int64) []domain.UploadOutcome {
	outcomes := make([]domain.UploadOutcome, len(files))

	var group errgroup.Group
	group.SetLimit(u.concurrency)

	for i := range files {
		i := i
		group.Go(func() error {
			outcomes[i] = u.Upload(ctx, files[i], folderID)
			return nil
		})
	}

	_ = group.Wait()

	return outcomes
}

func firstFileCode(uploaded []domain.UploadedFile) (string, string) {
	if len(uploaded) == 0 {
		return "", "upload server returned no files"
	}

	first := uploaded[0]
	if first.FileCode == "" {
		if first.FileStatus != "" {
			return "", fmt.Sprintf("%v: %s", domain.ErrEmptyFileCode, first.FileStatus)
		}
		return "", fmt.Sprintf("%v returned by upload server", domain.ErrEmptyFileCode)
	}

	return first.FileCode, ""
}

// newUploadForm streams the multipart body through a pipe so the file is not
// buffered in memory. The consumer must read or close the returned body.
func newUploadForm(sessionID, uploadType string, file domain.File) domain.MultipartPayload {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(mw, sessionID, uploadType, file)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return domain.MultipartPayload{
		ContentType: mw.FormDataContentType(),
		Body:        pr,
	}
}

func writeUploadForm(mw *multipart.Writer, sessionID, uploadType string, file domain.File) error {
	if err := mw.WriteField(formSessionID, sessionID); err != nil {
		return fmt.Errorf("can't write %s: %w", formSessionID, err)
	}
	if err := mw.WriteField(formUploadType, uploadType); err != nil {
		return fmt.Errorf("can't write %s: %w", formUploadType, err)
	}

	name := file.Name
	if name == "" {
		name = fallbackFileName
	}

	part, err := mw.CreateFormFile(formFile, name)
	if err != nil {
		return fmt.Errorf("can't create file part: %w", err)
	}

	if file.Body == nil {
		return nil
	}

	if _, err = io.Copy(part, file.Body); err != nil {
		return fmt.Errorf("can't copy file content: %w", err)
	}

	return nil
}

func canceledUpload(err error) domain.UploadOutcome {
	return domain.UploadFailed(domain.FailureCanceled, err.Error())
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
