package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/donmikel/filedash/applications/dashboard"
	"github.com/donmikel/filedash/applications/dashboard/domain"
	"github.com/donmikel/filedash/applications/dashboard/interfaces"
)

const unknownServiceError = "unknown error"

type remoteFetcher struct {
	api    interfaces.RemoteFetchAPI
	logger log.Logger
}

func NewRemoteFetcher(api interfaces.RemoteFetchAPI, logger log.Logger) dashboard.RemoteFetcher {
	return &remoteFetcher{api: api, logger: logger}
}

// Submit hands sourceURL to the remote storage for server-side download.
// Malformed URLs are rejected without touching the network. Acceptance is the
// only thing observed; the download itself continues out of band.
func (f *remoteFetcher) Submit(ctx context.Context, sourceURL string, folderID int64) domain.RemoteFetchOutcome {
	sourceURL = strings.TrimSpace(sourceURL)

	outcome := f.submit(ctx, sourceURL, folderID)
	if !outcome.Accepted() {
		level.Error(f.logger).Log("msg", "remote fetch failed",
			"url", sourceURL,
			"kind", outcome.Failure.Kind,
			"err", outcome.Failure.Detail,
		)
		return outcome
	}

	level.Info(f.logger).Log("msg", "remote fetch accepted",
		"url", sourceURL,
		"file_code", outcome.JobFileCode,
	)

	return outcome
}

func (f *remoteFetcher) submit(ctx context.Context, sourceURL string, folderID int64) domain.RemoteFetchOutcome {
	if err := validateSourceURL(sourceURL); err != nil {
		return domain.RemoteFetchFailed(domain.FailureInvalidURL, err.Error())
	}
	if folderID < domain.NoFolder {
		return domain.RemoteFetchFailed(domain.FailureInvalidFolder, fmt.Sprintf("%v: %d", domain.ErrInvalidFolder, folderID))
	}
	if err := ctx.Err(); err != nil {
		return domain.RemoteFetchFailed(domain.FailureCanceled, err.Error())
	}

	fileCode, err := f.api.UploadRemoteURL(ctx, domain.RemoteFetchJob{SourceURL: sourceURL, FolderID: folderID})
	if err != nil {
		if ctx.Err() != nil {
			return domain.RemoteFetchFailed(domain.FailureCanceled, ctx.Err().Error())
		}
		if se, ok := domain.AsServiceError(err); ok {
			return domain.RemoteFetchFailed(domain.FailureRejectedByService, serviceMessage(se.Msg))
		}
		if domain.IsTransportError(err) {
			return domain.RemoteFetchFailed(domain.FailureTransport, err.Error())
		}
		return domain.RemoteFetchFailed(domain.FailureRejectedByService, err.Error())
	}

	if fileCode == "" {
		return domain.RemoteFetchFailed(domain.FailureRejectedByService, unknownServiceError)
	}

	return domain.RemoteFetchAccepted(fileCode)
}

// Status returns the state of in-flight remote fetch jobs. Nothing polls it
// automatically; callers decide when to ask.
func (f *remoteFetcher) Status(ctx context.Context) ([]domain.RemoteUploadStatus, error) {
	statuses, err := f.api.RemoteUploadStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't get remote upload status: %w", err)
	}

	return statuses, nil
}

func validateSourceURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("empty url")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("url %q is not absolute", raw)
	}

	return nil
}

func serviceMessage(msg string) string {
	if msg == "" {
		return unknownServiceError
	}
	return msg
}
