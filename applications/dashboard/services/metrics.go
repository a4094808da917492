package services

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/donmikel/filedash/applications/dashboard"
	"github.com/donmikel/filedash/applications/dashboard/domain"
)

const metricsNamespace = "filedash"

// Result label values besides the failure kinds.
const (
	resultSuccess = "success"
	resultWarning = "warning"
)

// Metrics holds the collectors describing orchestration outcomes.
type Metrics struct {
	uploads        *prometheus.CounterVec
	uploadDuration prometheus.Histogram
	remoteFetches  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "uploader",
			Name:      "uploads_total",
			Help:      "Upload outcomes by result.",
		}, []string{"result"}),
		uploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "uploader",
			Name:      "upload_duration_seconds",
			Help:      "Time from target acquisition to the final outcome of a single upload.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		remoteFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "remote_fetcher",
			Name:      "submissions_total",
			Help:      "Remote URL submissions by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{m.uploads, m.uploadDuration, m.remoteFetches} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("can't register collector: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) observeUpload(outcome domain.UploadOutcome, took time.Duration) {
	m.uploadDuration.Observe(took.Seconds())

	result := resultSuccess
	switch {
	case outcome.Failure != nil:
		result = string(outcome.Failure.Kind)
	case outcome.Warning != nil:
		result = resultWarning
	}
	m.uploads.WithLabelValues(result).Inc()
}

type instrumentedUploader struct {
	next    dashboard.Uploader
	metrics *Metrics
}

// InstrumentUploader counts and times every outcome produced by next.
// Uploaders built by NewUploader time each file of a batch on their own;
// other Uploaders only report the duration of the whole batch.
func InstrumentUploader(next dashboard.Uploader, metrics *Metrics) dashboard.Uploader {
	if u, ok := next.(*uploader); ok {
		instrumented := *u
		instrumented.metrics = metrics
		return &instrumented
	}

	return &instrumentedUploader{next: next, metrics: metrics}
}

func (u *instrumentedUploader) Upload(ctx context.Context, file domain.File, folderID int64) domain.UploadOutcome {
	start := time.Now()
	outcome := u.next.Upload(ctx, file, folderID)

	u.metrics.observeUpload(outcome, time.Since(start))

	return outcome
}

func (u *instrumentedUploader) UploadMany(ctx context.Context, files []domain.File, folderID int64) []domain.UploadOutcome {
	start := time.Now()
	outcomes := u.next.UploadMany(ctx, files, folderID)

	took := time.Since(start)
	for _, o := range outcomes {
		u.metrics.observeUpload(o, took)
	}

	return outcomes
}

type instrumentedFetcher struct {
	next    dashboard.RemoteFetcher
	metrics *Metrics
}

func InstrumentRemoteFetcher(next dashboard.RemoteFetcher, metrics *Metrics) dashboard.RemoteFetcher {
	return &instrumentedFetcher{next: next, metrics: metrics}
}

func (f *instrumentedFetcher) Submit(ctx context.Context, sourceURL string, folderID int64) domain.RemoteFetchOutcome {
	outcome := f.next.Submit(ctx, sourceURL, folderID)

	result := resultSuccess
	if outcome.Failure != nil {
		result = string(outcome.Failure.Kind)
	}
	f.metrics.remoteFetches.WithLabelValues(result).Inc()

	return outcome
}

func (f *instrumentedFetcher) Status(ctx context.Context) ([]domain.RemoteUploadStatus, error) {
	return f.next.Status(ctx)
}
