package domain

// FailureKind classifies why an orchestration did not succeed.
type FailureKind string

const (
	FailureTransport         FailureKind = "transport_error"
	FailureTargetUnavailable FailureKind = "target_unavailable"
	FailureTransferRejected  FailureKind = "transfer_rejected"
	FailureInvalidURL        FailureKind = "invalid_url"
	FailureInvalidFolder     FailureKind = "invalid_folder"
	FailureRejectedByService FailureKind = "rejected_by_service"
	FailureCanceled          FailureKind = "canceled"
)

// WarningKind classifies a non-fatal problem attached to a successful outcome.
type WarningKind string

const WarningFolderAssignment WarningKind = "folder_assignment"

type Failure struct {
	Kind   FailureKind `json:"kind"`
	Detail string      `json:"detail"`
}

type Warning struct {
	Kind   WarningKind `json:"kind"`
	Detail string      `json:"detail"`
}

// UploadOutcome is the terminal result of one upload. A nil Failure means
// success, in which case FileCode is set and Warning may report a
// post-processing step that did not happen.
type UploadOutcome struct {
	FileCode string   `json:"file_code,omitempty"`
	Warning  *Warning `json:"warning,omitempty"`
	Failure  *Failure `json:"failure,omitempty"`
}

func UploadSucceeded(fileCode string, warning *Warning) UploadOutcome {
	return UploadOutcome{FileCode: fileCode, Warning: warning}
}

func UploadFailed(kind FailureKind, detail string) UploadOutcome {
	return UploadOutcome{Failure: &Failure{Kind: kind, Detail: detail}}
}

func (o UploadOutcome) OK() bool {
	return o.Failure == nil
}

// RemoteFetchOutcome reports whether the service accepted a remote-fetch job.
// Acceptance says nothing about completion.
type RemoteFetchOutcome struct {
	JobFileCode string   `json:"job_file_code,omitempty"`
	Failure     *Failure `json:"failure,omitempty"`
}

func RemoteFetchAccepted(jobFileCode string) RemoteFetchOutcome {
	return RemoteFetchOutcome{JobFileCode: jobFileCode}
}

func RemoteFetchFailed(kind FailureKind, detail string) RemoteFetchOutcome {
	return RemoteFetchOutcome{Failure: &Failure{Kind: kind, Detail: detail}}
}

func (o RemoteFetchOutcome) Accepted() bool {
	return o.Failure == nil
}
