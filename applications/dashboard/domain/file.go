package domain

import "io"

// NoFolder is the folder id meaning "leave the file in the root".
// It is never sent upstream as a folder assignment.
const NoFolder int64 = 0

type File struct {
	Name string
	Size int64
	Body io.Reader
}

type UploadTarget struct {
	ServerURL string
	SessionID string
}

type MultipartPayload struct {
	ContentType string
	Body        io.ReadCloser
}

type UploadedFile struct {
	FileCode   string `json:"file_code"`
	FileStatus string `json:"file_status"`
}

type FolderAssignment struct {
	FileCode string
	FolderID int64
}

type RemoteFetchJob struct {
	SourceURL string
	FolderID  int64
}

type FileInfo struct {
	FileCode   string `json:"file_code"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	Downloads  int64  `json:"downloads"`
	Uploaded   string `json:"uploaded"`
	Public     int    `json:"public"`
	FolderID   int64  `json:"fld_id"`
	Hash       string `json:"hash"`
	Thumbnail  string `json:"thumbnail"`
	Link       string `json:"link"`
	OnlyMe     int    `json:"only_me"`
	HasPasswd  int    `json:"file_password"`
	ContentURL string `json:"content_url"`
}

type FileList struct {
	Files   []FileInfo `json:"files"`
	Folders []Folder   `json:"folders"`
	Results int        `json:"results"`
	Total   int        `json:"results_total"`
}

type DeletedFile struct {
	FileCode      string `json:"file_code"`
	Name          string `json:"name"`
	Deleted       string `json:"deleted"`
	DeletedAgoSec int64  `json:"deleted_ago_sec"`
}

type DirectLink struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

type RemoteUploadStatus struct {
	FileCode        string `json:"file_code"`
	RemoteURL       string `json:"remote_url"`
	Status          string `json:"status"`
	BytesTotal      int64  `json:"bytes_total"`
	BytesDownloaded int64  `json:"bytes_downloaded"`
	FolderID        int64  `json:"folder_id"`
	Created         string `json:"created"`
}
