package domain

type Folder struct {
	ID       int64  `json:"fld_id"`
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id"`
	Token    string `json:"fld_token"`
	Code     string `json:"code"`
	Public   int    `json:"fld_public"`
	FileDrop int    `json:"filedrop"`
}

type FolderList struct {
	Folders []Folder   `json:"folders"`
	Files   []FileInfo `json:"files"`
}

// FolderSetting toggles folder sharing flags; both values are 0 or 1 upstream.
type FolderSetting struct {
	FileDrop bool `json:"filedrop"`
	Public   bool `json:"fld_public"`
}
