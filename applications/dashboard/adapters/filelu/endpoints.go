package filelu

import (
	"encoding/json"
	"net/http"
)

const msgOK = "OK"

// envelope is the response shape shared by every FileLu API endpoint.
type envelope struct {
	Status int             `json:"status"`
	Msg    string          `json:"msg"`
	Result json.RawMessage `json:"result"`
	SessID string          `json:"sess_id"`
}

// successPredicate decides whether an envelope reports success. The API is
// inconsistent across endpoints, so every endpoint names its own predicate
// here instead of checking fields at the call site.
type successPredicate func(env envelope) bool

func statusIs200(env envelope) bool {
	return env.Status == http.StatusOK
}

func msgIsOK(env envelope) bool {
	return env.Msg == msgOK
}

func statusOrMsg(env envelope) bool {
	return statusIs200(env) || msgIsOK(env)
}

func uploadServerReady(env envelope) bool {
	return statusIs200(env) && env.SessID != ""
}

type endpoint struct {
	path    string
	success successPredicate
}

var (
	epUploadServer      = endpoint{path: "/upload/server", success: uploadServerReady}
	epUploadURL         = endpoint{path: "/upload/url", success: statusIs200}
	epRemoteStatus      = endpoint{path: "/file/status", success: statusOrMsg}
	epDirectLink        = endpoint{path: "/file/direct_link", success: statusOrMsg}
	epFileInfo          = endpoint{path: "/file/info", success: statusOrMsg}
	epFileList          = endpoint{path: "/file/list", success: statusOrMsg}
	epFileRename        = endpoint{path: "/file/rename", success: statusOrMsg}
	epFileClone         = endpoint{path: "/file/clone", success: statusOrMsg}
	epFileSetFolder     = endpoint{path: "/file/set_folder", success: statusIs200}
	epFileOnlyMe        = endpoint{path: "/file/only_me", success: statusOrMsg}
	epFileSetPassword   = endpoint{path: "/file/set_password", success: statusOrMsg}
	epFileRemove        = endpoint{path: "/file/remove", success: statusOrMsg}
	epFileRestore       = endpoint{path: "/file/restore", success: statusOrMsg}
	epFilesDeleted      = endpoint{path: "/files/deleted", success: statusOrMsg}
	epFolderList        = endpoint{path: "/folder/list", success: statusOrMsg}
	epFolderCreate      = endpoint{path: "/folder/create", success: statusOrMsg}
	epFolderMove        = endpoint{path: "/folder/move", success: statusOrMsg}
	epFolderCopy        = endpoint{path: "/folder/copy", success: statusOrMsg}
	epFolderDelete      = endpoint{path: "/folder/delete", success: statusOrMsg}
	epFolderRestore     = endpoint{path: "/folder/restore", success: statusOrMsg}
	epFolderRename      = endpoint{path: "/folder/rename", success: statusOrMsg}
	epFolderSetPassword = endpoint{path: "/folder/set_password", success: statusOrMsg}
	epFolderSetting     = endpoint{path: "/folder/setting", success: statusOrMsg}
)
