package filelu

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donmikel/filedash/applications/dashboard/domain"
)

type fakeCall struct {
	endpoint string
	params   url.Values
	form     bool
}

type fakeTransport struct {
	calls   []fakeCall
	replies map[string]string
	errs    map[string]error
}

func newFakeTransport(replies map[string]string) *fakeTransport {
	return &fakeTransport{replies: replies, errs: map[string]error{}}
}

func (f *fakeTransport) reply(endpoint string, out any) error {
	if err := f.errs[endpoint]; err != nil {
		return err
	}

	body, ok := f.replies[endpoint]
	if !ok {
		body = `{}`
	}
	if out == nil {
		return nil
	}

	return json.Unmarshal([]byte(body), out)
}

func (f *fakeTransport) Call(_ context.Context, endpoint string, params url.Values, out any) error {
	f.calls = append(f.calls, fakeCall{endpoint: endpoint, params: params})
	return f.reply(endpoint, out)
}

func (f *fakeTransport) CallFormEncoded(_ context.Context, endpoint string, body url.Values, out any) error {
	f.calls = append(f.calls, fakeCall{endpoint: endpoint, params: body, form: true})
	return f.reply(endpoint, out)
}

func (f *fakeTransport) UploadBytes(_ context.Context, destinationURL string, payload domain.MultipartPayload, out any) error {
	defer payload.Body.Close()
	io.Copy(io.Discard, payload.Body)

	f.calls = append(f.calls, fakeCall{endpoint: destinationURL})
	return f.reply(destinationURL, out)
}

func TestAPI_GetUploadServer(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    domain.UploadTarget
		wantErr bool
	}{
		{
			name:  "ok",
			reply: `{"status":200,"sess_id":"s1","result":"https://up1.filelu.com/cgi-bin/upload.cgi"}`,
			want:  domain.UploadTarget{ServerURL: "https://up1.filelu.com/cgi-bin/upload.cgi", SessionID: "s1"},
		},
		{name: "bad status", reply: `{"status":403,"msg":"Invalid key","sess_id":"s1","result":"https://up"}`, wantErr: true},
		{name: "no session", reply: `{"status":200,"result":"https://up"}`, wantErr: true},
		{name: "no server", reply: `{"status":200,"sess_id":"s1"}`, wantErr: true},
		{name: "unrecognized shape", reply: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAPI(newFakeTransport(map[string]string{"/upload/server": tt.reply}))

			got, err := a.GetUploadServer(context.Background())
			if tt.wantErr {
				_, ok := domain.AsServiceError(err)
				assert.True(t, ok, "expected ServiceError, got %v", err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAPI_SuccessPredicates(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		endpoint string
		reply    string
		call     func(a *api) error
		wantErr  bool
	}{
		{
			name: "set_folder needs status 200", endpoint: "/file/set_folder", reply: `{"msg":"OK"}`,
			call:    func(a *api) error { return a.SetFileFolder(ctx, domain.FolderAssignment{FileCode: "c", FolderID: 5}) },
			wantErr: true,
		},
		{
			name: "set_folder ok", endpoint: "/file/set_folder", reply: `{"status":200}`,
			call: func(a *api) error { return a.SetFileFolder(ctx, domain.FolderAssignment{FileCode: "c", FolderID: 5}) },
		},
		{
			name: "remove accepts msg OK", endpoint: "/file/remove", reply: `{"msg":"OK"}`,
			call: func(a *api) error { return a.RemoveFile(ctx, "c") },
		},
		{
			name: "restore rejects error message", endpoint: "/file/restore", reply: `{"status":404,"msg":"No file"}`,
			call:    func(a *api) error { return a.RestoreFile(ctx, "c") },
			wantErr: true,
		},
		{
			name: "rename rejects empty body", endpoint: "/file/rename", reply: `{}`,
			call:    func(a *api) error { return a.RenameFile(ctx, "c", "n") },
			wantErr: true,
		},
		{
			name: "folder delete accepts status 200", endpoint: "/folder/delete", reply: `{"status":200,"msg":"Folder deleted"}`,
			call: func(a *api) error { return a.DeleteFolder(ctx, 7) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &api{transport: newFakeTransport(map[string]string{tt.endpoint: tt.reply})}

			err := tt.call(a)
			if tt.wantErr {
				se, ok := domain.AsServiceError(err)
				require.True(t, ok, "expected ServiceError, got %v", err)
				assert.Equal(t, tt.endpoint, se.Endpoint)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestAPI_RequestParams(t *testing.T) {
	ft := newFakeTransport(map[string]string{
		"/file/list":      `{"status":200,"result":{"files":[{"file_code":"a","name":"a.txt"}],"results":1}}`,
		"/file/remove":    `{"status":200}`,
		"/upload/url":     `{"status":200,"result":{"filecode":"job1"}}`,
		"/folder/setting": `{"status":200}`,
	})
	a := NewAPI(ft)
	ctx := context.Background()

	list, err := a.ListFiles(ctx, 0, 0, 0)
	require.NoError(t, err)
	require.Len(t, list.Files, 1)
	assert.Equal(t, "a.txt", list.Files[0].Name)

	require.NoError(t, a.RemoveFile(ctx, "abc"))

	code, err := a.UploadRemoteURL(ctx, domain.RemoteFetchJob{SourceURL: "https://host/a.mp4?x=1&y=2", FolderID: 5})
	require.NoError(t, err)
	assert.Equal(t, "job1", code)

	require.NoError(t, a.SetFolderSetting(ctx, 9, domain.FolderSetting{FileDrop: true}))

	require.Len(t, ft.calls, 4)
	assert.Equal(t, url.Values{"page": {"1"}, "per_page": {"25"}, "fld_id": {"0"}}, ft.calls[0].params)
	assert.Equal(t, url.Values{"file_code": {"abc"}, "remove": {"1"}}, ft.calls[1].params)
	assert.Equal(t, url.Values{"url": {"https://host/a.mp4?x=1&y=2"}, "fld_id": {"5"}}, ft.calls[2].params)
	assert.Equal(t, url.Values{"fld_id": {"9"}, "filedrop": {"1"}, "fld_public": {"0"}}, ft.calls[3].params)
}

func TestAPI_UploadRemoteURL_NoFileCode(t *testing.T) {
	a := NewAPI(newFakeTransport(map[string]string{"/upload/url": `{"status":200,"msg":"queued","result":{}}`}))

	_, err := a.UploadRemoteURL(context.Background(), domain.RemoteFetchJob{SourceURL: "https://host/a"})

	se, ok := domain.AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, "queued", se.Msg)
}

func TestAPI_DirectLinkIsFormEncoded(t *testing.T) {
	ft := newFakeTransport(map[string]string{"/file/direct_link": `{"status":200,"result":{"url":"https://dl/x","size":10}}`})
	a := NewAPI(ft)

	link, err := a.DirectLink(context.Background(), "x")

	require.NoError(t, err)
	assert.Equal(t, domain.DirectLink{URL: "https://dl/x", Size: 10}, link)
	require.Len(t, ft.calls, 1)
	assert.True(t, ft.calls[0].form)
}

func TestAPI_TransportErrorPassesThrough(t *testing.T) {
	ft := newFakeTransport(nil)
	ft.errs["/folder/list"] = &domain.TransportError{Op: "GET", URL: "/folder/list", StatusCode: 502}
	a := NewAPI(ft)

	_, err := a.ListFolders(context.Background(), 1, 25, 0)

	assert.True(t, domain.IsTransportError(err))
}

func TestAPI_UploadFile(t *testing.T) {
	ft := newFakeTransport(map[string]string{"https://up/1": `[{"file_code":"abc","file_status":"OK"}]`})
	a := NewAPI(ft)

	uploaded, err := a.UploadFile(context.Background(),
		domain.UploadTarget{ServerURL: "https://up/1", SessionID: "s"},
		domain.MultipartPayload{Body: io.NopCloser(strings.NewReader("data"))},
	)

	require.NoError(t, err)
	assert.Equal(t, []domain.UploadedFile{{FileCode: "abc", FileStatus: "OK"}}, uploaded)
}
