package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donmikel/filedash/applications/dashboard"
	"github.com/donmikel/filedash/applications/dashboard/adapters/filelu"
	"github.com/donmikel/filedash/applications/dashboard/domain"
)

const (
	serverOK   = `{"status":200,"sess_id":"sess-1","result":"https://up1.example/upload.cgi"}`
	uploadOK   = `[{"file_code":"abc123","file_status":"OK"}]`
	folderOK   = `{"status":200,"msg":"OK"}`
	folderDown = `{"status":500,"msg":"Folder not found"}`
)

func newTestUploader(st *stubTransport) dashboard.Uploader {
	return NewUploader(filelu.NewAPI(st), "", 2, log.NewNopLogger())
}

func testFile(content string) domain.File {
	return domain.File{Name: "report.pdf", Size: int64(len(content)), Body: strings.NewReader(content)}
}

func TestUpload_NoFolderSkipsAssignment(t *testing.T) {
	st := newStubTransport().reply(epUploadServer, serverOK).uploadReply(uploadOK)

	outcome := newTestUploader(st).Upload(context.Background(), testFile("hello"), domain.NoFolder)

	require.True(t, outcome.OK(), "unexpected failure: %+v", outcome.Failure)
	assert.Equal(t, "abc123", outcome.FileCode)
	assert.Nil(t, outcome.Warning)
	assert.Equal(t, 0, st.count(epSetFolder))
	assert.Equal(t, []string{epUploadServer, epUpload}, st.callLog())
}

func TestUpload_SendsSessionAndContent(t *testing.T) {
	st := newStubTransport().reply(epUploadServer, serverOK).uploadReply(uploadOK)

	newTestUploader(st).Upload(context.Background(), testFile("hello"), domain.NoFolder)

	require.Len(t, st.forms, 1)
	assert.Equal(t, uploadForm{
		url:        "https://up1.example/upload.cgi",
		sessionID:  "sess-1",
		uploadType: "prem",
		fileName:   "report.pdf",
		content:    "hello",
	}, st.forms[0])
}

func TestUpload_FolderAssignedAfterTransfer(t *testing.T) {
	st := newStubTransport().
		reply(epUploadServer, serverOK).
		uploadReply(uploadOK).
		reply(epSetFolder, folderOK)

	outcome := newTestUploader(st).Upload(context.Background(), testFile("hello"), 42)

	require.True(t, outcome.OK())
	assert.Nil(t, outcome.Warning)
	assert.Equal(t, []string{epUploadServer, epUpload, epSetFolder}, st.callLog())
	assert.Equal(t, url.Values{"file_code": {"abc123"}, "fld_id": {"42"}}, st.params[2])
}

func TestUpload_TargetUnavailable(t *testing.T) {
	tests := []struct {
		name string
		st   *stubTransport
	}{
		{name: "transport failure", st: newStubTransport().fail(epUploadServer, &domain.TransportError{Op: "GET", URL: epUploadServer, StatusCode: 503})},
		{name: "service status", st: newStubTransport().reply(epUploadServer, `{"status":403,"msg":"Invalid key"}`)},
		{name: "missing session", st: newStubTransport().reply(epUploadServer, `{"status":200,"result":"https://up"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.st.uploadReply(uploadOK).reply(epSetFolder, folderOK)

			outcome := newTestUploader(tt.st).Upload(context.Background(), testFile("hello"), 7)

			require.False(t, outcome.OK())
			assert.Equal(t, domain.FailureTargetUnavailable, outcome.Failure.Kind)
			assert.NotEmpty(t, outcome.Failure.Detail)
			assert.Equal(t, 0, tt.st.count(epUpload))
			assert.Equal(t, 0, tt.st.count(epSetFolder))
		})
	}
}

func TestUpload_TransferRejected(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "empty list", reply: `[]`},
		{name: "no file code", reply: `[{"file_status":"file too big"}]`},
		{name: "empty file code", reply: `[{"file_code":"","file_status":"OK"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newStubTransport().
				reply(epUploadServer, serverOK).
				uploadReply(tt.reply).
				reply(epSetFolder, folderOK)

			outcome := newTestUploader(st).Upload(context.Background(), testFile("hello"), 7)

			require.False(t, outcome.OK())
			assert.Equal(t, domain.FailureTransferRejected, outcome.Failure.Kind)
			assert.Equal(t, 0, st.count(epSetFolder))
		})
	}
}

func TestUpload_TransferTransportError(t *testing.T) {
	st := newStubTransport().reply(epUploadServer, serverOK)

	outcome := newTestUploader(st).Upload(context.Background(), testFile("hello"), domain.NoFolder)

	require.False(t, outcome.OK())
	assert.Equal(t, domain.FailureTransport, outcome.Failure.Kind)
	assert.Equal(t, 1, st.count(epUpload))
}

func TestUpload_FolderFailureIsWarning(t *testing.T) {
	tests := []struct {
		name string
		st   *stubTransport
	}{
		{name: "service rejects", st: newStubTransport().reply(epSetFolder, folderDown)},
		{name: "transport error", st: newStubTransport().fail(epSetFolder, &domain.TransportError{Op: "GET", URL: epSetFolder, Err: fmt.Errorf("connection reset")})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.st.reply(epUploadServer, serverOK).uploadReply(uploadOK)

			outcome := newTestUploader(tt.st).Upload(context.Background(), testFile("hello"), 42)

			require.True(t, outcome.OK(), "folder failure must not fail the upload")
			assert.Equal(t, "abc123", outcome.FileCode)
			require.NotNil(t, outcome.Warning)
			assert.Equal(t, domain.WarningFolderAssignment, outcome.Warning.Kind)
			assert.NotEmpty(t, outcome.Warning.Detail)
			assert.Equal(t, 1, tt.st.count(epSetFolder))
		})
	}
}

func TestUpload_NegativeFolder(t *testing.T) {
	st := newStubTransport().reply(epUploadServer, serverOK).uploadReply(uploadOK)

	outcome := newTestUploader(st).Upload(context.Background(), testFile("hello"), -1)

	require.False(t, outcome.OK())
	assert.Equal(t, domain.FailureInvalidFolder, outcome.Failure.Kind)
	assert.Empty(t, st.callLog())
}

func TestUpload_CanceledBeforeStart(t *testing.T) {
	st := newStubTransport().reply(epUploadServer, serverOK).uploadReply(uploadOK)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := newTestUploader(st).Upload(ctx, testFile("hello"), domain.NoFolder)

	require.False(t, outcome.OK())
	assert.Equal(t, domain.FailureCanceled, outcome.Failure.Kind)
	assert.Empty(t, st.callLog())
}

func TestUpload_CanceledAfterTarget(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := newStubTransport().uploadReply(uploadOK)
	st.responses[epUploadServer] = func(url.Values) (string, error) {
		cancel()
		return serverOK, nil
	}

	outcome := newTestUploader(st).Upload(ctx, testFile("hello"), domain.NoFolder)

	require.False(t, outcome.OK())
	assert.Equal(t, domain.FailureCanceled, outcome.Failure.Kind)
	assert.Equal(t, 0, st.count(epUpload))
}

func TestUpload_CanceledBeforeAssignment(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := newStubTransport().reply(epUploadServer, serverOK).reply(epSetFolder, folderOK)
	st.upload = func(uploadForm) (string, error) {
		cancel()
		return uploadOK, nil
	}

	outcome := newTestUploader(st).Upload(ctx, testFile("hello"), 42)

	require.True(t, outcome.OK(), "stored file must be reported")
	require.NotNil(t, outcome.Warning)
	assert.Equal(t, 0, st.count(epSetFolder))
}

func TestUpload_RepeatedFailureIsStable(t *testing.T) {
	st := newStubTransport().reply(epUploadServer, serverOK).uploadReply(`[{"file_status":"rejected"}]`)
	u := newTestUploader(st)

	for i := 0; i < 5; i++ {
		outcome := u.Upload(context.Background(), testFile("hello"), domain.NoFolder)

		require.False(t, outcome.OK())
		assert.Equal(t, domain.FailureTransferRejected, outcome.Failure.Kind)
	}

	assert.Equal(t, 5, st.count(epUploadServer), "each upload acquires a fresh target")
}

func TestUploadMany_IsolatesSessions(t *testing.T) {
	const n = 8

	var (
		issued   = map[string]string{}
		sessions = 0
	)

	st := newStubTransport()
	st.responses[epUploadServer] = func(url.Values) (string, error) {
		st.mu.Lock()
		defer st.mu.Unlock()

		sessions++
		sess := fmt.Sprintf("sess-%d", sessions)
		server := fmt.Sprintf("https://up%d.example/upload.cgi", sessions)
		issued[server] = sess

		return fmt.Sprintf(`{"status":200,"sess_id":%q,"result":%q}`, sess, server), nil
	}
	st.upload = func(form uploadForm) (string, error) {
		st.mu.Lock()
		want := issued[form.url]
		st.mu.Unlock()

		if form.sessionID != want {
			return "", fmt.Errorf("session %q posted to server of %q", form.sessionID, want)
		}

		return fmt.Sprintf(`[{"file_code":"code-%s"}]`, form.content), nil
	}

	files := make([]domain.File, n)
	for i := range files {
		files[i] = testFile(fmt.Sprintf("f%d", i))
	}

	outcomes := newTestUploader(st).UploadMany(context.Background(), files, domain.NoFolder)

	require.Len(t, outcomes, n)
	for i, outcome := range outcomes {
		require.True(t, outcome.OK(), "file %d: %+v", i, outcome.Failure)
		assert.Equal(t, fmt.Sprintf("code-f%d", i), outcome.FileCode)
	}
	assert.Equal(t, n, st.count(epUploadServer))
	assert.Equal(t, 0, st.count(epSetFolder))
}
