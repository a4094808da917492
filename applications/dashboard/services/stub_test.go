package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"sync"

	"github.com/donmikel/filedash/applications/dashboard/domain"
)

const (
	epUploadServer = "/upload/server"
	epSetFolder    = "/file/set_folder"
	epUploadURL    = "/upload/url"
	epUpload       = "upload"
)

// uploadForm is what a stub upload server saw in one multipart body.
type uploadForm struct {
	url        string
	sessionID  string
	uploadType string
	fileName   string
	content    string
}

type responder func(params url.Values) (string, error)

// stubTransport is a deterministic, concurrency-safe Transport that records
// every call in order.
type stubTransport struct {
	mu        sync.Mutex
	calls     []string
	params    []url.Values
	forms     []uploadForm
	responses map[string]responder
	upload    func(form uploadForm) (string, error)
}

func newStubTransport() *stubTransport {
	return &stubTransport{responses: map[string]responder{}}
}

func (s *stubTransport) reply(endpoint, body string) *stubTransport {
	s.responses[endpoint] = func(url.Values) (string, error) { return body, nil }
	return s
}

func (s *stubTransport) fail(endpoint string, err error) *stubTransport {
	s.responses[endpoint] = func(url.Values) (string, error) { return "", err }
	return s
}

func (s *stubTransport) uploadReply(body string) *stubTransport {
	s.upload = func(uploadForm) (string, error) { return body, nil }
	return s
}

func (s *stubTransport) count(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.calls {
		if c == endpoint {
			n++
		}
	}
	return n
}

func (s *stubTransport) callLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.calls...)
}

func (s *stubTransport) Call(_ context.Context, endpoint string, params url.Values, out any) error {
	s.mu.Lock()
	s.calls = append(s.calls, endpoint)
	s.params = append(s.params, params)
	respond, ok := s.responses[endpoint]
	s.mu.Unlock()

	if !ok {
		return &domain.TransportError{Op: "GET", URL: endpoint, StatusCode: 404}
	}

	body, err := respond(params)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(body), out)
}

func (s *stubTransport) CallFormEncoded(ctx context.Context, endpoint string, body url.Values, out any) error {
	return s.Call(ctx, endpoint, body, out)
}

func (s *stubTransport) UploadBytes(_ context.Context, destinationURL string, payload domain.MultipartPayload, out any) error {
	defer payload.Body.Close()

	form, err := readUploadForm(payload)
	if err != nil {
		return &domain.TransportError{Op: "POST", URL: destinationURL, Err: err}
	}
	form.url = destinationURL

	s.mu.Lock()
	s.calls = append(s.calls, epUpload)
	s.forms = append(s.forms, form)
	upload := s.upload
	s.mu.Unlock()

	if upload == nil {
		return &domain.TransportError{Op: "POST", URL: destinationURL, StatusCode: 502}
	}

	body, err := upload(form)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(body), out)
}

func readUploadForm(payload domain.MultipartPayload) (uploadForm, error) {
	_, params, err := mime.ParseMediaType(payload.ContentType)
	if err != nil {
		return uploadForm{}, err
	}

	var form uploadForm
	mr := multipart.NewReader(payload.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return form, nil
		}
		if err != nil {
			return uploadForm{}, err
		}

		data, err := io.ReadAll(part)
		if err != nil {
			return uploadForm{}, err
		}

		switch part.FormName() {
		case formSessionID:
			form.sessionID = string(data)
		case formUploadType:
			form.uploadType = string(data)
		case formFile:
			form.fileName = part.FileName()
			form.content = string(data)
		default:
			return uploadForm{}, fmt.Errorf("unexpected form field %q", part.FormName())
		}
	}
}
