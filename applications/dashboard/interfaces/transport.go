package interfaces

import (
	"context"
	"net/url"

	"github.com/donmikel/filedash/applications/dashboard/domain"
)

type Transport interface {
	Call(ctx context.Context, endpoint string, params url.Values, out any) error
	CallFormEncoded(ctx context.Context, endpoint string, body url.Values, out any) error
	UploadBytes(ctx context.Context, destinationURL string, payload domain.MultipartPayload, out any) error
}
