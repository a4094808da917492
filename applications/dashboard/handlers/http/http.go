package http

import (
	"net/http"

	"github.com/go-kit/log"

	"github.com/donmikel/filedash/applications/dashboard/config"
)

func NewHTTPServer(conf config.Api, svc Services, logger log.Logger) *http.Server {
	mux := NewRouter(svc, conf.MaxUploadBytes, logger)
	return &http.Server{
		Addr:    conf.HTTPAddr,
		Handler: mux,
	}
}
