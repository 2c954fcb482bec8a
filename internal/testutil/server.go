package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"leadboard/devapi"
)

// DevServer is a running dev API for client-level tests.
type DevServer struct {
	*httptest.Server
	Store  *devapi.MemoryStore
	Outbox *devapi.MemoryOutbox
	Hook   *test.Hook
}

// BaseURL is the API root clients should be pointed at.
func (s *DevServer) BaseURL() string { return s.URL + "/api" }

// StartDevServer runs the dev API with in-memory stores and shared-secret
// auth. It is closed when the test ends.
func StartDevServer(t testing.TB) *DevServer {
	t.Helper()
	logger, hook := test.NewNullLogger()
	store := devapi.NewMemoryStore()
	outbox := &devapi.MemoryOutbox{}
	e := devapi.NewRouter(devapi.Deps{
		Tasks:    store,
		Contacts: store,
		Auth:     devapi.NewSharedSecretAuth([]byte(Secret)),
		Outbox:   outbox,
		Logger:   logger,
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &DevServer{Server: srv, Store: store, Outbox: outbox, Hook: hook}
}
