// Package api serves the RAG backend HTTP interface.
//
// Every request passes through CORS, JSON body parsing, request ID tagging
// and the access log, in that order, before it reaches the router.
package api

import (
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"ragbackend/config"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// API holds the API server
type API struct {
	router    *mux.Router
	handler   http.Handler
	config    *config.Config
	logger    *zap.SugaredLogger
	accessLog io.Writer

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// NewAPI builds the router and installs the middleware chain. Routes are
// added separately by RegisterRoutes; accessLog receives one line per
// completed request and may be nil.
func NewAPI(cfg *config.Config, logger *zap.SugaredLogger, accessLog io.Writer) *API {
	if accessLog == nil {
		accessLog = io.Discard
	}

	a := &API{
		router:    mux.NewRouter(),
		config:    cfg,
		logger:    logger,
		accessLog: accessLog,
	}

	a.router.NotFoundHandler = http.HandlerFunc(a.notFound)
	a.router.MethodNotAllowedHandler = http.HandlerFunc(a.notFound)

	// mux's own Use chain is skipped for unmatched routes, so wrap explicitly
	a.handler = a.corsMiddleware(
		a.jsonBodyMiddleware(
			a.requestIDMiddleware(
				a.accessLogMiddleware(a.router))))

	return a
}

// RegisterRoutes sets up the API routes
func (a *API) RegisterRoutes() {
	a.router.HandleFunc("/", a.getRoot).Methods(http.MethodGet, http.MethodHead)
}

// Handler returns the router wrapped in the middleware chain
func (a *API) Handler() http.Handler {
	return a.handler
}

// Serve accepts connections on l until Close is called or serving fails.
// It returns nil after Close.
func (a *API) Serve(l net.Listener) error {
	server := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return l.Close()
	}
	a.server = server
	a.mu.Unlock()

	if err := server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the server immediately. In-flight requests are not drained.
// A later Serve call returns at once.
func (a *API) Close() error {
	a.mu.Lock()
	a.closed = true
	server := a.server
	a.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Close()
}
