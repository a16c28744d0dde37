package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"ragbackend/api"
	"ragbackend/config"
	"ragbackend/metrics"
	"ragbackend/storage"
	"ragbackend/util/goroutine"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// App represents the RAG backend with all its components.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	Connector *storage.MongoConnector
	APIServer *api.API

	exit          storage.ExitFunc
	metricsServer *http.Server
	connectDone   chan struct{}
	listening     chan struct{}

	mu          sync.RWMutex
	addr        string
	metricsAddr string
}

type appOptions struct {
	envFile    string
	exit       storage.ExitFunc
	loggerOpts []LoggerOption
}

// Option customizes NewApp
type Option func(*appOptions)

// WithEnvFile selects the dotenv file loaded before the environment is read.
// An empty path skips the file.
func WithEnvFile(path string) Option {
	return func(o *appOptions) {
		o.envFile = path
	}
}

// WithExitFunc replaces os.Exit as the reaction to a fatal MongoDB error
func WithExitFunc(exit storage.ExitFunc) Option {
	return func(o *appOptions) {
		o.exit = exit
	}
}

// WithLoggerOptions forwards options to InitLogger
func WithLoggerOptions(opts ...LoggerOption) Option {
	return func(o *appOptions) {
		o.loggerOpts = append(o.loggerOpts, opts...)
	}
}

// NewApp loads and validates configuration, builds the logger and wires the
// connector and API. Nothing is started: no connection is attempted and no
// port is bound until Run.
func NewApp(opts ...Option) (*App, error) {
	o := appOptions{envFile: ".env"}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := InitConfig(o.envFile)
	if err != nil {
		return nil, err
	}

	logger, sugar, err := InitLogger(cfg, o.loggerOpts...)
	if err != nil {
		printFatal("Failed to initialize logger", err.Error())
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := ValidateConfig(cfg, sugar); err != nil {
		_ = logger.Sync()
		return nil, err
	}

	exit := o.exit
	if exit == nil {
		exit = func(code int) {
			_ = logger.Sync()
			os.Exit(code)
		}
	}

	connector, err := storage.NewMongoConnector(cfg.MongoDB.URI, sugar, storage.WithExitFunc(exit))
	if err != nil {
		sugar.Errorw("Failed to create MongoDB connector", "error", err)
		return nil, err
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Sugar:     sugar,
		Connector: connector,
		APIServer: api.NewAPI(cfg, sugar, NewAccessLogWriter(sugar)),
		exit:      exit,
		listening: make(chan struct{}),
	}, nil
}

// Run starts the MongoDB connect in the background, registers the routes,
// binds the listener and serves until ctx is cancelled or serving fails.
//
// The connect is not awaited: the listener may accept requests before the
// database is reachable. Routes that need the database must check
// Connector.Ready. Run must be called at most once.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer a.shutdown(cancel)

	a.startConnect(runCtx)

	a.APIServer.RegisterRoutes()

	if err := a.startMetricsServer(); err != nil {
		return err
	}

	l, err := net.Listen("tcp", a.Config.ListenAddr())
	if err != nil {
		a.Sugar.Errorw("Failed to bind HTTP listener",
			"addr", a.Config.ListenAddr(),
			"error", err)
		return fmt.Errorf("failed to listen on %s: %w", a.Config.ListenAddr(), err)
	}

	a.mu.Lock()
	a.addr = l.Addr().String()
	a.mu.Unlock()

	a.Sugar.Infof("Server is running on http://localhost:%d", l.Addr().(*net.TCPAddr).Port)
	close(a.listening)

	errCh := make(chan error, 1)
	go func() {
		defer goroutine.Recover("http-server", a.Sugar)
		errCh <- a.APIServer.Serve(l)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			a.Sugar.Errorw("HTTP server failed", "error", err)
		}
		return err
	}
}

// Addr returns the address the HTTP listener is bound to, or "" before Run
// has bound it.
func (a *App) Addr() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.addr
}

// MetricsAddr returns the address of the metrics listener, or "" when it is
// disabled or not yet bound.
func (a *App) MetricsAddr() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.metricsAddr
}

// Listening is closed once the HTTP listener is bound
func (a *App) Listening() <-chan struct{} {
	return a.listening
}

// startConnect launches the single MongoDB connect attempt. A panic inside
// the driver is treated like a connection error.
func (a *App) startConnect(ctx context.Context) {
	a.connectDone = make(chan struct{})

	goroutine.Go("mongodb-connect", a.Sugar, func() {
		defer close(a.connectDone)
		_ = a.Connector.Connect(ctx)
	}, func(any) {
		a.exit(1)
	})
}

// startMetricsServer serves /metrics on its own port when METRICS_PORT is set
func (a *App) startMetricsServer() error {
	addr := a.Config.MetricsAddr()
	if addr == "" {
		return nil
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		a.Sugar.Errorw("Failed to bind metrics listener", "addr", addr, "error", err)
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	router := mux.NewRouter()
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	a.metricsServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.mu.Lock()
	a.metricsAddr = l.Addr().String()
	a.mu.Unlock()

	go func() {
		defer goroutine.Recover("metrics-server", a.Sugar)
		if err := a.metricsServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Sugar.Errorw("Metrics server failed", "error", err)
		}
	}()

	a.Sugar.Infow("Metrics server listening", "addr", l.Addr().String())
	return nil
}

// shutdown closes the listeners without draining, abandons a pending
// connect and releases the MongoDB client.
func (a *App) shutdown(cancel context.CancelFunc) {
	if err := a.APIServer.Close(); err != nil {
		a.Sugar.Warnw("Failed to close HTTP server", "error", err)
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Close(); err != nil {
			a.Sugar.Warnw("Failed to close metrics server", "error", err)
		}
	}

	cancel()
	<-a.connectDone

	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := a.Connector.Close(ctx); err != nil {
		a.Sugar.Warnw("Failed to disconnect from MongoDB", "error", err)
	}
}
