package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"ragbackend/config"
	"ragbackend/metrics"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// defaultDatabase is used when the connection string names no database
const defaultDatabase = "test"

// ExitFunc terminates the process with the given status code
type ExitFunc func(code int)

type dialFunc func(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error)

// ConnectorOption customizes a MongoConnector
type ConnectorOption func(*MongoConnector)

// WithExitFunc replaces the hook called after a fatal connection error
func WithExitFunc(exit ExitFunc) ConnectorOption {
	return func(c *MongoConnector) {
		c.exit = exit
	}
}

// WithClientOptions merges extra driver options over those parsed from the URI
func WithClientOptions(opts *options.ClientOptions) ConnectorOption {
	return func(c *MongoConnector) {
		c.extra = append(c.extra, opts)
	}
}

// MongoConnector owns the single MongoDB connection of the process.
//
// Connect is meant to run concurrently with listener startup, so requests can
// arrive before the connection resolves. Handlers that touch the database
// must check Ready first.
type MongoConnector struct {
	uri    string
	dbName string
	logger *zap.SugaredLogger
	exit   ExitFunc
	extra  []*options.ClientOptions
	dial   dialFunc

	mu     sync.RWMutex
	client *mongo.Client
	ready  atomic.Bool
}

// NewMongoConnector captures the connection string. It fails fast with
// config.ErrMissingConnectionString when uri is empty.
func NewMongoConnector(uri string, logger *zap.SugaredLogger, opts ...ConnectorOption) (*MongoConnector, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, config.ErrMissingConnectionString
	}

	c := &MongoConnector{
		uri:    uri,
		dbName: databaseFromURI(uri),
		logger: logger.Desugar().WithOptions(zap.AddStacktrace(zapcore.ErrorLevel)).Sugar(),
		dial:   dialMongo,
	}
	c.exit = func(code int) {
		_ = logger.Sync()
		os.Exit(code)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Connect establishes the connection and verifies it with a ping against the
// primary. Driver defaults govern timeouts. A failed attempt is logged and
// the exit hook is called with status 1; the error is returned for callers
// whose exit hook returns. Cancelling ctx abandons the attempt without
// calling the exit hook.
func (c *MongoConnector) Connect(ctx context.Context) error {
	opts := options.MergeClientOptions(append([]*options.ClientOptions{options.Client().ApplyURI(c.uri)}, c.extra...)...)

	client, err := c.dial(ctx, opts)
	if err != nil && ctx.Err() != nil {
		c.logger.Infow("MongoDB connect cancelled", "error", err)
		return ctx.Err()
	}
	if err != nil {
		metrics.MongoDBConnectionAttempts.WithLabelValues(metrics.OutcomeError).Inc()
		c.logger.Errorw("Error connecting to MongoDB",
			"error", err,
			"uri", config.RedactURI(c.uri),
			"hint", ClassifyConnectionError(err, c.uri))
		c.exit(1)
		return err
	}

	// The driver reports failure through err; a nil client is not expected
	if client == nil {
		metrics.MongoDBConnectionAttempts.WithLabelValues(metrics.OutcomeFailed).Inc()
		c.logger.Warn("Failed to connect to MongoDB")
		return ErrNotConnected
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	c.ready.Store(true)

	metrics.MongoDBConnectionAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.MongoDBConnected.Set(1)
	c.logger.Infow("Connected to MongoDB successfully", "database", c.dbName)

	return nil
}

// dialMongo connects and pings; the driver connects lazily, so the ping is
// what actually proves the endpoint is reachable.
func dialMongo(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

// Ready reports whether the connection has been established
func (c *MongoConnector) Ready() bool {
	return c.ready.Load()
}

// Client returns the connected client, or nil before Connect succeeds
func (c *MongoConnector) Client() *mongo.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// DatabaseName returns the database named in the connection string
func (c *MongoConnector) DatabaseName() string {
	return c.dbName
}

// Database returns the configured database, or nil before Connect succeeds
func (c *MongoConnector) Database() *mongo.Database {
	client := c.Client()
	if client == nil {
		return nil
	}
	return client.Database(c.dbName)
}

// HealthCheck performs a health check on the MongoDB connection
func (c *MongoConnector) HealthCheck(ctx context.Context) error {
	client := c.Client()
	if client == nil {
		return ErrNotConnected
	}
	return client.Ping(ctx, readpref.Primary())
}

// Close closes the MongoDB connection
func (c *MongoConnector) Close(ctx context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client == nil {
		return nil
	}

	c.ready.Store(false)
	metrics.MongoDBConnected.Set(0)
	return client.Disconnect(ctx)
}

// databaseFromURI extracts the database path segment of a connection string
func databaseFromURI(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	if schemeEnd < 0 {
		return defaultDatabase
	}
	rest := uri[schemeEnd+3:]

	slash := strings.Index(rest, "/")
	if slash < 0 {
		return defaultDatabase
	}
	path := rest[slash+1:]
	if q := strings.Index(path, "?"); q >= 0 {
		path = path[:q]
	}

	name, err := url.PathUnescape(path)
	if err != nil || name == "" {
		return defaultDatabase
	}
	return name
}
