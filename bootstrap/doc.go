// Package bootstrap assembles the RAG backend: configuration, logger,
// MongoDB connector and HTTP API, started in a fixed order.
//
// Usage:
//
//	app, err := bootstrap.NewApp(bootstrap.WithEnvFile(".env"))
//	if err != nil {
//	    return err
//	}
//	defer app.Logger.Sync()
//
//	// Blocks until ctx is cancelled or the listener fails
//	return app.Run(ctx)
package bootstrap
