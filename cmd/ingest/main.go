// cmd/ingest/main.go
package main

import (
	"context"
	"log"

	"go.uber.org/zap"
)

// main starts the ingest process: the HTTP edge (uploadImage, recognition
// and image read-back, health) backed by C2 and the Producer side of the
// ocr-jobs queue. The worker process (cmd/worker) consumes what this
// process enqueues.
func main() {
	ctx := context.Background()

	apiServer, cleanup, err := InitializeAPI(ctx)
	if err != nil {
		log.Fatalf("failed to initialize ingest process: %v", err)
	}
	defer cleanup()

	if err := apiServer.StartServer(); err != nil {
		apiServer.Logger.Fatal("server exited with error", zap.Error(err))
	}
}
