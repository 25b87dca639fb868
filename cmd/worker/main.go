// cmd/worker/main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
)

// main starts the worker process: the Consumer side of ocr-jobs, driving
// each dequeued Job through RecognitionProcessor's align -> QR ->
// OCR-fallback -> persist -> publish pipeline.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := InitializeWorker(ctx)
	if err != nil {
		log.Fatalf("failed to initialize worker process: %v", err)
	}
	defer cleanup()

	app.Run(ctx)
}
