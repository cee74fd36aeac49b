package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/joho/godotenv"

	"github.com/example/jobboard-realtime/modules/auth"
	"github.com/example/jobboard-realtime/modules/gateway"
	"github.com/example/jobboard-realtime/modules/registry"
	"github.com/example/jobboard-realtime/modules/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	verifier := auth.NewVerifier(auth.DefaultConfig())

	storeModule := store.NewModule()
	registryModule := registry.NewModule()
	gatewayModule := gateway.NewModule(verifier, storeModule, registryModule)

	// Order matters: the gateway builds its services from the store and
	// registry in Start, so those must have started first.
	app.Register(storeModule)
	app.Register(registryModule)
	app.Register(gatewayModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Jobboard realtime gateway started")
	log.Println("")
	log.Printf("WebSocket endpoints (ws://localhost:%s):", port)
	log.Println("  /ws/chat/<other_user_id>?token=<bearer>    - 1:1 chat session")
	log.Println("  /ws/notification/<user_id>?token=<bearer>  - notification feed")
	log.Println("")
	log.Printf("REST endpoints (http://localhost:%s):", port)
	log.Println("  GET  /health                    - health check")
	log.Println("  POST /api/v1/notifications      - persist + fan out a notification")
	log.Println("  GET  /api/v1/notifications      - own notification history")
	log.Println("  GET  /api/v1/conversations/:id  - message history with a counterparty")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
