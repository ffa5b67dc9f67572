package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"speakerscope/config"
	"speakerscope/handlers"
	"speakerscope/internal/assemblyai"
	"speakerscope/internal/jobs"
	"speakerscope/internal/session"
	"speakerscope/internal/watch"
	"speakerscope/internal/ws"
	"speakerscope/middleware"
)

func main() {
	config.InitLogger()
	cfg := config.Load()

	// Session library backend: local JSON file by default, Supabase when
	// configured.
	var store session.Store
	switch cfg.SessionBackend {
	case "supabase":
		client, err := config.NewSupabaseClient()
		if err != nil {
			config.Log.Fatalf("Failed to initialize Supabase session store: %v", err)
		}
		store = session.NewSupabaseStore(client)
	default:
		fileStore, err := session.NewFileStore(cfg.SessionFile)
		if err != nil {
			config.Log.Fatalf("Failed to initialize session file store: %v", err)
		}
		store = fileStore
	}

	manager := jobs.NewManager(jobs.Options{
		Logger: config.Log,
		NewClient: func(apiKey string) jobs.Client {
			return assemblyai.NewClient(cfg.AssemblyAIBaseURL, apiKey)
		},
		DefaultAPIKey:   cfg.AssemblyAIKey,
		PollInterval:    cfg.PollInterval,
		PollMaxAttempts: cfg.PollMaxAttempts,
		Workers:         cfg.MaxWorkers,
	})

	hub := ws.NewHub(config.Log)
	manager.SetNotifier(hub.Publish)
	manager.Start()

	go func() {
		if err := hub.Serve(cfg.EventsAddr); err != nil {
			config.Log.Errorf("Event push server stopped: %v", err)
		}
	}()

	if cfg.WatchDir != "" {
		watcher := watch.New(cfg.WatchDir, config.Log, manager)
		go watcher.Run(context.Background())
	}

	h := handlers.NewApplicationHandler(config.Log, manager, store, cfg)

	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.RequestLogger())

	// Health check route
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "speakerscope is healthy",
		})
	})

	// API v1 routes
	apiV1 := app.Group("/api/v1")

	// Transcription routes
	apiV1.Post("/transcriptions/upload", h.UploadTranscription)
	apiV1.Post("/transcriptions", h.CreateTranscription)
	apiV1.Get("/transcriptions/:jobId", h.GetTranscription)
	apiV1.Delete("/transcriptions/:jobId", h.CancelTranscription)

	// Playback synchronization and speaker routes
	apiV1.Get("/transcriptions/:jobId/captions", h.GetCaptions)
	apiV1.Post("/transcriptions/:jobId/speakers/:label/toggle", h.ToggleSpeaker)
	apiV1.Patch("/transcriptions/:jobId/speakers/:label", h.RenameSpeaker)

	// Session library routes
	apiV1.Post("/sessions", h.CreateSession)
	apiV1.Get("/sessions", h.ListSessions)
	apiV1.Get("/sessions/:id", h.GetSession)
	apiV1.Delete("/sessions/:id", h.DeleteSession)
	apiV1.Post("/sessions/:id/open", h.OpenSession)

	log.Printf("Starting speakerscope API on %s...", cfg.ListenAddr)
	log.Fatal(app.Listen(cfg.ListenAddr))
}
