package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"

	config "github.com/campfirehq/socialqueue/configs"
	"github.com/campfirehq/socialqueue/internal/api/handlers"
	"github.com/campfirehq/socialqueue/internal/api/middleware"
	job "github.com/campfirehq/socialqueue/internal/jobs"
	"github.com/campfirehq/socialqueue/internal/queue"
	"github.com/campfirehq/socialqueue/internal/repository"
	"github.com/campfirehq/socialqueue/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	legacyRepo := repository.NewLegacyJobRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)

	r2Service := service.NewR2Service(*cfg)
	instagramService := service.NewInstagramService(*cfg, mediaAssetRepo)
	facebookService := service.NewFacebookService(*cfg, mediaAssetRepo)
	mediaService := service.NewMediaService(mediaAssetRepo, *r2Service)
	draftService := service.NewDraftService(rdb)

	queueW := queue.NewQueue(postRepo, legacyRepo, socialAccountRepo, instagramService, facebookService)
	postService := service.NewPostService(postRepo, socialAccountRepo, queueW)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService, queueW, draftService, client)
	api.Post("/social/publish", post.SubmitPost)
	api.Get("/social/scheduled", post.ListScheduled)
	api.Patch("/social/scheduled/:id", post.Reschedule)
	api.Post("/social/scheduled/:id/reprocess", post.Reprocess)
	api.Post("/social/run-scheduled", post.RunScheduled)

	legacy := handlers.NewLegacyHandler(queueW)
	api.Post("/legacy/jobs/run-due", legacy.RunDue)
	api.Get("/social/jobs", legacy.ListJobs)

	account := handlers.NewAccountHandler(socialAccountRepo)
	api.Get("/accounts", account.ListAccounts)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/albums/:id/media", media.UploadAlbumMedia)
	api.Get("/albums/:id/media", media.ListAlbumMedia)
	api.Get("/media/:id", media.ResolveMedia)

	draft := handlers.NewDraftHandler(draftService)
	api.Get("/social/drafts/:albumID", draft.GetDraft)
	api.Put("/social/drafts/:albumID", draft.PutDraft)
	api.Delete("/social/drafts/:albumID", draft.DeleteDraft)

	// periodic polling tick of the queue processor
	sweepJob := job.NewQueueSweepJob(queueW)

	c := cron.New()
	c.AddFunc("@every 00h01m00s", sweepJob.Sweep)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeSchedulePost, queueW.HandleSchedulePostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.ListenAddr)

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
