package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/blabbr/contentflow/configs"
	"github.com/blabbr/contentflow/internal/api/handlers"
	"github.com/blabbr/contentflow/internal/api/middleware"
	job "github.com/blabbr/contentflow/internal/jobs"
	"github.com/blabbr/contentflow/internal/queue"
	"github.com/blabbr/contentflow/internal/repository"
	"github.com/blabbr/contentflow/internal/scheduler"
	"github.com/blabbr/contentflow/internal/service"
	"github.com/blabbr/contentflow/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"
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

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    30 * 1024 * 1024, // 30 MB, five images at 5 MB plus form overhead
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
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	settingsService := service.NewSettingsService(settingsRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)
	assetService := service.NewAssetService(*cfg)
	linkedinService := service.NewLinkedinService(*cfg, connectionRepo)
	webhookService := service.NewWebhookService(*cfg)
	generateService := service.NewGenerateService(*cfg)
	publishService := service.NewPublishService(*cfg, connectionRepo, settingsRepo, userRepo, linkedinService, webhookService)

	postStore := storage.NewFileStore(cfg.PostsFile)
	if !postStore.IsAvailable() {
		log.Println("Warning: post storage is not writable, scheduled posts will not persist")
	}

	// Retries need Redis. Without it the scheduler still runs, failed posts
	// just stay failed until retried by hand.
	var asynqClient *asynq.Client
	var retryEnqueuer *queue.Enqueuer
	if cfg.RedisURI != "" {
		redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
		asynqClient = asynq.NewClient(redisConn)
		defer asynqClient.Close()
		retryEnqueuer = queue.NewEnqueuer(asynqClient)
	}

	var sched *scheduler.Service
	if retryEnqueuer != nil {
		sched = scheduler.New(postStore, publishService, retryEnqueuer)
	} else {
		sched = scheduler.New(postStore, publishService, nil)
	}
	sched.Start()

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	linkedin := handlers.NewLinkedinHandler(*cfg, linkedinService)
	app.Get("/auth/linkedin/callback", linkedin.Callback)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/auth/linkedin", linkedin.Connect)
	api.Get("/linkedin/connection", linkedin.Connection)
	api.Post("/linkedin/disconnect", linkedin.Disconnect)
	api.Post("/linkedin/post", linkedin.PostNow)

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	settings := handlers.NewSettingsHandler(settingsService)
	api.Get("/settings/info", settings.GetSettingsInfo)
	api.Post("/settings/update", settings.UpdateSettings)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	post := handlers.NewPostHandler(sched, assetService)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/update", post.UpdatePost)
	api.Post("/posts/retry", post.RetryPost)
	api.Post("/posts/remove", post.RemovePost)
	api.Post("/scheduler/check", post.TriggerCheck)
	api.Get("/scheduler/status", post.SchedulerStatus)

	generate := handlers.NewGenerateHandler(generateService)
	api.Post("/generate/content", generate.GenerateContent)
	api.Post("/generate/keywords", generate.ExtractKeywords)

	webhook := handlers.NewWebhookHandler(webhookService, userService)
	api.Post("/webhook/test", webhook.Test)
	api.Post("/webhook/send", webhook.SendContent)

	upload := handlers.NewUploadHandler(assetService)
	api.Post("/upload/images", upload.UploadImages)

	// cron jobs
	connectionCheckJob := job.NewConnectionCheckJob(connectionRepo, linkedinService)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", connectionCheckJob.CheckConnections)
	c.Start()

	if retryEnqueuer != nil {
		redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
		queueWorker := queue.NewWorker(sched, retryEnqueuer)

		go func() {
			server := asynq.NewServer(redisConn, asynq.Config{
				Concurrency: 10,
			})

			mux := asynq.NewServeMux()
			mux.HandleFunc(queue.TaskTypePublishRetry, queueWorker.HandlePublishRetryTask)

			log.Println("Starting the Asynq server...")
			if err := server.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	}

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db, sched)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, sched *scheduler.Service) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	sched.Stop()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
