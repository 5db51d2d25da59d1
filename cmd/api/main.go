package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/optira-energie/comparateur-api/internal/infra/database"
	"github.com/optira-energie/comparateur-api/internal/infra/http/handlers"
	"github.com/optira-energie/comparateur-api/internal/infra/http/middleware"
	"github.com/optira-energie/comparateur-api/internal/infra/integration/registry"
	"github.com/optira-energie/comparateur-api/internal/infra/mail"
	"github.com/optira-energie/comparateur-api/internal/infra/queue"
	"github.com/optira-energie/comparateur-api/internal/infra/storage"
	"github.com/optira-energie/comparateur-api/internal/usecase"
)

func main() {
	godotenv.Load()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		os.Getenv("RABBITMQ_USER"), os.Getenv("RABBITMQ_PASS"),
		os.Getenv("RABBITMQ_HOST"), os.Getenv("RABBITMQ_PORT"),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Repositories
	prospectRepo := database.NewProspectRepository(db)
	sessionRepo := database.NewSessionRepository(db)

	// 2. Gateways and adapters
	blobStore := storage.NewClient(
		os.Getenv("SUPABASE_URL"),
		os.Getenv("SUPABASE_BUCKET"),
		os.Getenv("SUPABASE_SERVICE_KEY"),
	)
	registryClient := registry.NewClient(os.Getenv("REGISTRY_URL"))
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

	mailPort, _ := strconv.Atoi(os.Getenv("MAIL_PORT"))
	if mailPort == 0 {
		mailPort = 587
	}
	mailSender := mail.NewEmailSender(
		os.Getenv("MAIL_HOST"), mailPort,
		os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
		os.Getenv("SALES_INBOX"),
	)

	// 3. Worker (drains the lead queue into the sales inbox)
	worker := queue.NewWorker(rabbitMQ.Ch, mailSender)
	go worker.Start(queue.QueueName)

	// 4. Use cases
	sessionUC := usecase.NewProspectSessionUseCase(prospectRepo, sessionRepo, producer)
	uploadUC := usecase.NewUploadFileUseCase(prospectRepo, blobStore)

	// 5. Handlers
	prospectHandler := handlers.NewProspectHandler(sessionUC)
	uploadHandler := handlers.NewUploadHandler(uploadUC)
	adminHandler := handlers.NewAdminHandler(prospectRepo)
	searchHandler := handlers.NewCompanySearchHandler(registryClient)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://optira-energie.fr", "http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Session-ID"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/search-companies", searchHandler.Handle)

		r.Post("/prospects", prospectHandler.HandleCreate)
		r.Get("/prospects", adminHandler.HandleList)
		r.Get("/prospects/{id}", prospectHandler.HandleGet)
		r.Put("/prospects/{id}/steps/{step}", prospectHandler.HandleUpdateStep)
		r.Post("/prospects/{id}/finalize", prospectHandler.HandleFinalize)
		r.Patch("/prospects/{id}/status", adminHandler.HandleUpdateStatus)

		r.Post("/prospects/{id}/documents", uploadHandler.HandleUpload)
		r.Delete("/prospects/{id}/documents/{category}/{fileId}", uploadHandler.HandleDelete)

		r.Delete("/sessions/{sessionId}", prospectHandler.HandleReset)
	})

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("comparateur-api listening on :%s", port)
	http.ListenAndServe(":"+port, r)
}
