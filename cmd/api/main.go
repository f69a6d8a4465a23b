package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"sesmt-backend/internal/config"
	"sesmt-backend/internal/cron"
	"sesmt-backend/internal/database"
	"sesmt-backend/internal/handlers"
	"sesmt-backend/internal/middleware"
	"sesmt-backend/internal/receita"
	"sesmt-backend/internal/repository"
	"sesmt-backend/internal/storage"
)

func main() {
	// 1. Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to PostgreSQL (migrations run on connect)
	db := database.New(&cfg.DB)
	defer db.Close()

	// 3. Initialize file storage
	fileStore, err := newFileStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	// 4. Repositories
	users := repository.NewUserRepository(db)
	employees := repository.NewEmployeeRepository(db)
	trackSettings := repository.NewTrackSettingsRepository(db)
	suppliers := repository.NewSupplierRepository(db)
	entityDocs := repository.NewEntityDocumentRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	notifications := repository.NewNotificationRepository(db)

	seedCtx, cancelSeed := context.WithTimeout(ctx, 10*time.Second)
	if err := handlers.EnsureAdmin(seedCtx, users, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Printf("Warning: could not create admin account: %v", err)
	}
	cancelSeed()

	// 5. Set up router with global middleware
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 6. Initialize handlers with their dependencies
	today := cfg.Today
	authHandler := handlers.NewAuthHandler(users, cfg.JWTSecret)
	userHandler := handlers.NewUserManagementHandler(users)
	adminHandler := handlers.NewAdminHandler(trackSettings)
	employeeHandler := handlers.NewEmployeeHandler(employees, trackSettings, today)
	documentHandler := handlers.NewDocumentHandler(entityDocs, today)
	supplierHandler := handlers.NewSupplierHandler(suppliers, entityDocs, receita.NewClient(cfg.ReceitaBaseURL), today)
	attendanceHandler := handlers.NewAttendanceHandler(attendance, employees, today)
	dashboardHandler := handlers.NewDashboardHandler(employees, entityDocs, suppliers, today)
	notificationHandler := handlers.NewNotificationHandler(notifications)
	uploadHandler := handlers.NewUploadHandler(fileStore)

	// Start background cron jobs
	cron.NewNotifier(employees, entityDocs, notifications, today).Start(ctx, cfg.NotifierInterval)

	// 7. Public routes (no authentication required)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("SESMT Compliance API"))
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(db.Health())
	})

	// Auth routes are public but throttled per IP (~5 attempts/minute)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, rate.Every(12*time.Second), 5))
		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/login", authHandler.Login)
	})

	// Uploaded files (local storage serves them, S3 redirects)
	r.Get("/api/files/*", uploadHandler.ServeFile)

	// 8. Protected routes (require valid JWT)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		r.Get("/api/auth/me", authHandler.GetMe)
		r.Post("/api/upload", uploadHandler.Upload)

		r.Get("/api/tracks", adminHandler.ListTracks)

		r.Get("/api/dashboard", dashboardHandler.GetMetrics)
		r.Get("/api/dashboard/expiring", dashboardHandler.GetExpiryAlerts)

		r.Get("/api/notifications", notificationHandler.List)
		r.Get("/api/notifications/count", notificationHandler.UnreadCount)
		r.Patch("/api/notifications/read-all", notificationHandler.MarkAllRead)
		r.Patch("/api/notifications/{id}/read", notificationHandler.MarkRead)

		// Read-only endpoints, accessible to viewers
		r.Get("/api/employees", employeeHandler.List)
		r.Get("/api/employees/export", employeeHandler.Export)
		r.Get("/api/employees/{id}", employeeHandler.GetByID)

		r.Get("/api/entity-documents", documentHandler.List)
		r.Get("/api/entity-documents/status/{cnpj}", documentHandler.Status)
		r.Get("/api/entity-documents/{id}", documentHandler.GetByID)

		r.Get("/api/suppliers", supplierHandler.List)
		r.Get("/api/suppliers/lookup/{cnpj}", supplierHandler.Lookup)
		r.Get("/api/suppliers/{id}", supplierHandler.GetByID)

		r.Get("/api/attendance", attendanceHandler.Month)
		r.Get("/api/attendance/export", attendanceHandler.Export)

		// Write operations restricted to admin role
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("admin"))

			r.Put("/api/tracks/{trackId}", adminHandler.UpdateTrack)

			r.Post("/api/employees", employeeHandler.Create)
			r.Put("/api/employees/{id}", employeeHandler.Update)
			r.Patch("/api/employees/{id}/active", employeeHandler.SetActive)
			r.Delete("/api/employees/{id}", employeeHandler.Delete)

			r.Post("/api/entity-documents", documentHandler.Create)
			r.Put("/api/entity-documents/{id}", documentHandler.Update)
			r.Delete("/api/entity-documents/{id}", documentHandler.Delete)

			r.Post("/api/suppliers", supplierHandler.Create)
			r.Put("/api/suppliers/{id}", supplierHandler.Update)
			r.Patch("/api/suppliers/{id}/active", supplierHandler.SetActive)
			r.Delete("/api/suppliers/{id}", supplierHandler.Delete)

			r.Put("/api/attendance", attendanceHandler.Save)

			r.Get("/api/users", userHandler.List)
			r.Patch("/api/users/{id}/role", userHandler.UpdateRole)
			r.Delete("/api/users/{id}", userHandler.Delete)
		})
	})

	// 9. Start server with graceful shutdown
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server started on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Server stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}

// newFileStore picks local disk or an S3-compatible bucket per STORAGE_DRIVER.
func newFileStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Upload.Driver == "s3" {
		return storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
		})
	}
	return storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
}
