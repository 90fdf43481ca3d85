// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"go_lms_hub/internal/cache"
	"go_lms_hub/internal/config"
	"go_lms_hub/internal/handlers"
	"go_lms_hub/internal/middleware"
	"go_lms_hub/internal/model"
	"go_lms_hub/internal/repository"
	"go_lms_hub/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	// 設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)

	if err := config.LoadConfig("./configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		tintOpts := &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		}
		handler = tint.NewHandler(os.Stderr, tintOpts)
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}
		handler = slog.NewJSONHandler(os.Stderr, jsonOpts)
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Application starting...", slog.String("app", config.AppName), slog.String("version", config.AppVersion))

	// 2. Initialize Database Connection (GORM)
	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	// 3. Dependency Injection
	courseCache := cache.NewRedis(&config.Cfg.Redis, logger)
	mailer := service.NewMailer(&config.Cfg)

	profileRepo := repository.NewGormProfileRepository()
	courseRepo := repository.NewGormCourseRepository()
	lessonRepo := repository.NewGormLessonRepository()
	enrollmentRepo := repository.NewGormEnrollmentRepository()
	completionRepo := repository.NewGormCompletionRepository()
	reviewRepo := repository.NewGormReviewRepository()
	applicationRepo := repository.NewGormApplicationRepository()

	authService := service.NewAuthService(db, profileRepo, &config.Cfg)
	courseService := service.NewCourseService(db, courseRepo, lessonRepo, profileRepo, courseCache, &config.Cfg)
	enrollmentService := service.NewEnrollmentService(db, enrollmentRepo, completionRepo, courseRepo, lessonRepo)
	reviewService := service.NewReviewService(db, reviewRepo, enrollmentRepo, courseRepo, profileRepo, courseCache, &config.Cfg)
	applicationService := service.NewApplicationService(db, applicationRepo, profileRepo, mailer, &config.Cfg)

	authHandler := handlers.NewAuthHandler(authService, logger)
	profileHandler := handlers.NewProfileHandler(authService, logger)
	courseHandler := handlers.NewCourseHandler(courseService, logger)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService, logger)
	reviewHandler := handlers.NewReviewHandler(reviewService, logger)
	applicationHandler := handlers.NewApplicationHandler(applicationService, logger)

	// 4. Setup Router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	corsOptions := cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   config.Cfg.CORS.ExposedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
		Debug:            false,
	}
	corsHandler := cors.New(corsOptions)
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/courses", courseHandler.ListCourses)
		r.Get("/courses/{slug}", courseHandler.GetCourse)
		r.Get("/courses/{slug}/reviews", reviewHandler.ListReviews)

		// --- Authenticated routes (JWT) ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuthMiddleware(&config.Cfg))

			r.Get("/users/me", profileHandler.GetMe)
			r.Get("/users/me/enrollments", enrollmentHandler.ListMyEnrollments)

			r.Route("/courses/{slug}", func(r chi.Router) {
				r.Post("/enroll", enrollmentHandler.Enroll)
				r.Delete("/enroll", enrollmentHandler.Unenroll)
				r.Post("/lessons/{lesson_id}/complete", enrollmentHandler.CompleteLesson)
				r.Post("/reviews", reviewHandler.PostReview)
				r.Put("/reviews/{review_id}", reviewHandler.PutReview)
				r.Delete("/reviews/{review_id}", reviewHandler.DeleteReview)
			})

			r.Post("/instructor/applications", applicationHandler.Apply)

			// --- Instructor routes (admin も通す) ---
			r.Route("/instructor/courses", func(r chi.Router) {
				r.Use(middleware.RequireRole(db, profileRepo, model.RoleInstructor))

				r.Post("/", courseHandler.PostCourse)
				r.Get("/", courseHandler.ListOwnCourses)
				r.Put("/{slug}/publish", courseHandler.PublishCourse)
				r.Post("/{slug}/lessons", courseHandler.PostLesson)
			})

			// --- Admin routes ---
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(db, profileRepo, model.RoleAdmin))

				r.Get("/instructor-applications", applicationHandler.ListApplications)
				r.Patch("/instructor-applications/{application_id}", applicationHandler.PatchApplication)
				r.Get("/profiles", profileHandler.ListProfiles)
			})
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := sqlDB.PingContext(ctx); err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// 5. Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
