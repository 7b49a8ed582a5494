package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/mind-engage/quizsync/internal/api/http"
	"github.com/mind-engage/quizsync/internal/auth"
	"github.com/mind-engage/quizsync/internal/catalog"
	"github.com/mind-engage/quizsync/internal/config"
	"github.com/mind-engage/quizsync/internal/db"
	"github.com/mind-engage/quizsync/internal/quiz"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	logger, err := buildLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := quiz.NewSQLStore(dbh, cfg.DBDriver)

	var src quiz.CatalogSource
	if cfg.CatalogBaseURL != "" {
		src = catalog.New(catalog.Config{BaseURL: cfg.CatalogBaseURL})
	}
	svc := quiz.NewService(store, src, logger, quiz.WithQuestionBase(cfg.QuestionBase))

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Get("/lectures/{lectureID}/sync", api.SyncLectureHandler(svc))
		pr.Post("/lectures/{lectureID}/sync", api.SyncLectureHandler(svc))
		pr.Get("/lectures/{lectureID}/allocations", api.ListAllocationsHandler(svc))

		pr.Get("/grades", api.OwnGradesHandler(svc))
		pr.Post("/grades/table", api.GradeTableHandler(svc))
	})

	logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("http server: %v", err)
	}
}

func buildLogger(mode string) (*zap.Logger, error) {
	if mode == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
