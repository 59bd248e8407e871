package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/embrace-blog/embrace/internal/auth"
	"github.com/embrace-blog/embrace/internal/config"
	"github.com/embrace-blog/embrace/internal/db"
	"github.com/embrace-blog/embrace/internal/handler"
	"github.com/embrace-blog/embrace/internal/logger"
	"github.com/embrace-blog/embrace/internal/media"
	"github.com/embrace-blog/embrace/internal/post"
	"github.com/embrace-blog/embrace/internal/repository"
	"github.com/embrace-blog/embrace/internal/routes"
	"github.com/embrace-blog/embrace/internal/sse"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file")
	}

	// Bootstrap logger so config loading has somewhere to complain.
	l := logger.New("info")
	config.SetLogger(l)

	configPath := os.Getenv("EMBRACE_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	if err := config.LoadConfig(configPath); err != nil {
		l.Fatal().Err(err).Msg("Error loading config")
	}
	cfg := config.AppConfig

	l = logger.New(cfg.Logging.Level)
	config.SetLogger(l)
	db.SetLogger(l)
	repository.SetLogger(l)
	media.SetLogger(l)
	auth.SetLogger(l)
	post.SetLogger(l)
	handler.SetLogger(l)

	database := db.NewSQLite(cfg.Storage.DBPath)
	if err := database.InitDB(); err != nil {
		l.Fatal().Err(err).Msgf(config.ErrInitializeDatabaseFmt, err)
	}
	defer database.Close()

	store := media.NewS3Store(
		os.Getenv("S3_ACCESS_KEY_ID"),
		os.Getenv("S3_ACCESS_KEY_SECRET"),
		cfg.Storage.Endpoint,
		cfg.Storage.Bucket,
		cfg.Media.MaxUploadBytes,
		time.Duration(cfg.Media.PreviewURLTTLSeconds)*time.Second,
	)

	repo := repository.NewDBPostRepository(database)
	events := sse.NewClients()

	ctrl := post.NewController(repo, store, events,
		cfg.Content.MaxTitleLength,
		time.Duration(cfg.Timeouts.SubCallSeconds)*time.Second,
	)

	authProvider := auth.NewClerkAuthProvider(os.Getenv("CLERK_API"))

	h := handler.New(ctrl, repo, store, authProvider, events)

	mux := http.NewServeMux()

	mux.HandleFunc(routes.RobotsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User-agent: *\nDisallow:"))
	})

	mux.HandleFunc(routes.SSEPath, h.ServeEvents)

	mux.HandleFunc("GET "+routes.PostBySlug, h.ServePostBySlug)
	mux.HandleFunc("GET "+routes.PostsByList, h.ServePostList)
	mux.HandleFunc("GET "+routes.MediaPreview, h.ServeMediaPreview)

	mux.HandleFunc(routes.APIPostNew, h.ServeCreatePost)
	mux.HandleFunc(routes.APIPosts, h.ServePost)

	securedMux := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == routes.RobotsPath { // Ignore robots.txt
			mux.ServeHTTP(w, r)
		} else {
			secureHeaders(mux.ServeHTTP)(w, r)
		}
	})

	srvHandler := authProvider.WithHeaderAuthorization()(securedMux)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	l.Info().Str("addr", addr).Msg("Server listening")
	log.Fatal(http.ListenAndServe(addr, srvHandler))
}

func secureHeaders(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		h(w, r)
	}
}
