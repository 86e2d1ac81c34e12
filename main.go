package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lymbo_server/cache"
	"lymbo_server/config"
	"lymbo_server/routes"
	"lymbo_server/services"
	"lymbo_server/socket"

	socketio "github.com/googollee/go-socket.io"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Info().Msg("starting lymbo server")

	// Document store
	dynamoClient := services.InitializeDynamoDBClient(cfg.AWSRegion)
	dynamoService := &services.DynamoService{Client: dynamoClient}
	matchStore := services.NewDynamoMatchStore(dynamoService)

	// Realtime match events
	var notifier services.MatchNotifier
	var socketServer *socketio.Server
	if cfg.SocketEnabled {
		server := socket.NewSocketServer()
		notifier = socket.NewMatchNotifier(server)
		socketServer = server
	}

	matchService := services.NewMatchService(matchStore, notifier)

	// Photo delivery: S3 downloads behind the bounded image cache
	s3Service := services.NewS3Service(cfg.AWSRegion, cfg.S3Bucket)
	imageCache := cache.New(cfg.ImageCacheSize, s3Service.DownloadImage)

	r := mux.NewRouter()

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to Lymbo")
	}).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods("GET")

	routes.RegisterMatchRoutes(r, matchService)
	routes.RegisterPhotoRoutes(r, imageCache, s3Service)

	if socketServer != nil {
		go func() {
			if err := socketServer.Serve(); err != nil {
				log.Error().Err(err).Msg("socket server stopped")
			}
		}()
		defer socketServer.Close()
		r.Handle("/socket.io/", socketServer)
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: corsHandler,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
