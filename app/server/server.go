package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"docchat/app/api"
	"docchat/indexer"
	"docchat/lead"
	"docchat/model"
	"docchat/store"
	"docchat/upload"

	"github.com/gofiber/fiber/v2"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
	// Matches the recommended 1 MiB base64 chunk size with headroom.
	BodyLimit: 50 * 1024 * 1024,
}

type Server struct {
	listenAddr string
	logger     *slog.Logger
	pool       *store.PostgresStore
	indexer    *indexer.Indexer
}

func NewServer(addr string) *Server {
	return &Server{
		listenAddr: addr,
		logger:     slog.Default(),
	}
}

func (s *Server) Stop() {
	if s.indexer != nil {
		s.indexer.Release()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()
	port, _ := strconv.Atoi(os.Getenv("PG_PORT"))
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))

	dimension := envInt("EMBEDDING_DIM", 384)
	pool, err := store.NewPostgresStore(ctx, connStr, dimension)
	if err != nil {
		log.Fatal("error connecting to Postgres database: ", err)
		return
	}
	s.pool = pool

	if err := pool.Init(ctx); err != nil {
		log.Fatal("error creating tables: ", err)
		return
	}

	embedder, err := model.SharedEmbedder()
	if err != nil {
		log.Fatal("error initializing embedder: ", err)
		return
	}

	completer, err := model.NewCompleter()
	if err != nil {
		log.Fatal("error initializing completion client: ", err)
		return
	}

	ix, err := indexer.New(embedder, pool, indexer.Config{
		SegmentWidth: envInt("CHUNK_SIZE", indexer.DefaultSegmentWidth),
		Workers:      envInt("INDEX_WORKERS", 0),
	})
	if err != nil {
		log.Fatal("error initializing indexer: ", err)
		return
	}
	s.indexer = ix

	var (
		app           = fiber.New(config)
		assembler     = upload.New()
		extractor     = lead.NewExtractor(completer)
		forwarder     = lead.NewForwarder(lead.NewSalesforceClient())
		checkHandler  = api.NewCheckHandler()
		uploadHandler = api.NewUploadHandler(assembler, ix, extractor, forwarder)
		statusHandler = api.NewStatusHandler(pool, dimension)
		chatHandler   = api.NewChatHandler(embedder, pool, completer, envInt("TOP_K", 5))
		check         = app.Group("/check")
		apiv1         = app.Group("/api/v1")
	)

	check.Get("/healthy", checkHandler.HandleHealthy)
	apiv1.Post("/upload", uploadHandler.HandleUpload)
	apiv1.Post("/status", statusHandler.HandleStatus)
	apiv1.Post("/chat", chatHandler.HandleChat)

	if err := app.Listen(s.listenAddr); err != nil {
		s.logger.Error("error starting server", "error", err.Error())
		return
	}
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
