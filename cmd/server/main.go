package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/xswkr/chartpattern-backend/internal/auth"
	"github.com/xswkr/chartpattern-backend/internal/config"
	"github.com/xswkr/chartpattern-backend/internal/database"
	"github.com/xswkr/chartpattern-backend/internal/handlers"
	"github.com/xswkr/chartpattern-backend/internal/middleware"
	"github.com/xswkr/chartpattern-backend/internal/oauth"
	"github.com/xswkr/chartpattern-backend/internal/routes"
	"github.com/xswkr/chartpattern-backend/internal/services"
	"github.com/xswkr/chartpattern-backend/internal/store"
	"github.com/xswkr/chartpattern-backend/pkg/utils"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Connect to PostgreSQL
	log.Printf("Connecting to PostgreSQL...")
	db, err := database.ConnectPostgres(cfg.PostgresURI)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer db.Close()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	rdb, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Connect to MongoDB
	log.Printf("Connecting to MongoDB...")
	mongoClient, mongoDB, err := database.ConnectMongo(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(context.Background())

	// Stores
	users := store.NewUserStore(db)
	records := store.NewAnalysisStore(db)
	sessions := store.NewSessionStore(rdb)
	chats := store.NewChatStore(mongoDB)
	if err := chats.EnsureIndexes(context.Background()); err != nil {
		log.Printf("Warning: failed to ensure MongoDB chat indexes: %v", err)
	}

	// Core services
	creds := auth.NewCredentials(users, utils.DefaultArgon2Params)
	identity := auth.NewIdentity(users)
	sessionMgr := auth.NewSessions(sessions)
	access := auth.NewAccess(records)

	providers := oauth.NewRegistry(cfg.Host,
		oauth.Credentials{ClientID: cfg.GoogleClientID, ClientSecret: cfg.GoogleClientSecret},
		oauth.Credentials{ClientID: cfg.KakaoClientID, ClientSecret: cfg.KakaoClientSecret},
		oauth.Credentials{ClientID: cfg.NaverClientID, ClientSecret: cfg.NaverClientSecret},
	)
	states := oauth.NewStateStore(rdb)

	// Cloudinary is optional; without it uploads return 503
	var cloudinarySvc *services.CloudinaryService
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cloudinarySvc, err = services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: failed to initialize Cloudinary: %v", err)
			cloudinarySvc = nil
		} else {
			log.Println("Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. File uploads will not be available")
	}

	vision := services.NewVisionService(cfg.VisionAPIKey, cfg.VisionModel)
	if cfg.VisionAPIKey == "" {
		log.Println("Warning: vision API key not set. Chart analysis will not be available")
	}

	// Setup router
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Session(sessionMgr))
	r.Use(middleware.RateLimit(rdb))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
	}

	routes.SetupRoutes(r, routes.Handlers{
		Auth:    handlers.NewAuthHandler(creds, sessionMgr, users),
		OAuth:   handlers.NewOAuthHandler(providers, states, identity, sessionMgr, cfg.FrontendURL),
		Chart:   handlers.NewChartHandler(access, cfg.FrontendURL),
		Analyze: handlers.NewAnalyzeHandler(cloudinarySvc, vision),
		Chat:    handlers.NewChatHandler(access, chats, vision),
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Server failed:", err)
	}
}
