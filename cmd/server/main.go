package main

import (
	"log"
	"os"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"vibecheck/internal/handlers"
	"vibecheck/internal/live"
	"vibecheck/internal/middleware"
	"vibecheck/internal/services"
	"vibecheck/internal/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	st := openStore()

	// Live view hub
	hub := live.NewHub()
	go hub.Run()

	views := services.NewViews(st)
	refresher := services.NewRefresher(views, hub.Publish)
	ledger := services.NewLedger(st, func() {
		views.Invalidate()
		refresher.ScheduleAll()
	})

	handlers.InitGoogleOAuth()

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}
	sessionStore := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("vibecheck_session", sessionStore))

	// Middleware
	r.Use(middleware.LoadUser(st))

	// Handlers
	authHandler := handlers.NewAuthHandler(st)
	submissionHandler := handlers.NewSubmissionHandler(ledger)
	voteHandler := handlers.NewVoteHandler(ledger)
	viewsHandler := handlers.NewViewsHandler(views)
	liveHandler := handlers.NewLiveHandler(hub, views)

	// Public Routes
	r.GET("/gallery", viewsHandler.Gallery)
	r.GET("/leaderboard", viewsHandler.Leaderboard)
	r.GET("/live/gallery", liveHandler.Gallery)
	r.GET("/live/leaderboard", liveHandler.Leaderboard)

	r.POST("/signup", authHandler.Signup)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)
	r.GET("/auth/google", authHandler.GoogleLogin)
	r.GET("/auth/google/callback", authHandler.GoogleCallback)

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/me", submissionHandler.Me)
		authorized.POST("/submissions", submissionHandler.Submit)
		authorized.POST("/vote/:id", voteHandler.Vote)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("vibecheck server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

// openStore picks the backend: Postgres by default, the in-memory store
// with STORE=memory for local hacking.
func openStore() store.Store {
	if os.Getenv("STORE") == "memory" {
		log.Println("Using in-memory store; data will not survive a restart")
		return store.NewMemoryStore()
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=vibecheck port=5432 sslmode=disable"
	}
	st, err := store.NewPostgresStore(dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Database connection established")
	return st
}
