package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"authgate/internal/config"
	"authgate/internal/database"
	"authgate/internal/domain"
	"authgate/internal/middleware"
	"authgate/internal/modules/auth"
	"authgate/internal/pkg/token"
	"authgate/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	if err := db.AutoMigrate(&domain.User{}, &domain.Role{}, &domain.RefreshToken{}); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)

	codec := token.New(token.NewKeys(cfg.AccessSecret, cfg.RefreshSecret), cfg.AccessTTL, cfg.RefreshTTL)
	digester := token.NewDigester(cfg.DigestSecret)

	authenticator := auth.NewPasswordAuthenticator(userRepo)
	authService := auth.NewService(userRepo, roleRepo, refreshRepo, authenticator, codec, digester)
	authHandler := auth.NewHandler(authService, userRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Authenticate(codec))

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.RequireAuth())
		{
			authHandler.RegisterProtectedRoutes(protected)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AdminOnly())
		{
			authHandler.RegisterAdminRoutes(admin)
		}
	}

	log.Printf("listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}
