package main

import (
	"context"
	"errors"
	"log"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"authgate/internal/config"
	"authgate/internal/database"
	"authgate/internal/domain"
	"authgate/internal/repository"
)

// Seeds the default roles and users. Safe to run repeatedly: existing rows
// are left untouched.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(&domain.User{}, &domain.Role{}, &domain.RefreshToken{}); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	ctx := context.Background()
	roleRepo := repository.NewRoleRepository(db)
	userRepo := repository.NewUserRepository(db)

	roleAdmin, err := roleRepo.GetOrCreate(ctx, "ROLE_ADMIN")
	if err != nil {
		log.Fatal(err)
	}
	roleUser, err := roleRepo.GetOrCreate(ctx, "ROLE_USER")
	if err != nil {
		log.Fatal(err)
	}

	seedUser(ctx, userRepo, "Alexander", "Alexandrov", "alex@mail.ru", "alex", "admin", *roleAdmin, *roleUser)
	seedUser(ctx, userRepo, "Marina", "Marinina", "marina@mail.ru", "marina", "user", *roleUser)

	log.Println("seed completed")
}

// seedUser creates a development bootstrap user, skipping existing ones.
func seedUser(ctx context.Context, users *repository.UserRepository, firstName, lastName, email, username, password string, roles ...domain.Role) {
	_, err := users.GetByUsername(ctx, username)
	if err == nil {
		log.Printf("user %q already exists, skipping", username)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}

	user := &domain.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Roles:        roles,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatal(err)
	}
	log.Printf("user %q created", username)
}
