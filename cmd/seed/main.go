package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"ai-dataviz-be/internal/model"
	"ai-dataviz-be/pkg/database"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// Seeds a user with a starting balance and prints a development token for it.
func main() {
	email := flag.String("email", "demo@example.com", "user email")
	name := flag.String("name", "Demo User", "user full name")
	credits := flag.Int("credits", 20, "starting credits")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	var user model.User
	err = db.Where("email = ?", *email).First(&user).Error
	switch {
	case err == nil:
		log.Printf("User '%s' already exists, skipping...", *email)
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{
			Id:        uuid.New(),
			Email:     *email,
			FullName:  *name,
			Credits:   *credits,
			HasAccess: true,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("Error: Failed to seed user: %v", err)
		}
		log.Printf("✅ Seeded user '%s' with %d credits", user.Email, user.Credits)
	default:
		log.Fatalf("Error: Failed to look up user: %v", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Println("Info: JWT_SECRET not set, skipping token")
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.Id.String(),
		"email":   user.Email,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		log.Fatalf("Error: Failed to sign token: %v", err)
	}
	log.Printf("Token: %s", signed)
}
