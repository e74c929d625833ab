package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"backend/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitDB() *gorm.DB {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, reading configuration from environment")
	}

	db, err := gorm.Open(postgres.Open(DatabaseDSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.WaterLedgerEntry{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	return db
}

// DatabaseDSN prefers DATABASE_URL and falls back to the discrete DB_* vars.
// Hosted platforms hand out postgres:// URLs, which the pgx-backed driver
// stack rejects; rewrite the scheme to postgresql://.
func DatabaseDSN() string {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		if strings.HasPrefix(u, "postgres://") {
			u = "postgresql://" + strings.TrimPrefix(u, "postgres://")
		}
		return u
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
}
