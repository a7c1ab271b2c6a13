package utils

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var envOnce sync.Once

func LoadEnv() {
	envOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("ℹ️  No .env file found, continuing...")
		}
	})
}

// Getenv returns the variable's value or a fallback when unset.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
