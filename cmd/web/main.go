package main

import (
	"drawroom/internal/server"
	"log"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	if err := server.Run(); err != nil {
		log.Fatal(err.Error())
	}
}
