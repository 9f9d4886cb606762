package main

import (
	"flag"
	"log"

	"cinebook/internal/validation"
)

func main() {
	var baseURL string
	flag.StringVar(&baseURL, "url", "http://localhost:8081", "Base URL for API validation")
	flag.Parse()

	log.Printf("Starting API validation against: %s", baseURL)

	validator := validation.NewAPIValidator(baseURL)
	if err := validator.ValidateAll(); err != nil {
		log.Fatalf("validation failed: %v", err)
	}

	log.Println("validation passed")
}
