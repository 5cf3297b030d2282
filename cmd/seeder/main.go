//cmd/seeder/main.go
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/unclebandit/campaign-engine/internal/db"
)

// Applies the schema (and any extra SQL files passed as arguments) to the
// configured Postgres database.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	conn, err := db.Open()
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	files := []string{"schema.sql"}
	if len(os.Args) > 1 {
		files = append(files, os.Args[1:]...)
	}

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("failed to read %s: %v", file, err)
		}

		if _, err := conn.Exec(string(content)); err != nil {
			log.Fatalf("failed to execute %s: %v", file, err)
		}
		fmt.Printf("Applied: %s\n", file)
	}

	fmt.Println("Database setup completed successfully!")
}
