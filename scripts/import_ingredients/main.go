package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/database"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
)

// Loads a JSON array of {"name", "measurement_unit"} objects into the
// ingredients table. Rows that already exist are skipped.
func main() {
	path := flag.String("file", "data/ingredients.json", "Path to the ingredients JSON file")
	flag.Parse()

	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	db, err := database.InitDatabase(database.FromAppConfig(conf))
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	file, err := os.Open(*path)
	if err != nil {
		log.Fatal("Failed to open ingredients file:", err)
	}
	defer file.Close()

	created, err := services.NewIngredientService(db).ImportIngredients(context.Background(), file)
	if err != nil {
		log.Fatal("Failed to import ingredients:", err)
	}
	fmt.Printf("✓ Imported %d new ingredients from %s\n", created, *path)
}
