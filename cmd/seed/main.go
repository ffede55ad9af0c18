package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ikkim/cosmetica-backend/config"
	"github.com/ikkim/cosmetica-backend/internal/app/repository"
	"github.com/ikkim/cosmetica-backend/internal/catalog"
	"github.com/ikkim/cosmetica-backend/internal/db"
)

func main() {
	assumeYes := flag.Bool("y", false, "import without asking for confirmation")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: go run ./cmd/seed [-y] [catalog.xlsx]")
		fmt.Fprintln(os.Stderr, "Without a file the built-in demo catalog is seeded.")
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if flag.NArg() == 0 {
		if err := db.Seed(db.GetDB()); err != nil {
			log.Fatal("Failed to seed demo catalog:", err)
		}
		fmt.Println("Demo catalog seeded.")
		return
	}

	filePath := flag.Arg(0)
	fmt.Printf("Reading XLSX file: %s\n", filePath)

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	parsed, err := catalog.Read(f)
	f.Close()
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	for _, skipped := range parsed.Skipped {
		fmt.Printf("  skipped %v\n", skipped)
	}
	fmt.Printf("Products to import: %d\n", len(parsed.Products))
	fmt.Printf("Courses to import: %d\n", len(parsed.Courses))

	if !*assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	result, err := catalog.Import(parsed,
		repository.NewProductRepository(db.GetDB()),
		repository.NewCourseRepository(db.GetDB()),
	)
	if err != nil {
		log.Fatal("Failed to import catalog:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Products: %d, courses: %d\n", result.Products, result.Courses)
}
