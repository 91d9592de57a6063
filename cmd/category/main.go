package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/sebez/jobboard/internal/category"
	"github.com/sebez/jobboard/internal/config"
	"github.com/sebez/jobboard/internal/database"
)

func main() {
	name := flag.String("name", "", "name of the category to create")
	list := flag.Bool("list", false, "list categories with their published job count")
	flag.Parse()
	if *name == "" && !*list {
		flag.Usage()
		return
	}

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading config from environment")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config %v", err)
	}
	conn, err := database.GetDbConn(
		cfg.DatabaseUser,
		cfg.DatabasePassword,
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)
	if err != nil {
		log.Fatalf("unable to connect to postgres: %v", err)
	}
	defer database.CloseDbConn(conn)

	ctx := context.Background()
	if err := database.Migrate(ctx, conn); err != nil {
		log.Fatalf("unable to apply schema: %v", err)
	}
	categoryRepo := category.NewRepository(conn)

	if *name != "" {
		c, err := categoryRepo.Create(ctx, *name)
		if err != nil {
			log.Fatalf("unable to create category %s: %v", *name, err)
		}
		log.Printf("created category %s (/category/%s/)\n", c.Name, c.Slug)
	}
	if *list {
		categories, err := categoryRepo.Categories(ctx, 0)
		if err != nil {
			log.Fatal(err)
		}
		for _, c := range categories {
			fmt.Printf("%d\t%s\t%s\t%d\n", c.ID, c.Slug, c.Name, c.JobCount)
		}
	}
}
