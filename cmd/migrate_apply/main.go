package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/chancov/WebAppMiningGameTG/internal/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	apply := flag.Bool("apply", false, "apply migrations")
	flag.Parse()

	if !*apply {
		names, err := migrations.Names()
		if err != nil {
			log.Fatalf("list migrations: %v", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	err = migrations.Apply(context.Background(), db, func(name string) {
		fmt.Printf("applied %s\n", name)
	})
	if err != nil {
		log.Fatal(err)
	}
}
