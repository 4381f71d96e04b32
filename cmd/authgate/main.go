package main

import (
	"fmt"
	"log"

	"github.com/patric-chuzhbe/authgate/internal/app"
)

func main() {
	if err := run(); err != nil {
		log.Fatalln(err)
	}
}

func run() error {
	application, err := app.New()
	if err != nil {
		return fmt.Errorf("application initialization error: %w", err)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		return fmt.Errorf("application run error: %w", err)
	}

	return nil
}
