package main

import (
	"fmt"
	"log"

	"github.com/aussiebroadwan/schoolauth/internal/auth/app"
	"github.com/common-nighthawk/go-figure"
)

func main() {
	cfg := app.LoadConfig()

	if cfg.Env == "dev" {
		displayAppname("school-auth")
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

func displayAppname(appname string) {
	banner := figure.NewFigure(appname, "cybermedium", true)
	banner.Print()
	fmt.Println()
}
