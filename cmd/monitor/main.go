package main

import (
	"flag"
	"log"

	"github.com/HugooB/airquality-home/internal/app"
	"github.com/HugooB/airquality-home/internal/config"
)

func main() {
	configPath := flag.String("config", "./airquality_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting airquality-home monitor (Enviro+ → time-series sink)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunMonitor(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
