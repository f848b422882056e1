// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/suspension_tester/internal/app"
	"github.com/relabs-tech/suspension_tester/internal/config"
)

func main() {
	configPath := flag.String("config", "./suspension_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting suspension-tester simulator service")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunSimulator(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
