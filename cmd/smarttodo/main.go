package main

import (
	"os"

	"github.com/isdelr/smarttodo-be/internal/cli"
	"github.com/isdelr/smarttodo-be/internal/logger"
)

var version = "dev"

func main() {
	level := os.Getenv("SMARTTODO_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger.Init(level, "development")
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
