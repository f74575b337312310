package main

import (
	"nexus-mods-notifier/cmd"
	"nexus-mods-notifier/logger"

	_ "go.uber.org/automaxprocs/maxprocs"
)

func main() {
	logger.InitLogger()
	defer logger.Sync() // Ensure logs are flushed on exit
	cmd.Execute()
}
