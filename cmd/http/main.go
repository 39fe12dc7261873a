package main

import (
	"io"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"

	"github.com/distsim-tools/commtrace/internal/events"
	"github.com/distsim-tools/commtrace/internal/server"
)

func main() {
	_ = os.Mkdir("log", 0777)
	logFile, err := os.OpenFile("log/run.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0777)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := logFile.Close(); err != nil {
			panic(err)
		}
	}()

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "commtrace",
		Level:  hclog.LevelFromString("DEBUG"),
		Output: io.MultiWriter(os.Stdout, logFile),
	})

	port := 8080
	if len(os.Args) == 2 {
		port, err = strconv.Atoi(os.Args[1])
		if err != nil {
			logger.Error("Invalid port argument", "error", err)
			return
		}
	}

	eventBus := events.NewEventBus()
	handler := server.NewHandler(logger, eventBus)

	defaultRouter := mux.NewRouter()
	handler.RegisterRoutes(defaultRouter)

	server.StartHttpServer(logger, defaultRouter, port)
}
