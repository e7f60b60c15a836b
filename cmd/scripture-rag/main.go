package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	rag "github.com/themonkai/scripture-rag"
	"github.com/themonkai/scripture-rag/common/logger"
	"github.com/themonkai/scripture-rag/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger.SetLevel(logger.ParseLevel(*logLevel))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	srv, client, err := rag.NewServer("scripture-rag", cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start server failed: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	logger.Infof("scripture-rag %s serving on stdio", rag.Version)
	if err := server.ServeStdio(srv); err != nil {
		fmt.Fprintf(os.Stderr, "serve failed: %v\n", err)
		os.Exit(1)
	}
}
