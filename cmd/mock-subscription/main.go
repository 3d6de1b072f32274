package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kx0101/subdiff/internal/fixtures"
	"github.com/kx0101/subdiff/internal/logging"
)

func main() {
	port := flag.Int("port", 8080, "Port to serve the mock subscriptions on")
	write := flag.String("write", "", "Write the mock subscriptions into this directory and exit")
	flag.Parse()

	if *write != "" {
		if err := fixtures.WriteDir(*write); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write fixtures: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Mock subscriptions written to %s\n", *write)
		return
	}

	handler, err := fixtures.Handler()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build fixtures: %v\n", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logging.L.Info("mock subscription server listening", zap.Int("port", *port))
	if err := server.ListenAndServe(); err != nil {
		logging.L.Fatal("mock subscription server stopped", zap.Error(err))
	}
}
