// Package main provides a minimal healthcheck binary for container probes.
// It performs a GET against the registry server's healthcheck endpoint and
// exits 0 on a 2xx response, 1 otherwise.
//
// Usage: healthcheck [url]
// The URL defaults to http://localhost:8080/healthcheck and can also be set
// via REGISTRY_HEALTH_URL.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

const defaultURL = "http://localhost:8080/healthcheck"

func main() {
	url := defaultURL
	if v := os.Getenv("REGISTRY_HEALTH_URL"); v != "" {
		url = v
	}
	if len(os.Args) > 1 {
		url = os.Args[1]
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		os.Exit(0)
	}

	fmt.Fprintf(os.Stderr, "healthcheck failed: status %d\n", resp.StatusCode)
	os.Exit(1)
}
