// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ttbt-io/wicketkeeper/backend"
)

var (
	addr           = flag.String("addr", ":8080", "The TCP address to listen to")
	useMockAuth    = flag.Bool("use-mock-auth", false, "Use Mock Authentication. For testing purposes only.")
	debugMode      = flag.Bool("debug", false, "Enable debug mode")
	dataDir        = flag.String("data-dir", "data", "Directory for match data")
	storeKind      = flag.String("store", "files", "Match store: files (encrypted data files) or sqlite")
	tlsCert        = flag.String("tls-cert", "", "Path to HTTP TLS certificate")
	tlsKey         = flag.String("tls-key", "", "Path to HTTP TLS key")
	authCookieName = flag.String("auth-cookie-name", "wicketkeeper_auth", "Name of the cookie containing the SSO JWT")
	authJWKSURL    = flag.String("auth-jwks-url", "", "URL of the JWKS endpoint used to verify SSO tokens")
	tokenTTL       = flag.Duration("token-ttl", 7*24*time.Hour, "Lifetime of scorer tokens")
	envFile        = flag.String("env-file", ".env", "Optional file with WK_MASTER_KEY and WK_TOKEN_SECRET")
)

// main starts the web server and registers the API handlers.
func main() {
	flag.Parse()

	// Variables already set in the environment take precedence.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading %s: %v", *envFile, err)
	}

	var cert *tls.Certificate
	if *tlsCert != "" && *tlsKey != "" {
		c, err := tls.LoadX509KeyPair(*tlsCert, *tlsKey)
		if err != nil {
			log.Fatalf("Failed to load TLS cert/key: %v", err)
		}
		cert = &c
	}

	opts := backend.Options{
		Addr:           *addr,
		Cert:           cert,
		DataDir:        *dataDir,
		UseMockAuth:    *useMockAuth,
		Debug:          *debugMode,
		AuthCookieName: *authCookieName,
		AuthJWKSURL:    *authJWKSURL,
		TokenSecret:    []byte(os.Getenv("WK_TOKEN_SECRET")),
		TokenTTL:       *tokenTTL,
	}

	switch *storeKind {
	case "files":
		store, err := backend.OpenStorage(*dataDir, os.Getenv("WK_MASTER_KEY"), true)
		if err != nil {
			log.Fatalf("Failed to open storage: %v", err)
		}
		opts.Storage = store
	case "sqlite":
		sqlStore, err := backend.OpenSQLStore(filepath.Join(*dataDir, "matches.db"))
		if err != nil {
			log.Fatalf("Failed to open sqlite store: %v", err)
		}
		defer sqlStore.Close()
		opts.Repo = sqlStore
	default:
		log.Fatalf("Unknown --store %q", *storeKind)
	}

	server, err := backend.StartServer(opts)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	} else {
		log.Println("Gracefully stopped.")
	}
}
