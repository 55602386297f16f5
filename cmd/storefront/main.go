package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"commerce-storefront/internal/app"
	"commerce-storefront/internal/config"
	"commerce-storefront/internal/telemetry"
)

var errEphemeralStorage = errors.New("memory storage does not outlive a single command; set STORAGE_BACKEND=redis or postgres, or pass -ephemeral")

func main() {
	ephemeral := flag.Bool("ephemeral", false, "keep session and cart in memory for this one command")
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	_, explicit := os.LookupEnv("STORAGE_BACKEND")
	if err := resolveStorage(&cfg, explicit, *ephemeral); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(2)
	}
	logger := log.New(os.Stderr, "[storefront] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if os.Getenv("STOREFRONT_DEBUG") == "" {
		logger.SetOutput(io.Discard)
	}

	ctx := context.Background()
	shutdownTracing := telemetry.Setup("storefront", logger)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	if err := a.Restore(ctx); err != nil {
		logger.Printf("restore: %v", err)
	}

	err = cmd.run(ctx, a, args[1:])
	a.Close()
	if serr := shutdownTracing(ctx); serr != nil {
		logger.Printf("tracing shutdown: %v", serr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}

// resolveStorage picks the backend for one CLI invocation. Every command runs
// in its own process, so the session written by login has to live in redis
// or postgres to be seen by the next command. Redis is used when
// STORAGE_BACKEND is unset.
func resolveStorage(cfg *config.Config, explicit, ephemeral bool) error {
	switch {
	case ephemeral:
		cfg.StorageBackend = config.StorageMemory
	case !explicit:
		cfg.StorageBackend = config.StorageRedis
	case cfg.StorageBackend == config.StorageMemory:
		return errEphemeralStorage
	}
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: storefront [-ephemeral] <command> [flags]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Session and cart persist between commands in STORAGE_BACKEND (redis by")
	fmt.Fprintln(os.Stderr, "default, or postgres). -ephemeral keeps them in memory, so a login is")
	fmt.Fprintln(os.Stderr, "forgotten when the command exits.")
	fmt.Fprintln(os.Stderr)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-16s %s\n", name, commands[name].summary)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
