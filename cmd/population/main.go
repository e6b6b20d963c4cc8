// Command population prints the absolute population of one region, or ""
// when the region is not listed.
//
// Usage:
//
//	go run ./cmd/population "South Korea"
package main

import (
	"fmt"
	"log/slog"
	"os"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/reverse-r-etl/internal/adapter/population"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: population <region>")
		os.Exit(2)
	}

	path := sharedcfg.EnvOrDefault("POPULATION_FILE", "country-populations.csv")
	table, err := population.LoadFile(path)
	if err != nil {
		logger.Error("load population file failed", "path", path, "error", err)
		os.Exit(1)
	}
	fmt.Println(table.Format(os.Args[1]))
}
