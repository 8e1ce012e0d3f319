// register-catalog registers the records the management system owns (smart
// proxy features, a smart proxy, template kinds, the quickstack puppet classes
// and their parameters) into a development database, so the seeder has
// something to resolve.
//
// Usage: go run ./scripts/register-catalog [-proxy-name NAME] [-proxy-url URL]
//
// Database connection: Uses standard PG* environment variables
//
// Flags:
//
//	-proxy-name  Name of the smart proxy offering every feature (default: local hostname)
//	-proxy-url   URL of that smart proxy (default: https://<proxy-name>:8443)
//	-no-proxy    Register features without any proxy offering them
//	-dry-run     Print the catalog without writing it
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/quickstack-seed/pkg/catalog"
)

func main() {
	hostname, _ := os.Hostname()
	proxyName := flag.String("proxy-name", hostname, "Name of the smart proxy offering every feature")
	proxyURL := flag.String("proxy-url", "", "URL of the smart proxy (default: https://<proxy-name>:8443)")
	noProxy := flag.Bool("no-proxy", false, "Register features without any proxy offering them")
	dryRun := flag.Bool("dry-run", false, "Print the catalog without writing it")
	flag.Parse()

	if *proxyURL == "" {
		*proxyURL = fmt.Sprintf("https://%s:8443", *proxyName)
	}

	c := catalog.Default(*proxyName, *proxyURL)
	if *noProxy {
		c.Proxies = nil
	}

	if *dryRun {
		fmt.Println("DRY RUN - no changes will be made")
		printCatalog(c)
		return
	}

	ctx := context.Background()

	conn, err := pgx.Connect(ctx, buildConnString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to begin transaction: %v\n", err)
		os.Exit(1)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	if err := catalog.Register(ctx, tx, c); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register catalog: %v\n", err)
		os.Exit(1)
	}
	if err := tx.Commit(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to commit: %v\n", err)
		os.Exit(1)
	}

	printCatalog(c)
}

func printCatalog(c catalog.Catalog) {
	fmt.Printf("Features:       %s\n", strings.Join(c.Features, ", "))
	for _, p := range c.Proxies {
		fmt.Printf("Smart proxy:    %s (%s)\n", p.Name, p.URL)
	}
	fmt.Printf("Template kinds: %s\n", strings.Join(c.TemplateKinds, ", "))
	fmt.Printf("Environments:   %s\n", strings.Join(c.Environments, ", "))
	for _, class := range c.Classes {
		fmt.Printf("Puppet class:   %s (%d parameters)\n", class.Name, len(class.Parameters))
	}
}

func buildConnString() string {
	host := getEnvOrDefault("PGHOST", "localhost")
	port := getEnvOrDefault("PGPORT", "5432")
	user := getEnvOrDefault("PGUSER", "foreman")
	password := os.Getenv("PGPASSWORD")
	dbname := getEnvOrDefault("PGDATABASE", "foreman")

	connStr := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		host, port, user, dbname)
	if password != "" {
		connStr += fmt.Sprintf(" password=%s", password)
	}
	return connStr
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
