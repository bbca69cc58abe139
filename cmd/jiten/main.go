package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/mkobayashi/jiten/app/config"
	"github.com/mkobayashi/jiten/app/deinflect"
	"github.com/mkobayashi/jiten/app/dictdb"
	"github.com/mkobayashi/jiten/app/lookup"
	"github.com/mkobayashi/jiten/app/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "import":
		runImport()
	case "server":
		runServer()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: jiten <command> [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  import        Import dictionary bundle directories into the data directory")
	fmt.Fprintln(os.Stderr, "  server        Start the jiten server")
}

func runImport() {
	flags := pflag.NewFlagSet("import", pflag.ExitOnError)
	var dataDir string
	flags.StringVarP(&dataDir, "data-dir", "d", "",
		"data directory holding config.json, jiten.db and gloss.bleve")

	flags.Parse(os.Args[2:])

	bundles := flags.Args()
	if dataDir == "" || len(bundles) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: jiten import --data-dir <dir> <bundle-dir>...")
		os.Exit(1)
	}

	stores, err := config.OpenStores(dataDir)
	if err != nil {
		slog.Error("error while opening stores", "err", err)
		os.Exit(1)
	}
	defer stores.Close()

	importer := dictdb.NewImporter(stores.Store, stores.Gloss)
	ctx := context.Background()
	for _, dir := range bundles {
		stats, err := importer.ImportBundle(ctx, dir)
		if err != nil {
			slog.Error("error while importing bundle", "dir", dir, "err", err)
			os.Exit(1)
		}
		slog.Info("imported bundle", "dir", dir,
			"terms", stats.Terms, "term_meta", stats.TermMeta,
			"kanji", stats.Kanji, "kanji_meta", stats.KanjiMeta,
			"tags", stats.Tags, "rejected", stats.Rejected)
	}
	fmt.Println("Remember to list newly imported dictionaries in config.json to enable them.")
}

func runServer() {
	flags := pflag.NewFlagSet("server", pflag.ExitOnError)
	var serverConf config.ServerRuntimeConfig
	var dataDir string
	flags.StringVarP(&serverConf.Addr, "address", "a", "localhost", "Server address to bind")
	flags.IntVarP(&serverConf.Port, "port", "p", 8080, "Server port to bind")
	flags.StringVarP(&dataDir, "data-dir", "d", "",
		"data directory to read config.json, jiten.db and gloss.bleve")
	flags.StringVar(&serverConf.CertDir, "cert-dir", "", "directory holding TLS certificates")
	flags.BoolVar(&serverConf.AcmeEnabled, "acme", false, "obtain TLS certificates via ACME")
	flags.BoolVar(&serverConf.BehindLoadBalancer, "behind-load-balancer", false,
		"trust X-Forwarded-For when identifying clients")
	flags.IntVar(&serverConf.RateLimit, "rate-limit", 0, "requests per second per client, 0 disables")
	flags.IntVar(&serverConf.GzipLevel, "gzip-level", 0, "gzip compression level, 0 disables")

	flags.Parse(os.Args[2:])

	if dataDir == "" {
		slog.Error("--data-dir not provided, stopping")
		os.Exit(1)
	}

	conf, err := config.Load(dataDir)
	if err != nil {
		slog.Error("error while reading config.json", "err", err)
		os.Exit(1)
	}

	stores, err := config.OpenStores(dataDir)
	if err != nil {
		slog.Error("error while opening stores", "err", err)
		os.Exit(1)
	}
	defer stores.Close()

	deinflector, err := deinflect.NewJapaneseDeinflector()
	if err != nil {
		slog.Error("error while loading deinflection rules", "err", err)
		os.Exit(1)
	}

	translator := lookup.NewTranslator(stores.Store, deinflector)
	controller := server.NewJitenController(translator, stores, conf)

	fmt.Printf("Starting server on %s:%d\n", serverConf.Addr, serverConf.Port)
	server.StartServer(controller, conf, serverConf)
}
