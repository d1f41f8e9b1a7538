package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/matst80/slask-browse/pkg/browser"
	"github.com/matst80/slask-browse/pkg/config"
	"github.com/matst80/slask-browse/pkg/storage"
	"github.com/matst80/slask-browse/pkg/transport"
	"github.com/matst80/slask-browse/pkg/types"
)

var (
	apiUrl    = flag.String("api", "", "search api base url (defaults to SEARCH_API_URL)")
	queryText = flag.String("q", "", "free text query")
	order     = flag.String("order", "relevance", "result order")
	semantic  = flag.Bool("semantic", false, "use semantic search for text queries")
	timeout   = flag.Duration("timeout", 15*time.Second, "time to wait for results")
	dataDir   = flag.String("data", "", "persist filters under this directory")
	instance  = flag.String("instance", "cli", "instance id used for persisted state")
	limit     = flag.Int("limit", 20, "number of results to print, 0 prints all")
	filters   = filterFlags{}
)

func init() {
	flag.Var(&filters, "f", "facet filter as key=value, repeat or join values with ||")
}

func main() {
	flag.Parse()
	cfg := config.Load(os.Getenv)
	if *apiUrl != "" {
		cfg.SearchApiUrl = *apiUrl
	}
	orderKey, ok := types.ParseOrderKey(*order)
	if !ok {
		log.Fatalf("unknown order %q, expected one of %v", *order, types.OrderKeys())
	}

	var store types.KeyValueStore = storage.NewMemoryStore()
	if *dataDir != "" {
		store = storage.NewDiskStorage(*dataDir)
	}
	out := newPrinter(os.Stdout, *limit)
	b := browser.New(browser.Options{
		InstanceId: *instance,
		Transport:  transport.NewHttpTransport(cfg.SearchApiUrl),
		Store:      store,
		Renderer:   out,
		Locale:     cfg.Locale,
		Config:     cfg.Dispatch,
	})
	defer b.Close()

	if err := filters.apply(b); err != nil {
		log.Fatal(err)
	}
	b.SetSemantic(*semantic)
	b.SetOrder(orderKey)
	b.SetQuery(*queryText)
	b.Refresh()

	select {
	case err := <-out.done:
		if err != nil {
			fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
			os.Exit(1)
		}
	case <-time.After(*timeout):
		fmt.Fprintln(os.Stderr, "no results before timeout")
		os.Exit(1)
	}
}
