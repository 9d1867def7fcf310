package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/yourorg/listing-api/internal/config"
	"github.com/yourorg/listing-api/internal/env"
	"github.com/yourorg/listing-api/internal/logger"
	"github.com/yourorg/listing-api/mls"
)

// mlsquery runs one search against the MLS API and prints the normalized page
// as JSON. Connection settings come from the same environment as the server.
func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "mlsquery: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	criteria   mls.SearchCriteria
	filterOnly bool
	listing    string
	envFile    string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var (
		o      options
		cities string
		types  string
	)
	fs := flag.NewFlagSet("mlsquery", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cities, "city", "", "comma separated city prefixes")
	fs.StringVar(&types, "type", "", "comma separated property types (detached, semi-detached, townhouse, condo)")
	fs.StringVar(&o.criteria.ListingType, "listing-type", "", "sale or lease")
	fs.StringVar(&o.criteria.PropertyClass, "class", "", "residential or commercial")
	fs.StringVar(&o.criteria.Status, "status", "", "active, pending, sold or all")
	fs.StringVar(&o.criteria.Keywords, "keywords", "", "substring of the public remarks")
	fs.Float64Var(&o.criteria.MinPrice, "min-price", 0, "minimum list price")
	fs.Float64Var(&o.criteria.MaxPrice, "max-price", 0, "maximum list price")
	fs.IntVar(&o.criteria.MinBeds, "beds", 0, "minimum bedrooms")
	fs.IntVar(&o.criteria.MinBaths, "baths", 0, "minimum bathrooms")
	fs.IntVar(&o.criteria.MinSqft, "min-sqft", 0, "minimum living area")
	fs.IntVar(&o.criteria.MaxSqft, "max-sqft", 0, "maximum living area")
	fs.IntVar(&o.criteria.MaxDaysOnMarket, "max-dom", 0, "maximum days on market")
	fs.IntVar(&o.criteria.Limit, "limit", 0, "page size (default 50)")
	fs.IntVar(&o.criteria.Offset, "offset", 0, "page offset")
	fs.BoolVar(&o.filterOnly, "filter", false, "print the $filter expression and exit without calling the API")
	fs.StringVar(&o.listing, "listing", "", "fetch a single listing by key instead of searching")
	fs.StringVar(&o.envFile, "env", ".env", "dotenv file to load before reading the environment")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.criteria.Cities = env.SplitList(cities)
	o.criteria.PropertyTypes = env.SplitList(types)
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.filterOnly {
		_, err := fmt.Fprintln(stdout, mls.BuildFilter(o.criteria))
		return err
	}

	cfg, err := config.Load(o.envFile)
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Writer: stderr, Level: cfg.Log.Level, Format: cfg.Log.Format, AddSource: cfg.Log.AddSource})
	retry := cfg.MLS.Retry()
	retry.Logger = log
	client := mls.NewClient(mls.Config{Token: cfg.MLS.Token, BaseURL: cfg.MLS.BaseURL, Retry: retry, Logger: log})
	if !client.Configured() {
		return mls.ErrNotConfigured
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	if o.listing != "" {
		rec := client.GetListing(ctx, o.listing)
		if rec == nil {
			return fmt.Errorf("listing %q not found", o.listing)
		}
		if len(rec.Media) == 0 {
			rec.Media = client.FetchMedia(ctx, []string{rec.ListingKey})[rec.ListingKey]
		}
		return enc.Encode(mls.Normalize(*rec))
	}

	res := client.Search(ctx, o.criteria)
	if !res.Success {
		return fmt.Errorf("search failed: %s", res.Error)
	}
	page := res.Normalize(client.FetchMedia(ctx, res.Keys()))
	log.Info("search complete", "returned", len(page.Listings), "total", page.Total)
	return enc.Encode(page)
}
