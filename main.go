package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"osumap/catalog"
	"osumap/dotosu"
	"osumap/logging"
)

var (
	app       = kingpin.New("osumap", "Decode, index and fetch osu! .osu beatmaps.")
	logLevel  = app.Flag("log-level", "Log level (debug, info, warn, error)").Default("info").Envar("OSUMAP_LOG_LEVEL").String()
	logFormat = app.Flag("log-format", "Log format").Default("auto").Envar("OSUMAP_LOG_FORMAT").Enum("auto", "text", "json")
	warnings  = app.Flag("warnings", "Log non-fatal decoder diagnostics").Bool()
	workers   = app.Flag("workers", "Files decoded in parallel").Default(strconv.Itoa(runtime.NumCPU())).Envar("OSUMAP_WORKERS").Int()
	strict    = app.Flag("strict", "Treat maps without title or artist, or with inconsistent counts, as failures").Bool()

	decodeCmd   = app.Command("decode", "Decode .osu files, .osz archives or directories and print a summary.")
	decodeJSON  = decodeCmd.Flag("json", "Print JSON").Bool()
	decodeRate  = decodeCmd.Flag("rate", "Playback rate for derived constants").Default("1.0").Short('r').Float64()
	decodeHR    = decodeCmd.Flag("hardrock", "Apply Hard Rock to derived constants").Bool()
	decodeEZ    = decodeCmd.Flag("easy", "Apply Easy to derived constants").Bool()
	decodePaths = decodeCmd.Arg("path", "Files or directories").Required().Strings()

	indexCmd   = app.Command("index", "Decode maps and store them in a catalog.")
	indexDB    = indexCmd.Flag("db", "Catalog database file").Required().String()
	indexPaths = indexCmd.Arg("path", "Files or directories").Required().Strings()

	listCmd        = app.Command("list", "List maps in a catalog, newest first.")
	listDB         = listCmd.Flag("db", "Catalog database file").Required().String()
	listMode       = listCmd.Flag("mode", "Game mode").Enum("osu", "taiko", "fruits", "mania")
	listCreator    = listCmd.Flag("creator", "Mapper name").String()
	listMinObjects = listCmd.Flag("min-objects", "Minimum hit object count").Int()
	listLimit      = listCmd.Flag("limit", "Maximum rows").Uint64()
	listFailures   = listCmd.Flag("failures", "List files that failed to decode instead").Bool()

	fetchCmd = app.Command("fetch", "Download .osu files by beatmap id.")
	fetchOut = fetchCmd.Flag("out", "Output directory").Default(".").Short('o').String()
	fetchIDs = fetchCmd.Arg("id", "Beatmap ids").Required().Ints()
)

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))
	if err := logging.Setup(os.Stderr, *logLevel, *logFormat); err != nil {
		app.Fatalf("%s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch cmd {
	case decodeCmd.FullCommand():
		err = runDecode()
	case indexCmd.FullCommand():
		err = runIndex(ctx)
	case listCmd.FullCommand():
		err = runList(ctx)
	case fetchCmd.FullCommand():
		err = runFetch(ctx)
	}
	if err != nil {
		logging.Error(cmd+" failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func decoderWarner() dotosu.Warner {
	if *warnings {
		return logging.Logger()
	}
	return nil
}

func runDecode() error {
	srcs, err := CollectSources(*decodePaths)
	if err != nil {
		return err
	}
	ok, err := Split(DecodeAll(srcs, *workers, decoderWarner(), *strict))

	mods := Modifiers{Rate: *decodeRate, Hardrock: *decodeHR, Easy: *decodeEZ}
	sums := make([]Summary, 0, len(ok))
	for _, d := range ok {
		sums = append(sums, NewSummary(d, mods))
	}
	if werr := WriteSummaries(os.Stdout, sums, *decodeJSON); werr != nil {
		return werr
	}
	return err
}

func runIndex(ctx context.Context) error {
	srcs, err := CollectSources(*indexPaths)
	if err != nil {
		return err
	}
	results := DecodeAll(srcs, *workers, decoderWarner(), *strict)

	c, err := catalog.Open(*indexDB)
	if err != nil {
		return err
	}
	defer c.Close()

	start := time.Now()
	var stored, failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			logging.Warn("decode failed", "path", r.Path, "err", r.Err)
			if err := c.RecordFailure(ctx, catalog.Failure{Path: r.Path, Checksum: r.Checksum, Reason: r.Err.Error()}); err != nil {
				return err
			}
			continue
		}
		if err := c.Put(ctx, catalog.EntryFromBeatmap(r.Path, r.Checksum, r.Beatmap)); err != nil {
			return err
		}
		stored++
	}
	logging.Info("indexed", "stored", stored, "failed", failed, "db", *indexDB, "took", time.Since(start))
	return nil
}

func runList(ctx context.Context) error {
	c, err := catalog.Open(*listDB)
	if err != nil {
		return err
	}
	defer c.Close()

	if *listFailures {
		fs, err := c.Failures(ctx)
		if err != nil {
			return err
		}
		for _, f := range fs {
			fmt.Printf("%s\t%s\n", f.Path, f.Reason)
		}
		return nil
	}

	filter := catalog.Filter{
		Creator:    *listCreator,
		MinObjects: *listMinObjects,
		Limit:      *listLimit,
	}
	if *listMode != "" {
		m, err := parseMode(*listMode)
		if err != nil {
			return err
		}
		filter.Mode = &m
	}
	entries, err := c.List(ctx, filter)
	if err != nil {
		return err
	}
	return WriteEntries(os.Stdout, entries)
}

func parseMode(s string) (dotosu.GameMode, error) {
	for m := dotosu.ModeStandard; m <= dotosu.ModeMania; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, errors.New("unknown mode " + strconv.Quote(s))
}

const (
	rateLimit             = 30
	cooldown              = time.Minute
	maxConcurrentRequests = 2
)

func runFetch(ctx context.Context) error {
	th := newThrottle(rateLimit, cooldown, maxConcurrentRequests)
	defer th.Stop()

	written, err := newFetcher(th).FetchAll(ctx, *fetchIDs, *fetchOut)
	logging.Info("fetched", "written", len(written), "requested", len(*fetchIDs))
	return err
}
