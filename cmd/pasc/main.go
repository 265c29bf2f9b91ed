// Command pasc combines a directory of two-channel air-quality sensor
// exports into reconciled, summarized report files, optionally merging
// regulatory reference-station and wind data.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pasc/internal/aqi"
	"pasc/internal/config"
	"pasc/internal/exporter"
	"pasc/internal/files"
	"pasc/internal/infrastructure"
	"pasc/internal/loader"
	"pasc/internal/pipeline"
	"pasc/internal/reference"
	"pasc/internal/source"
	"pasc/pkg/contracts/domain"
)

type options struct {
	dir          string
	useReference bool
	useWind      bool
	useDarksky   bool
	interval     string
	outputs      string
	listStations bool
	writeFull    bool
	sourceReport bool
	statsReport  bool
	yes          bool
}

// outputSet is the parsed -o selection.
type outputSet struct {
	CSV    bool
	XL     bool
	Retigo bool
}

func main() {
	var opts options
	flag.StringVar(&opts.dir, "d", ".", "data directory, joined to the configured data root")
	flag.BoolVar(&opts.useReference, "r", false, "merge reference station data")
	flag.BoolVar(&opts.useWind, "w", false, "merge reference station data including wind (forces -s 1H)")
	flag.BoolVar(&opts.useDarksky, "k", false, "use darksky wind data (overrides -w wind)")
	flag.StringVar(&opts.interval, "s", "1H", "summary interval, e.g. 1H, 15min, 2D")
	flag.StringVar(&opts.outputs, "o", "csv,retigo", "output types: csv, xl, retigo, all, none (comma separated)")
	flag.BoolVar(&opts.listStations, "l", false, "list known reference stations and exit")
	flag.BoolVar(&opts.writeFull, "f", false, "write the full-resolution combined table")
	flag.BoolVar(&opts.sourceReport, "a", false, "write the upwind/downwind source attribution report")
	flag.BoolVar(&opts.statsReport, "t", false, "write the per-sensor span report")
	flag.BoolVar(&opts.yes, "yes", false, "overwrite existing output files without asking")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := infrastructure.InitializeLogger(cfg.Logging)

	if err := run(opts, cfg, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options, cfg *config.Config, logger *slog.Logger) error {
	tz, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("unknown timezone %q: %w", cfg.Timezone, err)
	}
	tzTag := strings.ReplaceAll(cfg.Timezone, "/", "_")

	workdir := filepath.Join(cfg.DataRoot, opts.dir)
	disc := files.NewDiscovery(workdir)

	if opts.listStations {
		return listStations(workdir)
	}

	outputs, err := parseOutputs(opts.outputs)
	if err != nil {
		return err
	}

	wantWind := opts.useWind || opts.useDarksky
	var notes []string
	opts, notes = applyWindRules(opts)
	for _, note := range notes {
		fmt.Println("note: " + note)
	}
	useReference := opts.useReference || opts.useWind

	interval, err := pipeline.ParseSummaryInterval(opts.interval)
	if err != nil {
		return err
	}

	// Fail on missing inputs before any processing.
	primaryA, err := disc.FindKindFiles(domain.PrimaryA)
	if err != nil {
		return err
	}
	primaryB, err := disc.FindKindFiles(domain.PrimaryB)
	if err != nil {
		return err
	}
	if len(primaryA) == 0 || len(primaryB) == 0 {
		return fmt.Errorf("no primary channel exports found in %s (need *Primary*_a.csv and *Primary*_b.csv)", workdir)
	}

	var refFiles []files.FileInfo
	var stations map[string]domain.Station
	if useReference {
		refFiles, err = disc.FindReferenceFiles()
		if err != nil {
			return err
		}
		if len(refFiles) == 0 {
			return fmt.Errorf("reference data requested but no *REF*.csv files found in %s", workdir)
		}
		tablePath, err := reference.FindStationTable(workdir, ".")
		if err != nil {
			return err
		}
		stations, err = reference.LoadStations(tablePath)
		if err != nil {
			return err
		}
	}
	if opts.useDarksky && !disc.HasDarkskyWind() {
		return fmt.Errorf("darksky wind requested but %s not found in %s", reference.DarkskyFilename, workdir)
	}

	if err := confirmOverwrite(disc, plannedOutputs(opts, outputs), opts.yes); err != nil {
		return err
	}

	logger.Info("starting combine run",
		slog.String("dir", workdir),
		slog.Duration("interval", interval),
		slog.Bool("reference", useReference),
		slog.Bool("wind", wantWind))

	combined, err := buildCombined(disc, cfg, logger)
	if err != nil {
		return err
	}
	window, ok := domain.RangeOf(combined)
	if !ok {
		return fmt.Errorf("no observations survived reconciliation")
	}

	aqi.ApplyEPACorrection(combined)
	aqi.Apply(combined)

	writer := exporter.NewCSVWriter(workdir)

	var wind reference.WindSeries
	if useReference {
		combined, wind, err = mergeReference(writer, combined, refFiles, stations, window, logger)
		if err != nil {
			return err
		}
	}
	if opts.useDarksky {
		wind, err = reference.LoadDarkskyWind(workdir, window)
		if err != nil {
			return err
		}
	}

	if opts.writeFull {
		if err := writer.WriteCombinedFull(combined); err != nil {
			return err
		}
	}
	if opts.statsReport {
		if err := writer.WriteStats(exporter.CollectStats(combined), tz, tzTag); err != nil {
			return err
		}
	}

	bounds := pipeline.IntervalBounds{
		MinDelta:   cfg.Pipeline.MinDelta,
		MaxDelta:   cfg.Pipeline.MaxDelta,
		TrimFactor: cfg.Pipeline.TrimFactor,
	}
	native, err := pipeline.NativeInterval(combined, bounds)
	if err != nil {
		return err
	}
	if err := pipeline.GuardInterval(interval, native); err != nil {
		return err
	}

	summary := pipeline.Resample(combined, interval)
	summary = pipeline.FilterSummary(summary, pipeline.ConcentrationRange{
		Min: cfg.Pipeline.MinConcentration,
		Max: cfg.Pipeline.MaxConcentration,
	})
	if wantWind && wind != nil {
		reference.JoinWind(summary, wind)
	}

	summaryOpts := exporter.SummaryOptions{
		Timezone:    tz,
		TimezoneTag: tzTag,
		IncludeWind: wantWind,
	}
	if outputs.CSV {
		if err := writer.WriteSummaryCSV(summary, summaryOpts); err != nil {
			return err
		}
	}
	if outputs.XL {
		if err := writer.WriteSummaryXLSX(summary, summaryOpts); err != nil {
			return err
		}
	}
	if outputs.Retigo {
		err := writer.WriteRetigo(summary, exporter.RetigoOptions{
			Timezone:    tz,
			IncludeWind: wantWind,
		})
		if err != nil {
			return err
		}
	}
	if opts.sourceReport {
		attrs := source.Analyze(summary, source.Coordinate{Lat: cfg.Source.Lat, Lon: cfg.Source.Lon})
		if err := writer.WriteSourceReport(attrs, tz, tzTag); err != nil {
			return err
		}
	}

	logger.Info("run complete",
		slog.Int("combined_rows", len(combined)),
		slog.Int("summary_rows", len(summary)))
	return nil
}

// buildCombined loads every channel, aggregates each onto the channel grid
// and reconciles A against B, joining the secondary particle counts onto
// the primary table when secondary exports are present.
func buildCombined(disc *files.Discovery, cfg *config.Config, logger *slog.Logger) ([]domain.Row, error) {
	th := pipeline.Thresholds{
		Abs:     cfg.Pipeline.AbsThreshold,
		Rel:     cfg.Pipeline.RelThreshold,
		Epsilon: pipeline.DefaultThresholds().Epsilon,
	}

	primary, err := loadPair(disc, domain.PrimaryA, domain.PrimaryB, cfg.Pipeline.GridInterval, th, pipeline.PrimaryGuardColumns, logger)
	if err != nil {
		return nil, err
	}

	secondaryA, err := disc.FindKindFiles(domain.SecondaryA)
	if err != nil {
		return nil, err
	}
	secondaryB, err := disc.FindKindFiles(domain.SecondaryB)
	if err != nil {
		return nil, err
	}
	if len(secondaryA) == 0 || len(secondaryB) == 0 {
		logger.Info("no secondary channel exports, skipping particle counts")
		return primary, nil
	}

	// The secondary kind has no concentration pair to guard, so its merge
	// averages without rejection.
	secondary, err := loadPair(disc, domain.SecondaryA, domain.SecondaryB, cfg.Pipeline.GridInterval, th, nil, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.JoinKinds(primary, secondary), nil
}

func loadPair(disc *files.Discovery, kindA, kindB domain.Kind, grid time.Duration, th pipeline.Thresholds, guarded []string, logger *slog.Logger) ([]domain.Row, error) {
	filesA, err := disc.FindKindFiles(kindA)
	if err != nil {
		return nil, err
	}
	filesB, err := disc.FindKindFiles(kindB)
	if err != nil {
		return nil, err
	}

	rowsA, err := loader.LoadKind(files.Paths(filesA), kindA, logger)
	if err != nil {
		return nil, err
	}
	rowsB, err := loader.LoadKind(files.Paths(filesB), kindB, logger)
	if err != nil {
		return nil, err
	}

	rowsA = pipeline.AggregateChannel(rowsA, grid)
	rowsB = pipeline.AggregateChannel(rowsB, grid)
	merged := pipeline.MergeChannels(rowsA, rowsB, th, guarded)

	logger.Info("reconciled channel pair",
		slog.String("kind_a", kindA.String()),
		slog.String("kind_b", kindB.String()),
		slog.Int("rows_a", len(rowsA)),
		slog.Int("rows_b", len(rowsB)),
		slog.Int("merged", len(merged)))
	return merged, nil
}

// mergeReference reconciles every station's files, writes each station's
// merged table, appends the stations as pseudo-sensors and collects the
// wind series for the summary join.
func mergeReference(writer *exporter.CSVWriter, combined []domain.Row, refFiles []files.FileInfo, stations map[string]domain.Station, window domain.DateRange, logger *slog.Logger) ([]domain.Row, reference.WindSeries, error) {
	wind := make(reference.WindSeries)
	for _, group := range files.GroupReferenceByStation(refFiles) {
		merged, err := reference.MergeStation(files.Paths(group), stations, window, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := writer.WriteStationMerged(merged); err != nil {
			return nil, nil, err
		}
		combined = reference.AppendToSeries(combined, merged)
		for ts, w := range reference.WindFromMerged(merged.Rows) {
			wind[ts] = w
		}
		logger.Info("merged reference station",
			slog.String("station", merged.Station),
			slog.Int("rows", len(merged.Rows)))
	}
	return combined, wind, nil
}

// applyWindRules resolves the wind flag interactions: darksky wind
// supersedes station wind columns, and -w forces the hourly interval
// because the station exports are hourly. The forcing applies even when
// darksky replaces the wind columns, since -w still merges the rest of
// the station data at its hourly cadence.
func applyWindRules(opts options) (options, []string) {
	var notes []string
	if opts.useDarksky && opts.useWind {
		notes = append(notes, "-k overrides -w, station wind columns will be replaced by darksky wind")
	}
	if opts.useWind && opts.interval != "1H" {
		notes = append(notes, fmt.Sprintf("station wind data is hourly, forcing summary interval from %s to 1H", opts.interval))
		opts.interval = "1H"
	}
	return opts, notes
}

func listStations(workdir string) error {
	tablePath, err := reference.FindStationTable(workdir, ".")
	if err != nil {
		return err
	}
	stations, err := reference.LoadStations(tablePath)
	if err != nil {
		return err
	}
	reference.ListStations(os.Stdout, stations)
	return nil
}

func parseOutputs(s string) (outputSet, error) {
	var out outputSet
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "csv":
			out.CSV = true
		case "xl":
			out.XL = true
		case "retigo":
			out.Retigo = true
		case "all":
			out = outputSet{CSV: true, XL: true, Retigo: true}
		case "none":
			out = outputSet{}
		case "":
		default:
			return out, fmt.Errorf("unknown output type %q (expected csv, xl, retigo, all or none)", part)
		}
	}
	return out, nil
}

// plannedOutputs names the report files this run will write, for the
// overwrite check.
func plannedOutputs(opts options, outputs outputSet) []string {
	var names []string
	if outputs.CSV {
		names = append(names, exporter.SummaryCSVFilename)
	}
	if outputs.XL {
		names = append(names, exporter.SummaryXLSXFilename)
	}
	if outputs.Retigo {
		names = append(names, exporter.RetigoFilename)
	}
	if opts.writeFull {
		names = append(names, exporter.CombinedFullFilename)
	}
	if opts.statsReport {
		names = append(names, exporter.StatsFilename)
	}
	if opts.sourceReport {
		names = append(names, exporter.SourceFilename)
	}
	return names
}

func confirmOverwrite(disc *files.Discovery, planned []string, yes bool) error {
	existing := disc.ExistingOutputs(planned)
	if len(existing) == 0 || yes {
		return nil
	}

	fmt.Println("the following output files already exist and will be overwritten:")
	for _, f := range existing {
		fmt.Printf("  %s (%d bytes, modified %s)\n", f.Name, f.Size, f.ModTime.Format("2006-01-02 15:04"))
	}
	fmt.Print("continue? [y/N] ")

	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	switch strings.TrimSpace(strings.ToLower(answer)) {
	case "y", "yes":
		return nil
	}
	return fmt.Errorf("aborted, existing output files left untouched")
}
