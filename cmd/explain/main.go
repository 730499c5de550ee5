package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"creditscope/internal/cfg"
	"creditscope/internal/dataset"
	"creditscope/internal/explain"
	"creditscope/internal/model"
	"creditscope/internal/storage"
)

// report is the batch tool's output document: whatever engines ran, plus
// enough provenance to reproduce the run.
type report struct {
	Dataset    string                    `json:"dataset"`
	ModelTag   string                    `json:"model_tag"`
	Seed       int64                     `json:"seed"`
	CreatedAt  time.Time                 `json:"created_at"`
	Importance *explain.ImportanceResult `json:"importance,omitempty"`
	PDP        []*explain.PDResult       `json:"pdp,omitempty"`
	ICE        []*explain.ICEResult      `json:"ice,omitempty"`
}

func main() {
	var (
		dataPath  = flag.String("data", "", "Path to the dataset CSV (overrides config)")
		target    = flag.String("target", "", "Label column name (overrides config)")
		scorerURL = flag.String("scorer", "", "Model serving base URL (overrides config)")
		weights   = flag.String("weights", "", "YAML file with logistic baseline coefficients (used when no scorer URL)")
		engines   = flag.String("engines", "importance", "Comma-separated engines to run: importance, pdp, ice")
		features  = flag.String("features", "", "Comma-separated features for pdp/ice (default: all)")
		metric    = flag.String("metric", "roc_auc", "Importance metric: accuracy, mae, roc_auc")
		repeats   = flag.Int("repeats", 0, "Permutation repeats (overrides config)")
		gridRes   = flag.Int("grid", 0, "Grid resolution for pdp/ice (overrides config)")
		seed      = flag.Int64("seed", -1, "Random seed (overrides config)")
		output    = flag.String("output", "", "Write the report JSON here (default: stdout)")
		persist   = flag.Bool("store", false, "Also persist results to the report database")
		logLevel  = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if *dataPath != "" {
		config.DatasetPath = *dataPath
	}
	if *target != "" {
		config.TargetColumn = *target
	}
	if *scorerURL != "" {
		config.ScorerURL = *scorerURL
	}
	if *repeats > 0 {
		config.Repeats = *repeats
	}
	if *gridRes > 0 {
		config.GridResolution = *gridRes
	}
	if *seed >= 0 {
		config.Seed = *seed
	}

	ds, labels := loadDataset(config)
	scorer := buildScorer(config, *weights)
	engine := explain.NewEngine(config.Workers, nil)
	ctx := context.Background()

	rep := &report{
		Dataset:   config.DatasetPath,
		ModelTag:  config.ModelTag,
		Seed:      config.Seed,
		CreatedAt: time.Now().UTC(),
	}

	wanted := make(map[string]bool)
	for _, e := range strings.Split(*engines, ",") {
		wanted[strings.TrimSpace(e)] = true
	}
	targets := featureList(*features, ds)

	if wanted["importance"] {
		m, err := lookupMetric(*metric)
		if err != nil {
			log.Fatal().Err(err).Msg("bad metric")
		}
		rep.Importance, err = engine.PermutationImportance(ctx, scorer, m, ds, labels, explain.ImportanceOptions{
			Repeats: config.Repeats,
			Seed:    config.Seed,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("permutation importance failed")
		}
	}
	if wanted["pdp"] {
		for _, f := range targets {
			r, err := engine.PartialDependence(ctx, scorer, ds, f, config.GridResolution)
			if err != nil {
				log.Fatal().Err(err).Str("feature", f).Msg("partial dependence failed")
			}
			rep.PDP = append(rep.PDP, r)
		}
	}
	if wanted["ice"] {
		for _, f := range targets {
			r, err := engine.ICE(ctx, scorer, ds, f, config.GridResolution)
			if err != nil {
				log.Fatal().Err(err).Str("feature", f).Msg("ice failed")
			}
			rep.ICE = append(rep.ICE, r)
		}
	}

	if *persist {
		persistReport(config, rep)
	}
	writeReport(rep, *output)
}

func loadDataset(config cfg.Settings) (*dataset.Dataset, []float64) {
	if config.DatasetPath == "" || config.TargetColumn == "" {
		log.Fatal().Msg("dataset path and target column are required")
	}
	cols := make([]dataset.ColumnSpec, len(config.Columns))
	for i, c := range config.Columns {
		kind, err := dataset.ParseKind(c.Kind)
		if err != nil {
			log.Fatal().Err(err).Str("column", c.Name).Msg("bad column kind")
		}
		cols[i] = dataset.ColumnSpec{Name: c.Name, Kind: kind}
	}
	ds, labels, err := dataset.LoadCSV(config.DatasetPath, dataset.LoadCSVOptions{
		Target:        config.TargetColumn,
		Columns:       cols,
		SkipMalformed: true,
	})
	if err != nil {
		log.Fatal().Err(err).Str("path", config.DatasetPath).Msg("dataset load failed")
	}
	return ds, labels
}

func buildScorer(config cfg.Settings, weightsPath string) explain.Scorer {
	if config.ScorerURL != "" {
		return model.NewRemote(config.ScorerURL, config.ScorerTimeout)
	}
	if weightsPath == "" {
		log.Fatal().Msg("either a scorer URL or a baseline weights file is required")
	}
	data, err := os.ReadFile(weightsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", weightsPath).Msg("failed to read weights")
	}
	var logit model.Logistic
	if err := yaml.Unmarshal(data, &logit); err != nil {
		log.Fatal().Err(err).Msg("failed to parse weights")
	}
	log.Info().Int("weights", len(logit.Weights)).Msg("using logistic baseline scorer")
	return &logit
}

func lookupMetric(name string) (explain.Metric, error) {
	switch name {
	case "accuracy":
		return explain.Accuracy(0.5), nil
	case "mae":
		return explain.MeanAbsoluteError(), nil
	case "roc_auc":
		return explain.ROCAUC(), nil
	default:
		return explain.Metric{}, fmt.Errorf("unknown metric %q", name)
	}
}

func featureList(raw string, ds *dataset.Dataset) []string {
	if raw == "" {
		specs := ds.Features()
		out := make([]string, len(specs))
		for i, s := range specs {
			out[i] = s.Name
		}
		return out
	}
	var out []string
	for _, f := range strings.Split(raw, ",") {
		out = append(out, strings.TrimSpace(f))
	}
	return out
}

func persistReport(config cfg.Settings, rep *report) {
	store, err := storage.New(config.DataPath)
	if err != nil {
		log.Error().Err(err).Msg("report storage unavailable, skipping persist")
		return
	}
	defer store.Close()

	if rep.Importance != nil {
		if _, err := store.SaveReport(storage.KindImportance, config.ModelTag, "", rep.Importance); err != nil {
			log.Error().Err(err).Msg("failed to persist importance report")
		}
	}
	for _, r := range rep.PDP {
		if _, err := store.SaveReport(storage.KindPDP, config.ModelTag, r.Feature, r); err != nil {
			log.Error().Err(err).Str("feature", r.Feature).Msg("failed to persist pdp report")
		}
	}
	for _, r := range rep.ICE {
		if _, err := store.SaveReport(storage.KindICE, config.ModelTag, r.Feature, r); err != nil {
			log.Error().Err(err).Str("feature", r.Feature).Msg("failed to persist ice report")
		}
	}
}

func writeReport(rep *report, path string) {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to create output file")
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		log.Fatal().Err(err).Msg("failed to write report")
	}
}
