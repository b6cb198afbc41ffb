package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/sadopc/inkwell/internal/analysis"
	"github.com/sadopc/inkwell/internal/analytics"
	"github.com/sadopc/inkwell/internal/config"
	"github.com/sadopc/inkwell/internal/enrich"
	"github.com/sadopc/inkwell/internal/logging"
	"github.com/sadopc/inkwell/internal/pipeline"
	"github.com/sadopc/inkwell/internal/store"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	dbPath     string
	user       string
	logLevel   string
	logOut     io.Writer
}

// app is the wired set of components a command works with.
type app struct {
	cfg       config.Config
	log       *logrus.Logger
	logFile   *os.File
	store     *store.Store
	user      *store.User
	pipeline  *pipeline.Pipeline
	analytics *analytics.Aggregator
}

// loadConfig reads the config file and applies flag overrides.
func (o *options) loadConfig() (config.Config, error) {
	path := o.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Config{}, fmt.Errorf("resolve config path: %w", err)
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.user != "" {
		cfg.User = o.user
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if cfg.DBPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return cfg, fmt.Errorf("resolve db path: %w", err)
		}
		cfg.DBPath = p
	}
	return cfg, cfg.Validate()
}

// open wires config, logging, the store and the analysis components.
// toFile sends logs to a file next to the database instead of stderr.
func (o *options) open(ctx context.Context, toFile bool) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	out := o.logOut
	if out == nil {
		out = os.Stderr
	}
	if toFile {
		path := cfg.LogFile
		if path == "" {
			path = filepath.Join(filepath.Dir(cfg.DBPath), "inkwell.log")
		}
		f, err := logging.OpenFile(path)
		if err != nil {
			return nil, err
		}
		a.logFile = f
		out = f
	}
	a.log, err = logging.New(cfg.LogLevel, cfg.LogFormat, out)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.store, err = store.New(cfg.DBPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.user, err = a.store.EnsureUser(ctx, cfg.User)
	if err != nil {
		a.Close()
		return nil, err
	}

	lex := analysis.DefaultLexicon()
	if cfg.LexiconPath != "" {
		if lex, err = analysis.LoadLexiconFile(cfg.LexiconPath); err != nil {
			a.Close()
			return nil, err
		}
	}

	themes := a.store.IntSetting(ctx, store.SettingThemeCount, cfg.Analysis.ThemeCount)
	a.pipeline = pipeline.New(pipeline.FromStore(a.store),
		pipeline.WithScorer(analysis.NewScorer(lex)),
		pipeline.WithEnricher(a.enricher(ctx), cfg.Enrichment.Timeout),
		pipeline.WithThemeCount(themes),
		pipeline.WithLogger(a.log),
	)
	a.analytics = analytics.New(a.store)

	a.log.WithFields(logrus.Fields{
		"db":   cfg.DBPath,
		"user": a.user.Name,
	}).Debug("inkwell ready")
	return a, nil
}

// enricher returns the OpenAI service when enrichment is switched on in the
// config file or the settings table and a key is available.
func (a *app) enricher(ctx context.Context) enrich.Service {
	e := a.cfg.Enrichment
	enabled := e.Enabled || a.store.BoolSetting(ctx, store.SettingEnrichment, false)
	if !enabled || e.APIKey == "" {
		return enrich.Noop{}
	}
	return enrich.NewOpenAI(e.APIKey, e.Model, e.MaxOutputTokens)
}

// newQueue starts background analysis when auto_analyze is on.
func (a *app) newQueue(ctx context.Context) *pipeline.Queue {
	if !a.store.BoolSetting(ctx, store.SettingAutoAnalyze, true) {
		return nil
	}
	return pipeline.NewQueue(a.pipeline, a.cfg.Analysis.Workers, a.cfg.Analysis.QueueSize, a.log)
}

func (a *app) defaultWindow(ctx context.Context) analytics.Window {
	w, err := analytics.ParseWindow(a.store.SettingOr(ctx, store.SettingDefaultWindow, string(analytics.Week)))
	if err != nil {
		return analytics.Week
	}
	return w
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}
