// Package engine drives rule programs for the CLI: it loads and compiles
// program files, grounds facts, executes, and records runs in the history
// store.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/leapstack-labs/fuzzrule/internal/state"
	"github.com/leapstack-labs/fuzzrule/pkg/domain"
	"github.com/leapstack-labs/fuzzrule/pkg/fuzzy"
)

// Engine loads programs and records their runs.
type Engine struct {
	// History store (lazy initialized)
	store     state.Store
	storeOpen bool
	storeMu   sync.Mutex

	// Structured logger
	logger *slog.Logger

	statePath string
	record    bool
}

// Config holds engine configuration.
type Config struct {
	// StatePath is the path to the SQLite history database
	StatePath string
	// Record stores every run in the history database
	Record bool
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Store overrides the history store opened from StatePath (optional)
	Store state.Store
}

// New creates a new engine. The history store is only opened when a run is
// recorded or history is read.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing engine", "state_path", cfg.StatePath, "record", cfg.Record)

	return &Engine{
		store:     cfg.Store,
		storeOpen: cfg.Store != nil,
		logger:    logger,
		statePath: cfg.StatePath,
		record:    cfg.Record,
	}
}

// ensureStore lazily opens the history store.
func (e *Engine) ensureStore() (state.Store, error) {
	e.storeMu.Lock()
	defer e.storeMu.Unlock()

	if e.storeOpen {
		return e.store, nil
	}
	if e.statePath == "" {
		return nil, fmt.Errorf("no state path configured")
	}

	if e.statePath != state.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(e.statePath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	e.logger.Debug("opening history store", "path", e.statePath)

	store := state.NewSQLiteStore(e.logger)
	if err := store.Open(e.statePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	e.store = store
	e.storeOpen = true
	return store, nil
}

// Close releases all resources.
func (e *Engine) Close() error {
	e.storeMu.Lock()
	defer e.storeMu.Unlock()

	e.logger.Debug("closing engine")
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			return fmt.Errorf("errors closing engine: %w", err)
		}
	}
	return nil
}

// Program is a compiled rule program ready to run.
type Program struct {
	Path   string
	Hash   string
	Domain *domain.Domain
	Trace  *domain.Trace
}

// Load reads and compiles a program file.
func (e *Engine) Load(path string) (*Program, error) {
	src, err := os.ReadFile(path) //nolint:gosec // G304: path is the program the user asked to run
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	return e.Compile(path, string(src))
}

// Compile compiles source under the given name.
func (e *Engine) Compile(name, src string) (*Program, error) {
	trace := domain.NewTrace()
	d := domain.New(
		domain.WithLogger(e.logger.With("program", name)),
		domain.WithHooks(trace.Hooks()),
	)
	if err := d.CompileSource(src); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	e.logger.Debug("compiled program", "program", name)

	return &Program{
		Path:   name,
		Hash:   contentHash(src),
		Domain: d,
		Trace:  trace,
	}, nil
}

// contentHash computes SHA256 hash of content.
func contentHash(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// Model returns the compiled model.
func (p *Program) Model() *fuzzy.Model {
	return p.Domain.Model()
}

// Rules returns the distinct rules referenced by the program's rulesets,
// in first-seen order.
func (p *Program) Rules() []*fuzzy.Rule {
	seen := make(map[*fuzzy.Rule]bool)
	var rules []*fuzzy.Rule
	for _, rs := range p.Model().Rulesets() {
		for _, r := range rs.Rules {
			if !seen[r] {
				seen[r] = true
				rules = append(rules, r)
			}
		}
	}
	return rules
}

// History returns recorded runs, newest first.
func (e *Engine) History(ctx context.Context, limit int) ([]*state.Run, error) {
	store, err := e.ensureStore()
	if err != nil {
		return nil, err
	}
	return store.ListRuns(ctx, limit)
}
