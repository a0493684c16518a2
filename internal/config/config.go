// Package config loads lore's on-disk configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete lore configuration.
type Config struct {
	Knowledge KnowledgeConfig  `yaml:"knowledge" json:"knowledge"`
	Search    SearchConfig     `yaml:"search" json:"search"`
	Staleness StalenessConfig  `yaml:"staleness" json:"staleness"`
	Logging   LoggingConfig    `yaml:"logging" json:"logging"`
	Watch     WatchConfig      `yaml:"watch" json:"watch"`
}

// KnowledgeConfig configures where the corpus lives.
type KnowledgeConfig struct {
	// Dir is the knowledge directory. Empty means resolve from
	// LORE_KNOWLEDGE_DIR / LORE_DATA_DIR / <repo root>/.lore/knowledge
	// at the CLI boundary.
	Dir string `yaml:"dir" json:"dir"`
	// RepoRoot is the source repository root used for `source`-type
	// indexing and for the staleness engine's VCS lookups.
	RepoRoot string `yaml:"repo_root" json:"repo_root"`
}

// SearchConfig configures composite-ranking weights and defaults.
type SearchConfig struct {
	// BM25Weight, RecencyWeight, TFIDFWeight are the default composite weights.
	BM25Weight    float64 `yaml:"bm25_weight" json:"bm25_weight"`
	RecencyWeight float64 `yaml:"recency_weight" json:"recency_weight"`
	TFIDFWeight   float64 `yaml:"tfidf_weight" json:"tfidf_weight"`

	// CategoryTiebreak is the additive category-priority bonus magnitude.
	CategoryTiebreak float64 `yaml:"category_tiebreak" json:"category_tiebreak"`

	// DefaultLimit is the default result count for `search`.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// SnippetChars is the snippet truncation length.
	SnippetChars int `yaml:"snippet_chars" json:"snippet_chars"`
}

// StalenessConfig configures the staleness engine's weights and thresholds.
type StalenessConfig struct {
	FileDriftWeight       float64 `yaml:"file_drift_weight" json:"file_drift_weight"`
	BacklinkDriftWeight   float64 `yaml:"backlink_drift_weight" json:"backlink_drift_weight"`
	NeighborDriftWeight   float64 `yaml:"neighbor_drift_weight" json:"neighbor_drift_weight"`
	VocabularyDriftWeight float64 `yaml:"vocabulary_drift_weight" json:"vocabulary_drift_weight"`
	ConfidenceWeight      float64 `yaml:"confidence_weight" json:"confidence_weight"`

	StaleThreshold float64 `yaml:"stale_threshold" json:"stale_threshold"`
	AgingThreshold float64 `yaml:"aging_threshold" json:"aging_threshold"`

	// VCSTimeoutSeconds bounds the `git log` subprocess used for file_drift.
	VCSTimeoutSeconds int `yaml:"vcs_timeout_seconds" json:"vcs_timeout_seconds"`
}

// LoggingConfig configures the slog/rotating-file setup.
type LoggingConfig struct {
	Level         string `yaml:"level" json:"level"`
	MaxSizeMB     int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles      int    `yaml:"max_files" json:"max_files"`
	WriteToStderr bool   `yaml:"write_to_stderr" json:"write_to_stderr"`
}

// WatchConfig configures the opt-in live-reindex wrapper.
type WatchConfig struct {
	DebounceMillis int `yaml:"debounce_millis" json:"debounce_millis"`
}

// Default returns a Config populated with the spec's defaults.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			BM25Weight:       0.5,
			RecencyWeight:    0.3,
			TFIDFWeight:      0.2,
			CategoryTiebreak: 0.05,
			DefaultLimit:     10,
			SnippetChars:     500,
		},
		Staleness: StalenessConfig{
			FileDriftWeight:       0.55,
			BacklinkDriftWeight:   0.25,
			NeighborDriftWeight:   0.10,
			VocabularyDriftWeight: 0.10,
			ConfidenceWeight:      0.0,
			StaleThreshold:        0.6,
			AgingThreshold:        0.3,
			VCSTimeoutSeconds:     30,
		},
		Logging: LoggingConfig{
			Level:         "info",
			MaxSizeMB:     10,
			MaxFiles:      5,
			WriteToStderr: false,
		},
		Watch: WatchConfig{
			DebounceMillis: 200,
		},
	}
}

// Load reads and parses a YAML config file at path, applying it on top of Default().
// A missing file is not an error: Default() is returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
