package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent pensieve configuration stored as
// config.toml in the .pensieve/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Corpus      CorpusConfig      `toml:"corpus"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Recall      RecallConfig      `toml:"recall"`
	Events      EventsConfig      `toml:"events"`
}

// StorageConfig holds durable state settings: the state repository backing
// reinforcement/tier/link/perspective records, and the verbatim archive.
type StorageConfig struct {
	// Provider selects the state repository: "sqlite", "postgres", "inmemory".
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`

	// ArchiveDir is where archived verbatim blobs live.
	ArchiveDir string `toml:"archive_dir,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// pensieve API server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// VectorStoreConfig holds memory-index settings. Target is interpreted per
// provider: a server URL for chroma, a host for qdrant (with Port), a
// database file path for sqlitevec.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Port       uint   `toml:"port,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// CorpusConfig holds markdown-corpus settings. The corpus shares the Chroma
// server with the memory index unless Target overrides it.
type CorpusConfig struct {
	Enabled    bool   `toml:"enabled,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings for vector backends
// without server-side embedding.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// RecallConfig holds retrieval tuning.
type RecallConfig struct {
	MaxResults    uint    `toml:"max_results,omitempty"`
	MinSimilarity float64 `toml:"min_similarity,omitempty"`
	CorpusWeight  float64 `toml:"corpus_weight,omitempty"`
}

// EventsConfig holds memory lifecycle event publishing settings.
type EventsConfig struct {
	// Provider selects the publisher: "nop" or "kafka".
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma-separated broker list for kafka.
	Brokers string `toml:"brokers,omitempty"`

	Topic string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func uintKey(get func(c *Config) uint, set func(c *Config, v uint)) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if get(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(get(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid uint value: %w", err)
			}
			set(c, uint(n))
			return nil
		},
	}
}

func floatKey(get func(c *Config) float64, set func(c *Config, v float64)) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if get(c) == 0 {
				return ""
			}
			return strconv.FormatFloat(get(c), 'g', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %w", err)
			}
			set(c, f)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error { c.Storage.Provider = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"storage.archive_dir": {
		get: func(c *Config) string { return c.Storage.ArchiveDir },
		set: func(c *Config, v string) error { c.Storage.ArchiveDir = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"vector_store.port": uintKey(
		func(c *Config) uint { return c.VectorStore.Port },
		func(c *Config, v uint) { c.VectorStore.Port = v },
	),
	"vector_store.collection": {
		get: func(c *Config) string { return c.VectorStore.Collection },
		set: func(c *Config, v string) error { c.VectorStore.Collection = v; return nil },
	},
	"corpus.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Corpus.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for corpus.enabled: %w", err)
			}
			c.Corpus.Enabled = b
			return nil
		},
	},
	"corpus.target": {
		get: func(c *Config) string { return c.Corpus.Target },
		set: func(c *Config, v string) error { c.Corpus.Target = v; return nil },
	},
	"corpus.collection": {
		get: func(c *Config) string { return c.Corpus.Collection },
		set: func(c *Config, v string) error { c.Corpus.Collection = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": uintKey(
		func(c *Config) uint { return c.Embedding.Dimensions },
		func(c *Config, v uint) { c.Embedding.Dimensions = v },
	),
	"recall.max_results": uintKey(
		func(c *Config) uint { return c.Recall.MaxResults },
		func(c *Config, v uint) { c.Recall.MaxResults = v },
	),
	"recall.min_similarity": floatKey(
		func(c *Config) float64 { return c.Recall.MinSimilarity },
		func(c *Config, v float64) { c.Recall.MinSimilarity = v },
	),
	"recall.corpus_weight": floatKey(
		func(c *Config) float64 { return c.Recall.CorpusWeight },
		func(c *Config, v float64) { c.Recall.CorpusWeight = v },
	),
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
