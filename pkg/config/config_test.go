package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/pkg/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).NotTo(BeNil())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Version).To(Equal(defaults.Version))
			Expect(cfg.Storage.Provider).To(Equal(defaults.Storage.Provider))
			Expect(cfg.API.Listen).To(Equal(defaults.API.Listen))
			Expect(cfg.Client.APITarget).To(Equal(defaults.Client.APITarget))
			Expect(cfg.VectorStore.Provider).To(Equal(defaults.VectorStore.Provider))
			Expect(cfg.VectorStore.Target).To(Equal(defaults.VectorStore.Target))
			Expect(cfg.Embedding.Provider).To(Equal(defaults.Embedding.Provider))
			Expect(cfg.Embedding.Model).To(Equal(defaults.Embedding.Model))
			Expect(cfg.Embedding.Dimensions).To(Equal(defaults.Embedding.Dimensions))
			Expect(cfg.Recall.MaxResults).To(Equal(defaults.Recall.MaxResults))
			Expect(cfg.Recall.MinSimilarity).To(Equal(defaults.Recall.MinSimilarity))
			Expect(cfg.Events.Provider).To(Equal(defaults.Events.Provider))
		})

		It("loads a valid config file", func() {
			data := `version = 0

[vector_store]
provider = "qdrant"
target = "qdrant.internal"
port = 6334

[embedding]
dimensions = 768
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).NotTo(BeNil())
			Expect(cfg.Version).To(Equal(0))
			Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
			Expect(cfg.VectorStore.Target).To(Equal("qdrant.internal"))
			Expect(cfg.VectorStore.Port).To(Equal(uint(6334)))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
		})

		It("loads all config fields", func() {
			data := `version = 0

[storage]
provider = "postgres"
postgres_dsn = "postgres://localhost/pensieve"
archive_dir = "/var/lib/pensieve/archive"

[api]
listen = ":9091"

[client]
api_target = "http://myhost:9091"

[vector_store]
provider = "chroma"
target = "http://localhost:8000"
collection = "memories"

[corpus]
enabled = true
collection = "chunks"

[embedding]
provider = "ollama"
target = "http://localhost:11434"
model = "nomic-embed-text"
dimensions = 1024

[recall]
max_results = 5
min_similarity = 0.4
corpus_weight = 0.7

[events]
provider = "kafka"
brokers = "localhost:9092"
topic = "pensieve.memory"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Storage.Provider).To(Equal("postgres"))
			Expect(cfg.Storage.PostgresDSN).To(Equal("postgres://localhost/pensieve"))
			Expect(cfg.Storage.ArchiveDir).To(Equal("/var/lib/pensieve/archive"))
			Expect(cfg.API.Listen).To(Equal(":9091"))
			Expect(cfg.Client.APITarget).To(Equal("http://myhost:9091"))
			Expect(cfg.VectorStore.Provider).To(Equal("chroma"))
			Expect(cfg.VectorStore.Collection).To(Equal("memories"))
			Expect(cfg.Corpus.Enabled).To(BeTrue())
			Expect(cfg.Corpus.Collection).To(Equal("chunks"))
			Expect(cfg.Embedding.Model).To(Equal("nomic-embed-text"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(1024)))
			Expect(cfg.Recall.MaxResults).To(Equal(uint(5)))
			Expect(cfg.Recall.MinSimilarity).To(Equal(0.4))
			Expect(cfg.Recall.CorpusWeight).To(Equal(0.7))
			Expect(cfg.Events.Provider).To(Equal("kafka"))
			Expect(cfg.Events.Brokers).To(Equal("localhost:9092"))
			Expect(cfg.Events.Topic).To(Equal("pensieve.memory"))
		})

		It("returns error for malformed TOML", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not valid toml [[["), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(cfg).To(BeNil())
		})

		It("returns error for unsupported config version", func() {
			data := `version = 99
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
			Expect(cfg).To(BeNil())
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk", func() {
			cfg := &config.Config{
				Version: config.CurrentV,
				VectorStore: config.VectorStoreConfig{
					Provider: "qdrant",
					Target:   "qdrant.internal",
				},
				Embedding: config.EmbeddingConfig{
					Dimensions: 768,
				},
			}

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SaveConfig(cfg)
			Expect(err).NotTo(HaveOccurred())

			_, err = os.Stat(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.VectorStore.Provider).To(Equal("qdrant"))
			Expect(loaded.VectorStore.Target).To(Equal("qdrant.internal"))
			Expect(loaded.Embedding.Dimensions).To(Equal(uint(768)))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SaveConfig(nil)
			Expect(err).To(HaveOccurred())
		})

		It("overwrites existing config", func() {
			first := &config.Config{
				Version:     config.CurrentV,
				VectorStore: config.VectorStoreConfig{Provider: "chroma"},
			}
			second := &config.Config{
				Version:     config.CurrentV,
				VectorStore: config.VectorStoreConfig{Provider: "sqlitevec"},
			}

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SaveConfig(first)).To(Succeed())
			Expect(c.SaveConfig(second)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.VectorStore.Provider).To(Equal("sqlitevec"))
		})
	})

	Describe("SetConfigValue", func() {
		It("sets a string config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("vector_store.provider", "qdrant")
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
		})

		It("sets a uint config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("embedding.dimensions", "1024")
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(1024)))
		})

		It("sets a float config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("recall.min_similarity", "0.45")
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Recall.MinSimilarity).To(Equal(0.45))
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("nonexistent_key", "value")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		It("returns error for invalid uint value", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("embedding.dimensions", "not-a-number")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid"))
		})

		It("preserves existing values when setting a new key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("vector_store.provider", "qdrant")).To(Succeed())
			Expect(c.SetConfigValue("vector_store.target", "qdrant.internal")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
			Expect(cfg.VectorStore.Target).To(Equal("qdrant.internal"))
		})
	})

	Describe("GetConfigValue", func() {
		It("gets a set config value", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("vector_store.provider", "qdrant")).To(Succeed())

			val, err := c.GetConfigValue("vector_store.provider")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("qdrant"))
		})

		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("vector_store.provider")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal(config.NewDefaultConfig().VectorStore.Provider))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("storage.sqlite_path")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(BeEmpty())
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.GetConfigValue("nonexistent_key")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		It("gets a uint config value as string", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("recall.max_results", "5")).To(Succeed())

			val, err := c.GetConfigValue("recall.max_results")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("5"))
		})
	})

	Describe("ValidConfigKeys", func() {
		It("returns all expected keys", func() {
			keys := config.ValidConfigKeys()
			Expect(keys).To(ContainElements(
				"storage.provider",
				"storage.sqlite_path",
				"storage.postgres_dsn",
				"storage.archive_dir",
				"api.listen",
				"client.api_target",
				"vector_store.provider",
				"vector_store.target",
				"vector_store.port",
				"vector_store.collection",
				"corpus.enabled",
				"embedding.provider",
				"embedding.target",
				"embedding.model",
				"embedding.dimensions",
				"recall.max_results",
				"recall.min_similarity",
				"recall.corpus_weight",
				"events.provider",
				"events.brokers",
				"events.topic",
			))
		})

		It("returns keys in stable order", func() {
			keys1 := config.ValidConfigKeys()
			keys2 := config.ValidConfigKeys()
			Expect(keys1).To(Equal(keys2))
		})
	})

	Describe("IsValidConfigKey", func() {
		It("returns true for valid keys", func() {
			Expect(config.IsValidConfigKey("vector_store.provider")).To(BeTrue())
			Expect(config.IsValidConfigKey("embedding.dimensions")).To(BeTrue())
			Expect(config.IsValidConfigKey("recall.min_similarity")).To(BeTrue())
		})

		It("returns false for invalid keys", func() {
			Expect(config.IsValidConfigKey("nonexistent")).To(BeFalse())
			Expect(config.IsValidConfigKey("")).To(BeFalse())
		})

		It("returns false for old flat key names", func() {
			Expect(config.IsValidConfigKey("provider")).To(BeFalse())
			Expect(config.IsValidConfigKey("embedding_dimensions")).To(BeFalse())
		})
	})
})

var _ = Describe("PresetConfig", func() {
	It("returns local preset with on-disk backends", func() {
		cfg, err := config.PresetConfig("local")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.Storage.Provider).To(Equal("sqlite"))
		Expect(cfg.VectorStore.Provider).To(Equal("sqlitevec"))
		Expect(cfg.Embedding.Provider).To(Equal("ollama"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
	})

	It("returns chroma preset with server defaults", func() {
		cfg, err := config.PresetConfig("chroma")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.VectorStore.Provider).To(Equal("chroma"))
		Expect(cfg.VectorStore.Target).To(Equal("http://localhost:8000"))
		Expect(cfg.Corpus.Enabled).To(BeTrue())
	})

	It("returns qdrant preset with grpc port", func() {
		cfg, err := config.PresetConfig("qdrant")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
		Expect(cfg.VectorStore.Port).To(Equal(uint(6334)))
		Expect(cfg.Embedding.Provider).To(Equal("ollama"))
	})

	It("is case-insensitive", func() {
		cfg, err := config.PresetConfig("Local")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.VectorStore.Provider).To(Equal("sqlitevec"))
	})

	It("returns error for unknown preset", func() {
		cfg, err := config.PresetConfig("nonexistent")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unknown preset"))
		Expect(cfg).To(BeNil())
	})
})

var _ = Describe("ValidPresetNames", func() {
	It("returns the expected preset names", func() {
		names := config.ValidPresetNames()
		Expect(names).To(ConsistOf("local", "chroma", "qdrant"))
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("parses valid TOML into a Config", func() {
		data := []byte(`version = 0

[vector_store]
provider = "chroma"
target = "http://localhost:8000"

[embedding]
dimensions = 512
`)
		cfg, err := config.ParseConfigTOML(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Version).To(Equal(0))
		Expect(cfg.VectorStore.Provider).To(Equal("chroma"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(512)))
	})

	It("returns error for invalid TOML", func() {
		cfg, err := config.ParseConfigTOML([]byte("not valid [[["))
		Expect(err).To(HaveOccurred())
		Expect(cfg).To(BeNil())
	})

	It("returns empty config for empty input", func() {
		cfg, err := config.ParseConfigTOML([]byte(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).NotTo(BeNil())
		Expect(cfg.VectorStore.Provider).To(BeEmpty())
	})

	It("rejects unsupported config version", func() {
		data := []byte(`version = 2
`)
		cfg, err := config.ParseConfigTOML(data)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unsupported config version"))
		Expect(cfg).To(BeNil())
	})
})

var _ = Describe("NewDefaultConfig", func() {
	It("returns fully-populated defaults", func() {
		cfg := config.NewDefaultConfig()
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.Storage.Provider).To(Equal("sqlite"))
		Expect(cfg.API.Listen).To(Equal(":8081"))
		Expect(cfg.Client.APITarget).To(Equal("http://localhost:8081"))
		Expect(cfg.VectorStore.Provider).To(Equal("chroma"))
		Expect(cfg.VectorStore.Target).To(Equal("http://localhost:8000"))
		Expect(cfg.VectorStore.Collection).To(Equal("pensieve"))
		Expect(cfg.Corpus.Enabled).To(BeTrue())
		Expect(cfg.Corpus.Collection).To(Equal("markdown_chunks"))
		Expect(cfg.Embedding.Provider).To(Equal("ollama"))
		Expect(cfg.Embedding.Model).To(Equal("embeddinggemma"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
		Expect(cfg.Recall.MaxResults).To(Equal(uint(3)))
		Expect(cfg.Recall.MinSimilarity).To(Equal(0.35))
		Expect(cfg.Recall.CorpusWeight).To(Equal(0.8))
		Expect(cfg.Events.Provider).To(Equal("nop"))
		Expect(cfg.Events.Topic).To(Equal("pensieve.memory"))
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).NotTo(BeNil())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("storage.provider")).To(Equal(defaults.Storage.Provider))
		Expect(v.GetString("api.listen")).To(Equal(defaults.API.Listen))
		Expect(v.GetString("vector_store.provider")).To(Equal(defaults.VectorStore.Provider))
		Expect(v.GetFloat64("recall.min_similarity")).To(Equal(defaults.Recall.MinSimilarity))
	})

	It("reads config file values over defaults", func() {
		data := `[vector_store]
provider = "qdrant"
target = "qdrant.internal"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("vector_store.provider")).To(Equal("qdrant"))
		Expect(v.GetString("vector_store.target")).To(Equal("qdrant.internal"))
		// Unset fields should still get defaults
		defaults := config.NewDefaultConfig()
		Expect(v.GetString("api.listen")).To(Equal(defaults.API.Listen))
	})

	It("respects environment variables with PENSIEVE_ prefix", func() {
		os.Setenv("PENSIEVE_VECTOR_STORE_PROVIDER", "sqlitevec")
		defer os.Unsetenv("PENSIEVE_VECTOR_STORE_PROVIDER")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("vector_store.provider")).To(Equal("sqlitevec"))
	})

	It("env vars take precedence over config file values", func() {
		data := `[vector_store]
provider = "chroma"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		os.Setenv("PENSIEVE_VECTOR_STORE_PROVIDER", "qdrant")
		defer os.Unsetenv("PENSIEVE_VECTOR_STORE_PROVIDER")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("vector_store.provider")).To(Equal("qdrant"))
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		fs := config.FlagSet{
			config.FlagAPIListenStandalone: {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for API server to listen on"},
		}

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, fs, config.FlagAPIListenStandalone, &listen)

		// Simulate flag being set by user
		err = cmd.Flags().Set("listen", ":7777")
		Expect(err).NotTo(HaveOccurred())

		config.BindRegisteredFlags(v, cmd, fs, []string{config.FlagAPIListenStandalone})

		Expect(v.GetString("api.listen")).To(Equal(":7777"))
	})

	It("falls through to config when flag not set", func() {
		data := `[api]
listen = ":5555"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		fs := config.FlagSet{
			config.FlagAPIListenStandalone: {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for API server to listen on"},
		}

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, fs, config.FlagAPIListenStandalone, &listen)

		// Do NOT set the flag -- should fall through to config file value
		config.BindRegisteredFlags(v, cmd, fs, []string{config.FlagAPIListenStandalone})

		Expect(v.GetString("api.listen")).To(Equal(":5555"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		fs := config.FlagSet{}

		cmd := &cobra.Command{Use: "test"}

		// "nonexistent" is not in the FlagSet -- should be safely skipped
		config.BindRegisteredFlags(v, cmd, fs, []string{"nonexistent"})

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("api.listen")).To(Equal(defaults.API.Listen))
	})

	It("AddStringFlag pulls name, shorthand, and description from FlagSet", func() {
		fs := config.FlagSet{
			config.FlagAPITarget: {Name: "api-target", Shorthand: "a", ViperKey: "client.api_target", Description: "Pensieve API server URL"},
		}

		cmd := &cobra.Command{Use: "test"}
		var target string
		config.AddStringFlag(cmd, fs, config.FlagAPITarget, &target)

		f := cmd.Flags().Lookup("api-target")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("a"))
		Expect(f.Usage).To(Equal("Pensieve API server URL"))

		defaults := config.NewDefaultConfig()
		Expect(f.DefValue).To(Equal(defaults.Client.APITarget))
	})

	It("AddUintFlag works for embedding-dimensions", func() {
		fs := config.FlagSet{
			config.FlagEmbeddingDims: {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensionality"},
		}

		cmd := &cobra.Command{Use: "test"}
		var dims uint
		config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &dims)

		f := cmd.Flags().Lookup("embedding-dimensions")
		Expect(f).NotTo(BeNil())
		Expect(f.Usage).To(Equal("Embedding dimensionality"))
	})

	It("AddFloat64Flag works for min-similarity", func() {
		fs := config.FlagSet{
			config.FlagMinSimilarity: {Name: "min-similarity", ViperKey: "recall.min_similarity", Description: "Similarity acceptance floor"},
		}

		cmd := &cobra.Command{Use: "test"}
		var floor float64
		config.AddFloat64Flag(cmd, fs, config.FlagMinSimilarity, &floor)

		f := cmd.Flags().Lookup("min-similarity")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("0.35"))
	})
})

var _ = Describe("default merging via LoadConfig", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-defaults-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("fills in defaults for unset fields in a partial config", func() {
		// Config file only sets vector_store.provider; everything else
		// should get defaults.
		data := `version = 0

[vector_store]
provider = "qdrant"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		c, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := c.LoadConfig()
		Expect(err).NotTo(HaveOccurred())

		// Explicitly set value should be preserved.
		Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))

		// Unset fields should get defaults.
		defaults := config.NewDefaultConfig()
		Expect(cfg.Storage.Provider).To(Equal(defaults.Storage.Provider))
		Expect(cfg.API.Listen).To(Equal(defaults.API.Listen))
		Expect(cfg.Client.APITarget).To(Equal(defaults.Client.APITarget))
		Expect(cfg.Embedding.Provider).To(Equal(defaults.Embedding.Provider))
		Expect(cfg.Embedding.Dimensions).To(Equal(defaults.Embedding.Dimensions))
		Expect(cfg.Recall.MaxResults).To(Equal(defaults.Recall.MaxResults))
		Expect(cfg.Recall.MinSimilarity).To(Equal(defaults.Recall.MinSimilarity))
		Expect(cfg.Recall.CorpusWeight).To(Equal(defaults.Recall.CorpusWeight))
		Expect(cfg.Events.Provider).To(Equal(defaults.Events.Provider))
	})

	It("does not overwrite explicitly set values", func() {
		data := `version = 0

[api]
listen = ":9091"

[client]
api_target = "http://remote:9091"

[embedding]
provider = "ollama"
target = "http://remote:11434"
model = "nomic-embed-text"
dimensions = 1536

[recall]
max_results = 10
min_similarity = 0.5
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		c, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := c.LoadConfig()
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.API.Listen).To(Equal(":9091"))
		Expect(cfg.Client.APITarget).To(Equal("http://remote:9091"))
		Expect(cfg.Embedding.Target).To(Equal("http://remote:11434"))
		Expect(cfg.Embedding.Model).To(Equal("nomic-embed-text"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(1536)))
		Expect(cfg.Recall.MaxResults).To(Equal(uint(10)))
		Expect(cfg.Recall.MinSimilarity).To(Equal(0.5))
	})
})
