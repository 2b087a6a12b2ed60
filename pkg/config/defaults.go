package config

const (
	defaultStorageProvider = "sqlite"

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultVectorProvider   = "chroma"
	defaultVectorTarget     = "http://localhost:8000"
	defaultVectorCollection = "pensieve"

	defaultCorpusCollection = "markdown_chunks"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "embeddinggemma"
	defaultEmbeddingDimensions = 768

	defaultRecallMaxResults    = 3
	defaultRecallMinSimilarity = 0.35
	defaultRecallCorpusWeight  = 0.8

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "pensieve.memory"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Target:     defaultVectorTarget,
			Collection: defaultVectorCollection,
		},
		Corpus: CorpusConfig{
			Enabled:    true,
			Collection: defaultCorpusCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Recall: RecallConfig{
			MaxResults:    defaultRecallMaxResults,
			MinSimilarity: defaultRecallMinSimilarity,
			CorpusWeight:  defaultRecallCorpusWeight,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
