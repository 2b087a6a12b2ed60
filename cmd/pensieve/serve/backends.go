package servecmder

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pensieveco/pensieve/pkg/archive"
	archivefs "github.com/pensieveco/pensieve/pkg/archive/fs"
	"github.com/pensieveco/pensieve/pkg/corpus"
	corpuschroma "github.com/pensieveco/pensieve/pkg/corpus/chroma"
	"github.com/pensieveco/pensieve/pkg/dotdir"
	"github.com/pensieveco/pensieve/pkg/embeddings"
	"github.com/pensieveco/pensieve/pkg/embeddings/ollama"
	"github.com/pensieveco/pensieve/pkg/eventstream"
	eventkafka "github.com/pensieveco/pensieve/pkg/eventstream/kafka"
	eventnop "github.com/pensieveco/pensieve/pkg/eventstream/nop"
	"github.com/pensieveco/pensieve/pkg/memstore"
	memstoreinmemory "github.com/pensieveco/pensieve/pkg/memstore/inmemory"
	memstoresqlite "github.com/pensieveco/pensieve/pkg/memstore/sqlite"
	"github.com/pensieveco/pensieve/pkg/repo"
	repoinmemory "github.com/pensieveco/pensieve/pkg/repo/inmemory"
	repopostgres "github.com/pensieveco/pensieve/pkg/repo/postgres"
	reposqlite "github.com/pensieveco/pensieve/pkg/repo/sqlite"
	"github.com/pensieveco/pensieve/pkg/vector"
	vectorchroma "github.com/pensieveco/pensieve/pkg/vector/chroma"
	vectorqdrant "github.com/pensieveco/pensieve/pkg/vector/qdrant"
	vectorsqlitevec "github.com/pensieveco/pensieve/pkg/vector/sqlitevec"
)

// backends bundles every external collaborator the servers run on.
type backends struct {
	state    repo.Store
	memories memstore.Store
	archive  archive.Store
	events   eventstream.Publisher
	vector   vector.Driver
	corpus   corpus.Searcher

	closers []func() error
}

// Close releases backends in reverse construction order.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

func (c *ServeCommander) buildBackends() (*backends, error) {
	b := &backends{}

	if err := c.buildState(b); err != nil {
		b.Close()
		return nil, err
	}
	if err := c.buildArchive(b); err != nil {
		b.Close()
		return nil, err
	}
	if err := c.buildEvents(b); err != nil {
		b.Close()
		return nil, err
	}
	if err := c.buildVector(b); err != nil {
		b.Close()
		return nil, err
	}
	if err := c.buildCorpus(b); err != nil {
		b.Close()
		return nil, err
	}

	return b, nil
}

// buildState creates the state repository and the memory store. The sqlite
// provider shares one database file between them.
func (c *ServeCommander) buildState(b *backends) error {
	switch c.storageProvider {
	case "sqlite", "":
		dbPath, err := c.resolveSQLitePath()
		if err != nil {
			return err
		}

		state, err := reposqlite.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("creating sqlite state store: %w", err)
		}
		b.state = state
		b.closers = append(b.closers, state.Close)

		memories, err := memstoresqlite.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("creating sqlite memory store: %w", err)
		}
		b.memories = memories
		b.closers = append(b.closers, memories.Close)

		c.logger.Info("using SQLite storage", "path", dbPath)

	case "postgres":
		if c.postgresDSN == "" {
			return fmt.Errorf("postgres storage requires --postgres-dsn")
		}

		state, err := repopostgres.NewStore(context.Background(), c.postgresDSN)
		if err != nil {
			return fmt.Errorf("creating postgres state store: %w", err)
		}
		b.state = state
		b.closers = append(b.closers, state.Close)

		// Memory records stay local even with postgres state.
		dbPath, err := c.resolveSQLitePath()
		if err != nil {
			return err
		}
		memories, err := memstoresqlite.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("creating sqlite memory store: %w", err)
		}
		b.memories = memories
		b.closers = append(b.closers, memories.Close)

		c.logger.Info("using Postgres state storage")

	case "inmemory", "memory":
		state := repoinmemory.NewStore()
		b.state = state
		b.closers = append(b.closers, state.Close)

		memories := memstoreinmemory.NewStore()
		b.memories = memories
		b.closers = append(b.closers, memories.Close)

		c.logger.Info("using in-memory storage")

	default:
		return fmt.Errorf("unknown storage provider: %q", c.storageProvider)
	}

	return nil
}

func (c *ServeCommander) buildArchive(b *backends) error {
	dir := c.archiveDir
	if dir == "" {
		var err error
		dir, err = dotdir.NewManager().ArchiveDir(c.configDir)
		if err != nil {
			return fmt.Errorf("resolving archive directory: %w", err)
		}
	}

	store, err := archivefs.NewStore(dir)
	if err != nil {
		return fmt.Errorf("creating verbatim archive: %w", err)
	}
	b.archive = store

	return nil
}

func (c *ServeCommander) buildEvents(b *backends) error {
	switch c.eventsProvider {
	case "kafka":
		brokers := strings.Split(c.eventsBrokers, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}

		pub, err := eventkafka.NewPublisher(eventkafka.Config{
			Brokers: brokers,
			Topic:   c.eventsTopic,
			Logger:  c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating kafka publisher: %w", err)
		}
		b.events = pub
		b.closers = append(b.closers, pub.Close)

		c.logger.Info("publishing memory events to Kafka", "brokers", brokers, "topic", c.eventsTopic)

	case "nop", "":
		b.events = eventnop.NewPublisher()

	default:
		return fmt.Errorf("unknown events provider: %q", c.eventsProvider)
	}

	return nil
}

func (c *ServeCommander) buildVector(b *backends) error {
	switch c.vectorProvider {
	case "chroma", "":
		driver, err := vectorchroma.NewDriver(vectorchroma.Config{
			URL:            c.vectorTarget,
			CollectionName: c.vectorCollection,
		}, c.logger)
		if err != nil {
			return fmt.Errorf("creating chroma vector driver: %w", err)
		}
		b.vector = driver
		b.closers = append(b.closers, driver.Close)

	case "qdrant":
		embedder, err := c.buildEmbedder()
		if err != nil {
			return err
		}

		driver, err := vectorqdrant.NewDriver(vectorqdrant.Config{
			Host:           c.vectorTarget,
			Port:           int(c.vectorPort),
			CollectionName: c.vectorCollection,
			Dimensions:     uint64(c.embeddingDimensions),
		}, embedder, c.logger)
		if err != nil {
			return fmt.Errorf("creating qdrant vector driver: %w", err)
		}
		b.vector = driver
		b.closers = append(b.closers, driver.Close)

	case "sqlitevec":
		embedder, err := c.buildEmbedder()
		if err != nil {
			return err
		}

		dbPath := c.vectorTarget
		if dbPath == "" || strings.HasPrefix(dbPath, "http") {
			dir, err := dotdir.NewManager().Target(c.configDir)
			if err != nil {
				return fmt.Errorf("resolving vector database path: %w", err)
			}
			dbPath = filepath.Join(dir, "vectors.db")
		}

		driver, err := vectorsqlitevec.NewDriver(vectorsqlitevec.Config{
			DBPath:     dbPath,
			Dimensions: c.embeddingDimensions,
		}, embedder, c.logger)
		if err != nil {
			return fmt.Errorf("creating sqlite-vec vector driver: %w", err)
		}
		b.vector = driver
		b.closers = append(b.closers, driver.Close)

	default:
		return fmt.Errorf("unknown vector store provider: %q", c.vectorProvider)
	}

	return nil
}

// buildCorpus creates the markdown corpus searcher. The corpus is Chroma-only
// and shares the vector store server unless corpus.target overrides it.
func (c *ServeCommander) buildCorpus(b *backends) error {
	if !c.corpusEnabled || c.vectorProvider == "sqlitevec" || c.vectorProvider == "qdrant" {
		return nil
	}

	target := c.corpusTarget
	if target == "" {
		target = c.vectorTarget
	}

	store, err := corpuschroma.NewStore(corpuschroma.Config{
		URL:            target,
		CollectionName: c.corpusCollection,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating corpus store: %w", err)
	}
	b.corpus = store
	b.closers = append(b.closers, store.Close)

	return nil
}

func (c *ServeCommander) buildEmbedder() (embeddings.Embedder, error) {
	switch c.embeddingProvider {
	case "ollama", "":
		embedder, err := ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: c.embeddingTarget,
			Model:   c.embeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("creating ollama embedder: %w", err)
		}
		return embedder, nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", c.embeddingProvider)
	}
}

// resolveSQLitePath returns the configured state database path, defaulting to
// pensieve.db inside the resolved .pensieve/ directory.
func (c *ServeCommander) resolveSQLitePath() (string, error) {
	if c.sqlitePath != "" {
		return c.sqlitePath, nil
	}

	dir, err := dotdir.NewManager().Target(c.configDir)
	if err != nil {
		return "", fmt.Errorf("resolving state database path: %w", err)
	}

	return filepath.Join(dir, "pensieve.db"), nil
}
