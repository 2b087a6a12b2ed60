// Package servecmder provides the serve command for running the pensieve
// API and MCP servers.
package servecmder

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pensieveco/pensieve/api"
	"github.com/pensieveco/pensieve/api/mcp"
	"github.com/pensieveco/pensieve/pkg/config"
	"github.com/pensieveco/pensieve/pkg/linkgraph"
	"github.com/pensieveco/pensieve/pkg/logger"
	"github.com/pensieveco/pensieve/pkg/perspective"
	"github.com/pensieveco/pensieve/pkg/recall"
	"github.com/pensieveco/pensieve/pkg/reinforce"
	"github.com/pensieveco/pensieve/pkg/tier"
)

// serveFlags is the flag registry for the serve command. Every entry maps a
// CLI flag onto its dotted viper key so flag > env > config file > default
// precedence holds.
var serveFlags = config.FlagSet{
	config.FlagAPIListen:       {Name: "api-listen", Shorthand: "a", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	config.FlagStorageProvider: {Name: "storage-provider", ViperKey: "storage.provider", Description: "State storage provider (sqlite, postgres, inmemory)"},
	config.FlagSQLite:          {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to the SQLite state database"},
	config.FlagPostgresDSN:     {Name: "postgres-dsn", ViperKey: "storage.postgres_dsn", Description: "Postgres connection string"},
	config.FlagArchiveDir:      {Name: "archive-dir", ViperKey: "storage.archive_dir", Description: "Directory for archived verbatim payloads"},
	config.FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Vector store provider (chroma, qdrant, sqlitevec)"},
	config.FlagVectorStoreTgt:  {Name: "vector-store-target", Shorthand: "t", ViperKey: "vector_store.target", Description: "Vector store URL, host, or database path"},
	config.FlagVectorStorePort: {Name: "vector-store-port", ViperKey: "vector_store.port", Description: "Vector store port (qdrant gRPC)"},
	config.FlagVectorStoreColl: {Name: "vector-store-collection", ViperKey: "vector_store.collection", Description: "Vector store collection name"},
	config.FlagCorpusTarget:    {Name: "corpus-target", ViperKey: "corpus.target", Description: "Chroma URL for the markdown corpus (defaults to the vector store target)"},
	config.FlagCorpusColl:      {Name: "corpus-collection", ViperKey: "corpus.collection", Description: "Markdown corpus collection name"},
	config.FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama)"},
	config.FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding API URL"},
	config.FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	config.FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding vector dimensions"},
	config.FlagCorpusWeight:    {Name: "corpus-weight", ViperKey: "recall.corpus_weight", Description: "Weight applied to corpus chunk scores in hybrid recall"},
	config.FlagEventsProvider:  {Name: "events-provider", ViperKey: "events.provider", Description: "Memory event publisher (nop, kafka)"},
	config.FlagEventsBrokers:   {Name: "events-brokers", ViperKey: "events.brokers", Description: "Comma-separated Kafka broker addresses"},
	config.FlagEventsTopic:     {Name: "events-topic", ViperKey: "events.topic", Description: "Kafka topic for memory events"},
}

// serveFlagKeys lists the registry keys bound to viper in PreRunE.
var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagStorageProvider,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagArchiveDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagVectorStorePort,
	config.FlagVectorStoreColl,
	config.FlagCorpusTarget,
	config.FlagCorpusColl,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagCorpusWeight,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

type ServeCommander struct {
	apiListen string
	mcpListen string
	noMCP     bool

	storageProvider string
	sqlitePath      string
	postgresDSN     string
	archiveDir      string

	vectorProvider   string
	vectorTarget     string
	vectorPort       uint
	vectorCollection string

	corpusEnabled    bool
	corpusTarget     string
	corpusCollection string

	embeddingProvider   string
	embeddingTarget     string
	embeddingModel      string
	embeddingDimensions uint

	corpusWeight float64

	eventsProvider string
	eventsBrokers  string
	eventsTopic    string

	configDir string
	debug     bool
	logger    *slog.Logger
}

const serveLongDesc string = `Run the pensieve memory servers.

Starts the REST API server and, unless --no-mcp is given, the MCP server
exposing the memory_recall, memory_boost, and memory_link tools.

Every flag falls back to the PENSIEVE_* environment variable, then the
config.toml in the .pensieve/ directory, then the built-in default.`

const serveShortDesc string = "Run the pensieve API and MCP servers"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)

			cmder.apiListen = v.GetString("api.listen")
			cmder.storageProvider = v.GetString("storage.provider")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.postgresDSN = v.GetString("storage.postgres_dsn")
			cmder.archiveDir = v.GetString("storage.archive_dir")
			cmder.vectorProvider = v.GetString("vector_store.provider")
			cmder.vectorTarget = v.GetString("vector_store.target")
			cmder.vectorPort = v.GetUint("vector_store.port")
			cmder.vectorCollection = v.GetString("vector_store.collection")
			cmder.corpusEnabled = v.GetBool("corpus.enabled")
			cmder.corpusTarget = v.GetString("corpus.target")
			cmder.corpusCollection = v.GetString("corpus.collection")
			cmder.embeddingProvider = v.GetString("embedding.provider")
			cmder.embeddingTarget = v.GetString("embedding.target")
			cmder.embeddingModel = v.GetString("embedding.model")
			cmder.embeddingDimensions = v.GetUint("embedding.dimensions")
			cmder.corpusWeight = v.GetFloat64("recall.corpus_weight")
			cmder.eventsProvider = v.GetString("events.provider")
			cmder.eventsBrokers = v.GetString("events.brokers")
			cmder.eventsTopic = v.GetString("events.topic")

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &cmder.apiListen)
	config.AddStringFlag(cmd, serveFlags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, serveFlags, config.FlagArchiveDir, &cmder.archiveDir)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreProv, &cmder.vectorProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddUintFlag(cmd, serveFlags, config.FlagVectorStorePort, &cmder.vectorPort)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreColl, &cmder.vectorCollection)
	config.AddStringFlag(cmd, serveFlags, config.FlagCorpusTarget, &cmder.corpusTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagCorpusColl, &cmder.corpusCollection)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, serveFlags, config.FlagEmbeddingDims, &cmder.embeddingDimensions)
	config.AddFloat64Flag(cmd, serveFlags, config.FlagCorpusWeight, &cmder.corpusWeight)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsTopic, &cmder.eventsTopic)

	cmd.Flags().StringVarP(&cmder.mcpListen, "mcp-listen", "m", ":8082", "Address for the MCP server to listen on")
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Disable the MCP server")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	deps, err := c.buildBackends()
	if err != nil {
		return err
	}
	defer deps.Close()

	tracker, err := reinforce.NewTracker(reinforce.Config{
		Store:    deps.state,
		Memories: deps.memories,
		Events:   deps.events,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating reinforcement tracker: %w", err)
	}

	links, err := linkgraph.NewManager(linkgraph.Config{
		Store:   deps.state,
		Tracker: tracker,
		Events:  deps.events,
		Logger:  c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating link manager: %w", err)
	}

	tiers, err := tier.NewManager(tier.Config{
		Store:    deps.state,
		Tracker:  tracker,
		Memories: deps.memories,
		Archive:  deps.archive,
		Events:   deps.events,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating tier manager: %w", err)
	}

	perspectives, err := perspective.NewManager(perspective.Config{
		Store:  deps.state,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating perspective manager: %w", err)
	}

	engine, err := recall.NewEngine(recall.Config{
		Vector:       deps.vector,
		Tracker:      tracker,
		Corpus:       deps.corpus,
		Perspectives: perspectives,
		Memories:     deps.memories,
		CorpusWeight: c.corpusWeight,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating recall engine: %w", err)
	}

	apiServer := api.NewServer(api.Config{
		ListenAddr: c.apiListen,
	}, engine, tracker, links, tiers, c.logger)

	mcpServer, err := mcp.NewServer(mcp.Config{
		Engine:  engine,
		Tracker: tracker,
		Links:   links,
		Noop:    c.noMCP,
		Logger:  c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	errChan := make(chan error, 2)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	if !c.noMCP {
		c.logger.Info("starting MCP server", "listen", c.mcpListen)
		go func() {
			if err := http.ListenAndServe(c.mcpListen, mcpServer.Handler()); err != nil {
				errChan <- fmt.Errorf("MCP server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return apiServer.Shutdown()
	}
}
