// Package configcmder provides the config command for managing persistent
// pensieve configuration stored in the .pensieve/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent pensieve configuration.

Configuration is stored as config.toml in the .pensieve/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values, and PENSIEVE_* environment variables sit between
the two.

Keys use dotted notation matching the TOML section structure:
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  storage.archive_dir, api.listen, client.api_target,
  vector_store.provider, vector_store.target, vector_store.port,
  vector_store.collection, corpus.enabled, corpus.target,
  corpus.collection, embedding.provider, embedding.target,
  embedding.model, embedding.dimensions, recall.max_results,
  recall.min_similarity, recall.corpus_weight,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  pensieve config set <key> <value>    Set a configuration value
  pensieve config get <key>            Get a configuration value
  pensieve config list                 List all configuration values

Examples:
  pensieve config set vector_store.provider qdrant
  pensieve config set embedding.model nomic-embed-text
  pensieve config get recall.min_similarity
  pensieve config list`

const configShortDesc string = "Manage persistent pensieve configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
