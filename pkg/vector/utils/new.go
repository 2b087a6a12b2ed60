package vectorutils

import (
	"fmt"
	"log/slog"

	"github.com/pensieveco/pensieve/pkg/embeddings"
	"github.com/pensieveco/pensieve/pkg/vector"
	"github.com/pensieveco/pensieve/pkg/vector/chroma"
	"github.com/pensieveco/pensieve/pkg/vector/qdrant"
	"github.com/pensieveco/pensieve/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string
	TargetURL    string
	Host         string
	Port         int
	DBPath       string
	Collection   string
	Dimensions   uint

	// Embedder is required for providers without server-side embedding
	// (qdrant, sqlitevec).
	Embedder embeddings.Embedder

	Logger *slog.Logger
}

func NewVectorDriver(o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "chroma":
		return chroma.NewDriver(chroma.Config{
			URL:            o.TargetURL,
			CollectionName: o.Collection,
		}, o.Logger)
	case "qdrant":
		return qdrant.NewDriver(qdrant.Config{
			Host:           o.Host,
			Port:           o.Port,
			CollectionName: o.Collection,
			Dimensions:     uint64(o.Dimensions),
		}, o.Embedder, o.Logger)
	case "sqlitevec":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: o.Dimensions,
		}, o.Embedder, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
