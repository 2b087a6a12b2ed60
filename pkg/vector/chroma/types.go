package chroma

// collectionResponse represents a Chroma collection.
type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// addRequest is the request body for adding documents. Embeddings are
// computed server-side from the documents.
type addRequest struct {
	IDs       []string         `json:"ids"`
	Documents []string         `json:"documents"`
	Metadatas []map[string]any `json:"metadatas,omitempty"`
}

// queryRequest is the request body for querying by text.
type queryRequest struct {
	QueryTexts []string `json:"query_texts"`
	NResults   int      `json:"n_results"`
	Include    []string `json:"include"`
}

// queryResponse is the response from a query.
type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float64        `json:"distances"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Documents [][]string         `json:"documents"`
}

// deleteRequest is the request body for deleting documents.
type deleteRequest struct {
	IDs []string `json:"ids"`
}
