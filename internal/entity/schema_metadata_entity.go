package entity

// SchemaMetadata is the denormalized description of one table, cached in
// Redis so answers can be enriched without re-reading the catalog.
type SchemaMetadata struct {
	Table       string   `json:"table"`
	Columns     []string `json:"columns"`
	Description string   `json:"description,omitempty"`
}
