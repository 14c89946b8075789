package model

// ImportSummary reports the outcome of one CSV ingestion batch.
type ImportSummary struct {
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Replaced int    `json:"replaced"`
	Message  string `json:"message"`
}

// PromoteSummary reports the outcome of one promotion pass.
type PromoteSummary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Created   int `json:"created"`
}

// EnrichSummary reports the outcome of one enrichment pass. Mappings is
// the full text→supplier mapping returned by the completion call; it is
// included for debugging and is not persisted itself.
type EnrichSummary struct {
	UniqueTexts int               `json:"unique_texts_processed"`
	Updated     int               `json:"transactions_updated"`
	Mappings    map[string]string `json:"supplier_mappings"`
}
