package refine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cillers/ledgerd/internal/model"
	"github.com/cillers/ledgerd/internal/store"
	"github.com/cillers/ledgerd/pkg/anthropic"
)

// ErrMappingParse marks a completion response that could not be parsed
// into a supplier mapping. The pass aborts before any update is issued.
var ErrMappingParse = eris.New("refine: malformed supplier mapping response")

// Enricher derives supplier names for transactions from their
// verification texts via a single batched completion call per pass.
type Enricher struct {
	Client    anthropic.Client
	Model     string
	MaxTokens int64
}

// supplierPair is one entry of the structured completion output.
type supplierPair struct {
	Text         string `json:"text"`
	SupplierName string `json:"supplier_name"`
}

// Run collects the distinct verification texts, asks the completion
// client for a text→supplier mapping, and fans updates out to every
// transaction matching each text. A failed or malformed completion
// aborts the pass with no updates; a store failure mid-fan-out leaves
// earlier updates in place.
func (e *Enricher) Run(ctx context.Context, st store.Store) (*model.EnrichSummary, error) {
	texts, err := st.DistinctVerificationTexts(ctx)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		zap.L().Info("enrichment skipped, no verification texts")
		return &model.EnrichSummary{Mappings: map[string]string{}}, nil
	}

	resp, err := e.Client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.Model,
		MaxTokens: e.MaxTokens,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildSupplierPrompt(texts)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "refine: supplier completion")
	}
	resp.Usage.LogCost(e.Model, "enrich")

	mapping, err := parseSupplierMapping(resp.Text())
	if err != nil {
		return nil, err
	}

	summary := &model.EnrichSummary{
		UniqueTexts: len(texts),
		Mappings:    mapping,
	}
	for text, supplier := range mapping {
		n, err := st.SetSupplierName(ctx, text, supplier)
		if err != nil {
			return nil, err
		}
		summary.Updated += int(n)
	}

	zap.L().Info("enrichment complete",
		zap.Int("unique_texts", summary.UniqueTexts),
		zap.Int("updated", summary.Updated),
		zap.Int("mappings", len(mapping)),
	)
	return summary, nil
}

// buildSupplierPrompt embeds the full enumerated text list with a
// strict output-format instruction.
func buildSupplierPrompt(texts []string) string {
	var sb strings.Builder
	sb.WriteString("You are classifying accounting verification texts from a Swedish ledger.\n")
	sb.WriteString("For each text below, identify the supplier (company) it refers to.\n\nTexts:\n")
	for i, t := range texts {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, t)
	}
	sb.WriteString("\nRespond with ONLY a JSON array, one object per input text, in this exact shape:\n")
	sb.WriteString(`[{"text": "<input text verbatim>", "supplier_name": "<supplier>"}]` + "\n")
	sb.WriteString(`Use "Unknown" as supplier_name when you cannot determine one confidently.` + "\n")
	return sb.String()
}

// parseSupplierMapping extracts the text→supplier mapping from the raw
// completion text. Duplicate texts in the response resolve
// last-write-wins; entries with an empty text or supplier are dropped.
func parseSupplierMapping(raw string) (map[string]string, error) {
	cleaned := cleanJSONArray(raw)

	var pairs []supplierPair
	if err := json.Unmarshal([]byte(cleaned), &pairs); err != nil {
		return nil, eris.Wrapf(ErrMappingParse, "unmarshal: %v", err)
	}

	mapping := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if p.Text == "" || p.SupplierName == "" {
			continue
		}
		mapping[p.Text] = p.SupplierName
	}
	return mapping, nil
}

// cleanJSONArray strips an optional markdown code fence (with or
// without a language tag) and isolates the JSON array.
func cleanJSONArray(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
