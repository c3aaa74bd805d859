package service

import "github.com/noah-isme/tms-portal-api/internal/models"

// MatchKind classifies the outcome of a name correlation.
type MatchKind int

const (
	// MatchNone means no batch carried the key.
	MatchNone MatchKind = iota
	// MatchOne means exactly one batch carried the key.
	MatchOne
	// MatchAmbiguous means more than one batch carried the key. The last
	// match in iteration order is returned; callers must flag this rather
	// than silently resolve it, since the true fix is an upstream
	// identifier on the enrollment record.
	MatchAmbiguous
)

// MatchResult is the outcome of correlating one enrollment to the batch list.
type MatchResult struct {
	Kind  MatchKind
	Batch models.Batch
	Count int
}

// joinByKey correlates a key against the batch list using the provided
// extractor. Comparison is exact: case-sensitive, no trimming.
func joinByKey(batches []models.Batch, extract func(models.Batch) string, key string) MatchResult {
	result := MatchResult{Kind: MatchNone}
	for _, batch := range batches {
		if extract(batch) != key {
			continue
		}
		result.Batch = batch
		result.Count++
	}
	switch {
	case result.Count == 1:
		result.Kind = MatchOne
	case result.Count > 1:
		result.Kind = MatchAmbiguous
	}
	return result
}
