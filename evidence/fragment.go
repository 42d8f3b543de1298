// Package evidence models retrieved source fragments, the admissibility
// filter that gates them, and the serialized evidence pack handed to the
// writer.
package evidence

import "github.com/hrops-ai/copilot/citation"

// Fragment is one retrieved unit of source text with provenance. Fragments
// are created per query by the document store, never mutated, and discarded
// after the pipeline run.
type Fragment struct {
	Text     string   `json:"text"`
	Citation string   `json:"citation"` // canonical bracketed rendering
	ChunkID  string   `json:"chunk_id"` // stable identity, survives formatting changes
	Distance *float64 `json:"distance,omitempty"`
	DocName  string   `json:"doc_name"`
	Page     int      `json:"page,omitempty"`
	HasPage  bool     `json:"-"`
}

// NewFragment builds a fragment and its canonical citation string.
func NewFragment(text, docName, chunkID string) Fragment {
	return Fragment{
		Text:     text,
		Citation: citation.New(docName, chunkID).Format(),
		ChunkID:  chunkID,
		DocName:  docName,
	}
}

// NewPagedFragment builds a fragment from a paged source.
func NewPagedFragment(text, docName, chunkID string, page int) Fragment {
	return Fragment{
		Text:     text,
		Citation: citation.NewPaged(docName, chunkID, page).Format(),
		ChunkID:  chunkID,
		DocName:  docName,
		Page:     page,
		HasPage:  true,
	}
}

// WithDistance returns a copy carrying a similarity distance (lower is more
// relevant).
func (f Fragment) WithDistance(d float64) Fragment {
	f.Distance = &d
	return f
}

// ChunkIDs returns the set of chunk ids present in the fragment list.
func ChunkIDs(fragments []Fragment) map[string]struct{} {
	ids := make(map[string]struct{}, len(fragments))
	for _, f := range fragments {
		if f.ChunkID != "" {
			ids[f.ChunkID] = struct{}{}
		}
	}
	return ids
}

// CitationByChunkID maps each chunk id to its full citation string, used by
// the writer post-processing step to repair bare chunk-id citations.
func CitationByChunkID(fragments []Fragment) map[string]string {
	m := make(map[string]string, len(fragments))
	for _, f := range fragments {
		if f.ChunkID != "" && f.Citation != "" {
			m[f.ChunkID] = f.Citation
		}
	}
	return m
}

// UniqueCitations returns the deduplicated citation strings in fragment
// order.
func UniqueCitations(fragments []Fragment) []string {
	seen := make(map[string]struct{}, len(fragments))
	var out []string
	for _, f := range fragments {
		if f.Citation == "" {
			continue
		}
		if _, ok := seen[f.Citation]; ok {
			continue
		}
		seen[f.Citation] = struct{}{}
		out = append(out, f.Citation)
	}
	return out
}
