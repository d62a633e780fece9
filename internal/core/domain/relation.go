package domain

import "time"

// RelationEdge is a discovered similarity link between two documents.
// Edges are undirected: (A,B) and (B,A) are the same edge, and the pair
// is stored in normalised order (DocA < DocB lexically).
type RelationEdge struct {
	// DocA is the lexically smaller document ID.
	DocA string

	// DocB is the lexically larger document ID.
	DocB string

	// Similarity is the cosine similarity of the two document centroids.
	Similarity float64

	// DiscoveredAt is when the linker emitted this edge.
	DiscoveredAt time.Time
}

// NewRelationEdge builds an edge with the document pair normalised.
func NewRelationEdge(docA, docB string, similarity float64, at time.Time) RelationEdge {
	if docB < docA {
		docA, docB = docB, docA
	}
	return RelationEdge{
		DocA:         docA,
		DocB:         docB,
		Similarity:   similarity,
		DiscoveredAt: at,
	}
}

// Touches reports whether the edge references the given document.
func (e RelationEdge) Touches(docID string) bool {
	return e.DocA == docID || e.DocB == docID
}

// Other returns the document on the far side of the edge from docID,
// or empty when the edge does not touch docID.
func (e RelationEdge) Other(docID string) string {
	switch docID {
	case e.DocA:
		return e.DocB
	case e.DocB:
		return e.DocA
	}
	return ""
}
