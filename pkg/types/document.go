// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the review-engine pipeline.
package types

// Author is a single paper author as returned by the search provider.
type Author struct {
	Name string `json:"name" yaml:"name"`
}

// Document represents a paper returned by the search provider. Documents are
// immutable once returned; every document cited in a report must have come
// from a provider call within the same synthesis run.
type Document struct {
	// ID is the provider's canonical paper identifier.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract. May be empty when the provider has none.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Authors lists the paper authors in provider order.
	Authors []Author `json:"authors" yaml:"authors"`

	// URL is the provider's landing page for the paper.
	URL string `json:"url" yaml:"url"`

	// Year is the publication year, zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// CitationCount is the provider's citation count, zero when unknown.
	CitationCount int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`
}

// AuthorNames returns the author names in order.
func (d Document) AuthorNames() []string {
	names := make([]string, 0, len(d.Authors))
	for _, a := range d.Authors {
		names = append(names, a.Name)
	}
	return names
}
