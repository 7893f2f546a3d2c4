// Package news fetches market headlines shown next to the portfolio.
package news

import (
	"context"

	"github.com/cleared-dev/folio/internal/model"
)

// DefaultLimit caps the number of headlines returned by a search.
const DefaultLimit = 5

// Source searches for headlines matching a query.
type Source interface {
	Search(ctx context.Context, query string) ([]model.Article, error)
}

// ViewState tracks which keyword the headline panel is showing.
type ViewState struct {
	Keywords []string
	Selected string
}

// NewViewState starts with no explicit selection.
func NewViewState(keywords []string) ViewState {
	return ViewState{Keywords: append([]string(nil), keywords...)}
}

// Query returns the selected keyword, or the first keyword when nothing is
// selected.
func (v ViewState) Query() string {
	if v.Selected != "" {
		return v.Selected
	}
	if len(v.Keywords) > 0 {
		return v.Keywords[0]
	}
	return ""
}

// Select returns a copy of v with k selected. Keywords outside the list are
// accepted as free-text searches.
func (v ViewState) Select(k string) ViewState {
	v.Keywords = append([]string(nil), v.Keywords...)
	v.Selected = k
	return v
}
