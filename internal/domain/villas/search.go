package villas

import (
	"strings"
)

// CatalogSort defines a supported ordering.
type CatalogSort string

const (
	SortByPriceAsc  CatalogSort = "price_asc"
	SortByPriceDesc CatalogSort = "price_desc"
	SortByRating    CatalogSort = "rating_desc"
	SortByNewest    CatalogSort = "newest"

	defaultSearchLimit = 12
	maxSearchLimit     = 60
)

// SearchParams describe catalog filters and paging options.
type SearchParams struct {
	Query      string
	Location   string
	Amenities  []string
	MinGuests  int
	PriceMin   int64
	PriceMax   int64
	Sort       CatalogSort
	Page       int
	Limit      int
	OnlyActive bool
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	n := p
	n.Query = strings.TrimSpace(strings.ToLower(n.Query))
	n.Location = strings.TrimSpace(strings.ToLower(n.Location))
	n.Amenities = normalizeTokens(n.Amenities)
	if n.MinGuests < 0 {
		n.MinGuests = 0
	}
	if n.PriceMin < 0 {
		n.PriceMin = 0
	}
	if n.PriceMax > 0 && n.PriceMax < n.PriceMin {
		n.PriceMax = 0
	}
	if n.Limit <= 0 {
		n.Limit = defaultSearchLimit
	}
	if n.Limit > maxSearchLimit {
		n.Limit = maxSearchLimit
	}
	if n.Page < 1 {
		n.Page = 1
	}
	switch n.Sort {
	case SortByPriceAsc, SortByPriceDesc, SortByRating, SortByNewest:
	default:
		n.Sort = SortByNewest
	}
	return n
}

func (p SearchParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Matches applies the filters of normalized params to one villa.
func (p SearchParams) Matches(v *Villa) bool {
	if p.OnlyActive && !v.IsActive() {
		return false
	}
	if p.Query != "" {
		if !strings.Contains(strings.ToLower(v.Name), p.Query) && !strings.Contains(strings.ToLower(v.Location), p.Query) {
			return false
		}
	}
	if p.Location != "" && !strings.Contains(strings.ToLower(v.Location), p.Location) {
		return false
	}
	if p.MinGuests > 0 && v.MaxGuests < p.MinGuests {
		return false
	}
	if p.PriceMin > 0 && v.BasePrice.Amount < p.PriceMin {
		return false
	}
	if p.PriceMax > 0 && v.BasePrice.Amount > p.PriceMax {
		return false
	}
	return tokensMatch(v.Amenities, p.Amenities)
}

// Less orders two villas according to the requested sort.
func (p SearchParams) Less(a, b *Villa) bool {
	switch p.Sort {
	case SortByPriceAsc:
		if a.BasePrice.Amount == b.BasePrice.Amount {
			return a.Rating > b.Rating
		}
		return a.BasePrice.Amount < b.BasePrice.Amount
	case SortByPriceDesc:
		if a.BasePrice.Amount == b.BasePrice.Amount {
			return a.Rating > b.Rating
		}
		return a.BasePrice.Amount > b.BasePrice.Amount
	case SortByRating:
		if a.Rating == b.Rating {
			return a.BasePrice.Amount < b.BasePrice.Amount
		}
		return a.Rating > b.Rating
	default:
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	}
}

// SearchResult wraps search hits with paging meta.
type SearchResult struct {
	Items []*Villa
	Total int
}

func (r SearchResult) TotalPages(limit int) int {
	if limit <= 0 {
		return 0
	}
	return (r.Total + limit - 1) / limit
}

func normalizeTokens(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(strings.ToLower(token))
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

func tokensMatch(values []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(values))
	for _, v := range values {
		have[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	for _, r := range required {
		if _, ok := have[r]; !ok {
			return false
		}
	}
	return true
}
