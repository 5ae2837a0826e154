package dto

import (
	"time"

	"villarent/internal/domain/shared/money"
	domainvillas "villarent/internal/domain/villas"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency}
}

// VillaCatalog is a paginated collection of villa cards.
type VillaCatalog struct {
	Items []VillaCard   `json:"items"`
	Meta  CatalogMeta   `json:"meta"`
	Query CatalogFilter `json:"filters"`
}

type VillaCard struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    int       `json:"bathrooms"`
	MaxGuests    int       `json:"max_guests"`
	BasePrice    MoneyDTO  `json:"base_price"`
	Amenities    []string  `json:"amenities"`
	Rating       float64   `json:"rating"`
	State        string    `json:"state"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type CatalogFilter struct {
	Query     string   `json:"search,omitempty"`
	Location  string   `json:"location,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
	MinGuests int      `json:"min_guests,omitempty"`
	PriceMin  int64    `json:"price_min,omitempty"`
	PriceMax  int64    `json:"price_max,omitempty"`
}

type CatalogMeta struct {
	Total      int    `json:"total"`
	Count      int    `json:"count"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"total_pages"`
	Sort       string `json:"sort"`
}

type VillaDetail struct {
	VillaCard
	Description string       `json:"description"`
	Features    []string     `json:"features"`
	Images      []VillaImage `json:"images"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// MapCatalog builds the catalog page. thumbnails maps villa ids to the primary image URL.
func MapCatalog(result domainvillas.SearchResult, params domainvillas.SearchParams, thumbnails map[domainvillas.VillaID]string) VillaCatalog {
	n := params.Normalized()
	items := make([]VillaCard, 0, len(result.Items))
	for _, v := range result.Items {
		card := MapVillaCard(v)
		card.ThumbnailURL = thumbnails[v.ID]
		items = append(items, card)
	}
	return VillaCatalog{
		Items: items,
		Meta: CatalogMeta{
			Total:      result.Total,
			Count:      len(items),
			Page:       n.Page,
			Limit:      n.Limit,
			TotalPages: result.TotalPages(n.Limit),
			Sort:       string(n.Sort),
		},
		Query: CatalogFilter{
			Query:     n.Query,
			Location:  n.Location,
			Amenities: append([]string(nil), n.Amenities...),
			MinGuests: n.MinGuests,
			PriceMin:  n.PriceMin,
			PriceMax:  n.PriceMax,
		},
	}
}

func MapVillaCard(v *domainvillas.Villa) VillaCard {
	if v == nil {
		return VillaCard{}
	}
	return VillaCard{
		ID:        string(v.ID),
		Slug:      v.Slug,
		Name:      v.Name,
		Location:  v.Location,
		Bedrooms:  v.Bedrooms,
		Bathrooms: v.Bathrooms,
		MaxGuests: v.MaxGuests,
		BasePrice: MapMoney(v.BasePrice),
		Amenities: append([]string(nil), v.Amenities...),
		Rating:    v.Rating,
		State:     string(v.State),
		CreatedAt: v.CreatedAt,
	}
}

func MapVillaDetail(v *domainvillas.Villa, images []*domainvillas.Image) VillaDetail {
	detail := VillaDetail{
		VillaCard:   MapVillaCard(v),
		Description: v.Description,
		Features:    append([]string(nil), v.Features...),
		Images:      MapImages(images),
		UpdatedAt:   v.UpdatedAt,
	}
	if len(detail.Images) > 0 {
		detail.ThumbnailURL = detail.Images[0].URL
	}
	return detail
}
