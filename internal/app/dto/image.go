package dto

import (
	"time"

	domainvillas "villarent/internal/domain/villas"
)

type VillaImage struct {
	ID          string    `json:"id"`
	VillaID     string    `json:"villa_id"`
	URL         string    `json:"url"`
	Alt         string    `json:"alt"`
	Primary     bool      `json:"is_primary"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type VillaImageCollection struct {
	Items []VillaImage `json:"items"`
}

// MapImages keeps the primary image first.
func MapImages(images []*domainvillas.Image) []VillaImage {
	sorted := append([]*domainvillas.Image(nil), images...)
	domainvillas.SortImages(sorted)
	out := make([]VillaImage, 0, len(sorted))
	for _, img := range sorted {
		out = append(out, MapImage(img))
	}
	return out
}

func MapImage(img *domainvillas.Image) VillaImage {
	return VillaImage{
		ID:          string(img.ID),
		VillaID:     string(img.VillaID),
		URL:         img.URL,
		Alt:         img.Alt,
		Primary:     img.Primary,
		Size:        img.Size,
		ContentType: img.ContentType,
		CreatedAt:   img.CreatedAt,
	}
}
