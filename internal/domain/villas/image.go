package villas

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

// MaxImageSize caps a single uploaded photo.
const MaxImageSize int64 = 5 * 1024 * 1024

var (
	ErrImageNotFound    = errors.New("villas: image not found")
	ErrImageTooLarge    = errors.New("villas: image exceeds 5MB")
	ErrImageEmpty       = errors.New("villas: image is empty")
	ErrImageType        = errors.New("villas: image type must be jpeg, png or webp")
	ErrImageKeyRequired = errors.New("villas: image object key is required")
)

type ImageID string

type Image struct {
	ID          ImageID
	VillaID     VillaID
	ObjectKey   string
	URL         string
	Alt         string
	Primary     bool
	Size        int64
	ContentType string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ExternalKeyPrefix marks images served from a URL outside the bucket, such
// as seeded photos on a CDN. Their key never reaches object storage.
const ExternalKeyPrefix = "external:"

// ExternalKey is the object key recorded for an externally hosted image.
func ExternalKey(id ImageID) string {
	return ExternalKeyPrefix + string(id)
}

// Hosted reports whether the image binary lives in the bucket.
func (i *Image) Hosted() bool {
	return i.ObjectKey != "" && !strings.HasPrefix(i.ObjectKey, ExternalKeyPrefix)
}

// ImageRepository stores image metadata; binaries live in object storage.
type ImageRepository interface {
	ByID(ctx context.Context, villaID VillaID, id ImageID) (*Image, error)
	ListByVilla(ctx context.Context, villaID VillaID) ([]*Image, error)
	Save(ctx context.Context, image *Image) error
	Delete(ctx context.Context, villaID VillaID, id ImageID) error
	// UnsetPrimary clears the primary flag on every image of the villa except keep.
	UnsetPrimary(ctx context.Context, villaID VillaID, keep ImageID) error
}

// ImageExtension maps an accepted content type to its file extension.
func ImageExtension(contentType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	default:
		return "", ErrImageType
	}
}

// ValidateUpload checks the size and type limits for a photo.
func ValidateUpload(size int64, contentType string) error {
	if size <= 0 {
		return ErrImageEmpty
	}
	if size > MaxImageSize {
		return ErrImageTooLarge
	}
	_, err := ImageExtension(contentType)
	return err
}

// SortImages puts the primary image first, then newest first.
func SortImages(images []*Image) {
	sort.SliceStable(images, func(i, j int) bool {
		if images[i].Primary != images[j].Primary {
			return images[i].Primary
		}
		return images[i].CreatedAt.After(images[j].CreatedAt)
	})
}
