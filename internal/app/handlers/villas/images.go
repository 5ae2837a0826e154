package villas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"villarent/internal/app/apperr"
	"villarent/internal/app/commands"
	"villarent/internal/app/dto"
	"villarent/internal/app/handlers/support"
	"villarent/internal/app/policies"
	"villarent/internal/app/queries"
	"villarent/internal/app/uow"
	domainvillas "villarent/internal/domain/villas"
)

const (
	listImagesKey  = "admin.villas.images.list"
	uploadImageKey = "admin.villas.images.upload"
	updateImageKey = "admin.villas.images.update"
	deleteImageKey = "admin.villas.images.delete"
)

var ErrImageStoreUnavailable = apperr.Wrap(apperr.KindServiceUnavailable, errors.New("villas: image storage is not configured"))

type ListImagesQuery struct {
	VillaID string `validate:"required"`
}

func (q ListImagesQuery) Key() string { return listImagesKey }

func (ListImagesQuery) AdminOnly() {}

type ListImagesHandler struct {
	UoWFactory uow.UoWFactory
	Timeout    time.Duration
}

func (h *ListImagesHandler) Handle(ctx context.Context, q ListImagesQuery) (dto.VillaImageCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.VillaImageCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	villa, err := loadVilla(execCtx, unit, h.Timeout, q.VillaID)
	if err != nil {
		return dto.VillaImageCollection{}, err
	}
	images, err := uow.Bounded(execCtx, h.Timeout, func(ctx context.Context) ([]*domainvillas.Image, error) {
		return unit.Images().ListByVilla(ctx, villa.ID)
	})
	if err != nil {
		return dto.VillaImageCollection{}, err
	}
	return dto.VillaImageCollection{Items: dto.MapImages(images)}, nil
}

type UploadImageCommand struct {
	VillaID     string `validate:"required"`
	ContentType string `validate:"required"`
	Data        []byte
	Alt         string `validate:"max=300"`
	Primary     bool
}

func (c UploadImageCommand) Key() string { return uploadImageKey }

func (UploadImageCommand) AdminOnly() {}

// UploadImageHandler stores the photo then its metadata. The first photo of
// a villa becomes primary; marking a new photo primary demotes the others.
type UploadImageHandler struct {
	Store   policies.ImageStore
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
}

func (h *UploadImageHandler) Handle(ctx context.Context, cmd UploadImageCommand) (*dto.VillaImage, error) {
	if h.Store == nil {
		return nil, ErrImageStoreUnavailable
	}
	if err := domainvillas.ValidateUpload(int64(len(cmd.Data)), cmd.ContentType); err != nil {
		return nil, err
	}
	ext, err := domainvillas.ImageExtension(cmd.ContentType)
	if err != nil {
		return nil, err
	}
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	villa, err := loadVilla(ctx, unit, h.Timeout, cmd.VillaID)
	if err != nil {
		return nil, err
	}
	existing, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) ([]*domainvillas.Image, error) {
		return unit.Images().ListByVilla(ctx, villa.ID)
	})
	if err != nil {
		return nil, err
	}

	id := domainvillas.ImageID(uuid.NewString())
	objectKey := fmt.Sprintf("villas/%s/%s.%s", villa.ID, id, ext)
	contentType := strings.ToLower(strings.TrimSpace(cmd.ContentType))
	url, err := h.Store.Upload(ctx, objectKey, cmd.Data, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	now := nowFrom(h.Now)
	img := &domainvillas.Image{
		ID:          id,
		VillaID:     villa.ID,
		ObjectKey:   objectKey,
		URL:         url,
		Alt:         strings.TrimSpace(cmd.Alt),
		Primary:     cmd.Primary || len(existing) == 0,
		Size:        int64(len(cmd.Data)),
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if img.Alt == "" {
		img.Alt = villa.Name
	}
	if _, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (struct{}, error) {
		if err := unit.Images().Save(ctx, img); err != nil {
			return struct{}{}, err
		}
		if img.Primary {
			return struct{}{}, unit.Images().UnsetPrimary(ctx, villa.ID, img.ID)
		}
		return struct{}{}, nil
	}); err != nil {
		removeObject(ctx, h.Store, h.Logger, objectKey)
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("villa image uploaded", "villa_id", villa.ID, "image_id", img.ID, "object_key", objectKey)
	}
	out := dto.MapImage(img)
	return &out, nil
}

type UpdateImageCommand struct {
	VillaID string  `validate:"required"`
	ImageID string  `validate:"required"`
	Alt     *string `validate:"omitempty,max=300"`
	Primary *bool
}

func (c UpdateImageCommand) Key() string { return updateImageKey }

func (UpdateImageCommand) AdminOnly() {}

type UpdateImageHandler struct {
	Timeout time.Duration
	Now     func() time.Time
}

func (h *UpdateImageHandler) Handle(ctx context.Context, cmd UpdateImageCommand) (*dto.VillaImage, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	villaID := domainvillas.VillaID(cmd.VillaID)
	img, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (*domainvillas.Image, error) {
		return unit.Images().ByID(ctx, villaID, domainvillas.ImageID(cmd.ImageID))
	})
	if err != nil {
		return nil, err
	}
	if cmd.Alt != nil {
		img.Alt = strings.TrimSpace(*cmd.Alt)
	}
	if cmd.Primary != nil {
		img.Primary = *cmd.Primary
	}
	img.UpdatedAt = nowFrom(h.Now)
	if _, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (struct{}, error) {
		if err := unit.Images().Save(ctx, img); err != nil {
			return struct{}{}, err
		}
		if img.Primary {
			return struct{}{}, unit.Images().UnsetPrimary(ctx, villaID, img.ID)
		}
		return struct{}{}, nil
	}); err != nil {
		return nil, err
	}
	out := dto.MapImage(img)
	return &out, nil
}

type DeleteImageCommand struct {
	VillaID string `validate:"required"`
	ImageID string `validate:"required"`
}

func (c DeleteImageCommand) Key() string { return deleteImageKey }

func (DeleteImageCommand) AdminOnly() {}

// DeleteImageHandler drops the metadata row; the stored object is removed
// best effort.
type DeleteImageHandler struct {
	Store   policies.ImageStore
	Timeout time.Duration
	Logger  *slog.Logger
}

func (h *DeleteImageHandler) Handle(ctx context.Context, cmd DeleteImageCommand) (*struct{}, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	villaID := domainvillas.VillaID(cmd.VillaID)
	img, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (*domainvillas.Image, error) {
		return unit.Images().ByID(ctx, villaID, domainvillas.ImageID(cmd.ImageID))
	})
	if err != nil {
		return nil, err
	}
	if _, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, unit.Images().Delete(ctx, villaID, img.ID)
	}); err != nil {
		return nil, err
	}
	removeObject(ctx, h.Store, h.Logger, img)
	return &struct{}{}, nil
}

var _ queries.Handler[ListImagesQuery, dto.VillaImageCollection] = (*ListImagesHandler)(nil)
var _ commands.Handler[UploadImageCommand, *dto.VillaImage] = (*UploadImageHandler)(nil)
var _ commands.Handler[UpdateImageCommand, *dto.VillaImage] = (*UpdateImageHandler)(nil)
var _ commands.Handler[DeleteImageCommand, *struct{}] = (*DeleteImageHandler)(nil)
