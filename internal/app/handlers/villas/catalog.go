package villas

import (
	"context"
	"strings"
	"time"

	"villarent/internal/app/dto"
	"villarent/internal/app/handlers/support"
	"villarent/internal/app/queries"
	"villarent/internal/app/uow"
	domainvillas "villarent/internal/domain/villas"
)

const (
	searchCatalogKey   = "villas.catalog"
	getVillaBySlugKey  = "villas.get_by_slug"
	adminListVillasKey = "admin.villas.list"
	adminGetVillaKey   = "admin.villas.get"
)

// SearchCatalogQuery describes public catalog filters.
type SearchCatalogQuery struct {
	Search    string
	Location  string
	Amenities []string
	MinGuests int   `validate:"gte=0"`
	PriceMin  int64 `validate:"gte=0"`
	PriceMax  int64 `validate:"gte=0"`
	Sort      string
	Page      int `validate:"gte=0"`
	Limit     int `validate:"gte=0"`
}

func (q SearchCatalogQuery) Key() string { return searchCatalogKey }

func (q SearchCatalogQuery) params(onlyActive bool) domainvillas.SearchParams {
	return domainvillas.SearchParams{
		Query:      q.Search,
		Location:   q.Location,
		Amenities:  append([]string(nil), q.Amenities...),
		MinGuests:  q.MinGuests,
		PriceMin:   q.PriceMin,
		PriceMax:   q.PriceMax,
		Sort:       domainvillas.CatalogSort(q.Sort),
		Page:       q.Page,
		Limit:      q.Limit,
		OnlyActive: onlyActive,
	}.Normalized()
}

// SearchCatalogHandler lists active villas only.
type SearchCatalogHandler struct {
	UoWFactory uow.UoWFactory
	Timeout    time.Duration
}

func (h *SearchCatalogHandler) Handle(ctx context.Context, q SearchCatalogQuery) (dto.VillaCatalog, error) {
	return searchCatalog(ctx, h.UoWFactory, h.Timeout, q.params(true))
}

type AdminListVillasQuery struct {
	SearchCatalogQuery
}

func (q AdminListVillasQuery) Key() string { return adminListVillasKey }

func (AdminListVillasQuery) AdminOnly() {}

// AdminListVillasHandler includes inactive villas.
type AdminListVillasHandler struct {
	UoWFactory uow.UoWFactory
	Timeout    time.Duration
}

func (h *AdminListVillasHandler) Handle(ctx context.Context, q AdminListVillasQuery) (dto.VillaCatalog, error) {
	return searchCatalog(ctx, h.UoWFactory, h.Timeout, q.params(false))
}

func searchCatalog(ctx context.Context, factory uow.UoWFactory, timeout time.Duration, params domainvillas.SearchParams) (dto.VillaCatalog, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, factory)
	if err != nil {
		return dto.VillaCatalog{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	result, err := uow.Bounded(execCtx, timeout, func(ctx context.Context) (domainvillas.SearchResult, error) {
		return unit.Villas().Search(ctx, params)
	})
	if err != nil {
		return dto.VillaCatalog{}, err
	}
	thumbs := make(map[domainvillas.VillaID]string, len(result.Items))
	for _, v := range result.Items {
		images, err := uow.Bounded(execCtx, timeout, func(ctx context.Context) ([]*domainvillas.Image, error) {
			return unit.Images().ListByVilla(ctx, v.ID)
		})
		if err != nil {
			return dto.VillaCatalog{}, err
		}
		if len(images) > 0 {
			domainvillas.SortImages(images)
			thumbs[v.ID] = images[0].URL
		}
	}
	return dto.MapCatalog(result, params, thumbs), nil
}

type GetVillaBySlugQuery struct {
	Slug string `validate:"required"`
}

func (q GetVillaBySlugQuery) Key() string { return getVillaBySlugKey }

// GetVillaBySlugHandler hides inactive villas from the public.
type GetVillaBySlugHandler struct {
	UoWFactory uow.UoWFactory
	Timeout    time.Duration
}

func (h *GetVillaBySlugHandler) Handle(ctx context.Context, q GetVillaBySlugQuery) (dto.VillaDetail, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.VillaDetail{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	villa, err := uow.Bounded(execCtx, h.Timeout, func(ctx context.Context) (*domainvillas.Villa, error) {
		return unit.Villas().BySlug(ctx, strings.ToLower(strings.TrimSpace(q.Slug)))
	})
	if err != nil {
		return dto.VillaDetail{}, err
	}
	if !villa.IsActive() {
		return dto.VillaDetail{}, domainvillas.ErrNotFound
	}
	return villaDetail(execCtx, unit, h.Timeout, villa)
}

type AdminGetVillaQuery struct {
	VillaID string `validate:"required"`
}

func (q AdminGetVillaQuery) Key() string { return adminGetVillaKey }

func (AdminGetVillaQuery) AdminOnly() {}

type AdminGetVillaHandler struct {
	UoWFactory uow.UoWFactory
	Timeout    time.Duration
}

func (h *AdminGetVillaHandler) Handle(ctx context.Context, q AdminGetVillaQuery) (dto.VillaDetail, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.VillaDetail{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	villa, err := loadVilla(execCtx, unit, h.Timeout, q.VillaID)
	if err != nil {
		return dto.VillaDetail{}, err
	}
	return villaDetail(execCtx, unit, h.Timeout, villa)
}

func villaDetail(ctx context.Context, unit uow.UnitOfWork, timeout time.Duration, villa *domainvillas.Villa) (dto.VillaDetail, error) {
	images, err := uow.Bounded(ctx, timeout, func(ctx context.Context) ([]*domainvillas.Image, error) {
		return unit.Images().ListByVilla(ctx, villa.ID)
	})
	if err != nil {
		return dto.VillaDetail{}, err
	}
	return dto.MapVillaDetail(villa, images), nil
}

func loadVilla(ctx context.Context, unit uow.UnitOfWork, timeout time.Duration, id string) (*domainvillas.Villa, error) {
	return uow.Bounded(ctx, timeout, func(ctx context.Context) (*domainvillas.Villa, error) {
		return unit.Villas().ByID(ctx, domainvillas.VillaID(strings.TrimSpace(id)))
	})
}

var _ queries.Handler[SearchCatalogQuery, dto.VillaCatalog] = (*SearchCatalogHandler)(nil)
var _ queries.Handler[AdminListVillasQuery, dto.VillaCatalog] = (*AdminListVillasHandler)(nil)
var _ queries.Handler[GetVillaBySlugQuery, dto.VillaDetail] = (*GetVillaBySlugHandler)(nil)
var _ queries.Handler[AdminGetVillaQuery, dto.VillaDetail] = (*AdminGetVillaHandler)(nil)
