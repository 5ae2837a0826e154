package mysql

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainvillas "villarent/internal/domain/villas"
)

type VillaRepository struct {
	db *gorm.DB
}

func (r VillaRepository) ByID(ctx context.Context, id domainvillas.VillaID) (*domainvillas.Villa, error) {
	return r.first(ctx, "id = ?", string(id))
}

func (r VillaRepository) BySlug(ctx context.Context, slug string) (*domainvillas.Villa, error) {
	return r.first(ctx, "slug = ?", slug)
}

func (r VillaRepository) first(ctx context.Context, query string, arg any) (*domainvillas.Villa, error) {
	var m villaModel
	if err := conn(ctx, r.db).Where(query, arg).First(&m).Error; err != nil {
		if notFound(err) {
			return nil, domainvillas.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return m.toVilla(), nil
}

// Save inserts a new villa or updates one whose stored version still matches.
func (r VillaRepository) Save(ctx context.Context, v *domainvillas.Villa) error {
	m := toVillaModel(v)
	m.Version = v.Version + 1
	db := conn(ctx, r.db)
	if v.Version == 0 {
		if err := db.Create(&m).Error; err != nil {
			return r.saveErr(err)
		}
		v.Version = m.Version
		return nil
	}
	res := db.Model(&villaModel{}).
		Where("id = ? AND version = ?", m.ID, v.Version).
		Select("*").Omit("created_at").
		Updates(&m)
	if res.Error != nil {
		return r.saveErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	v.Version = m.Version
	return nil
}

func (r VillaRepository) saveErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainvillas.ErrSlugTaken
	}
	if lostRace(err) {
		return ErrConcurrentUpdate
	}
	return storeErr(err)
}

func (r VillaRepository) Delete(ctx context.Context, id domainvillas.VillaID) error {
	res := conn(ctx, r.db).Where("id = ?", string(id)).Delete(&villaModel{})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainvillas.ErrNotFound
	}
	return nil
}

func (r VillaRepository) Search(ctx context.Context, params domainvillas.SearchParams) (domainvillas.SearchResult, error) {
	opts := params.Normalized()
	q := conn(ctx, r.db).Model(&villaModel{})
	if opts.OnlyActive {
		q = q.Where("state = ?", string(domainvillas.StateActive))
	}
	if opts.Query != "" {
		like := "%" + escapeLike(opts.Query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(location) LIKE ?", like, like)
	}
	if opts.Location != "" {
		q = q.Where("LOWER(location) LIKE ?", "%"+escapeLike(opts.Location)+"%")
	}
	if opts.MinGuests > 0 {
		q = q.Where("max_guests >= ?", opts.MinGuests)
	}
	if opts.PriceMin > 0 {
		q = q.Where("base_price >= ?", opts.PriceMin)
	}
	if opts.PriceMax > 0 {
		q = q.Where("base_price <= ?", opts.PriceMax)
	}
	for _, amenity := range opts.Amenities {
		q = q.Where("JSON_CONTAINS(amenity_keys, JSON_QUOTE(?))", amenity)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return domainvillas.SearchResult{}, storeErr(err)
	}
	var rows []villaModel
	err := q.Order(orderFor(opts.Sort)).Offset(opts.Offset()).Limit(opts.Limit).Find(&rows).Error
	if err != nil {
		return domainvillas.SearchResult{}, storeErr(err)
	}
	items := make([]*domainvillas.Villa, 0, len(rows))
	for _, m := range rows {
		items = append(items, m.toVilla())
	}
	return domainvillas.SearchResult{Items: items, Total: int(total)}, nil
}

func orderFor(sort domainvillas.CatalogSort) clause.OrderBy {
	col := func(name string, desc bool) clause.OrderByColumn {
		return clause.OrderByColumn{Column: clause.Column{Name: name}, Desc: desc}
	}
	switch sort {
	case domainvillas.SortByPriceAsc:
		return clause.OrderBy{Columns: []clause.OrderByColumn{col("base_price", false), col("rating", true)}}
	case domainvillas.SortByPriceDesc:
		return clause.OrderBy{Columns: []clause.OrderByColumn{col("base_price", true), col("rating", true)}}
	case domainvillas.SortByRating:
		return clause.OrderBy{Columns: []clause.OrderByColumn{col("rating", true), col("base_price", false)}}
	default:
		return clause.OrderBy{Columns: []clause.OrderByColumn{col("created_at", true), col("id", false)}}
	}
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

type ImageRepository struct {
	db *gorm.DB
}

func (r ImageRepository) ByID(ctx context.Context, villaID domainvillas.VillaID, id domainvillas.ImageID) (*domainvillas.Image, error) {
	var m imageModel
	err := conn(ctx, r.db).Where("id = ? AND villa_id = ?", string(id), string(villaID)).First(&m).Error
	if err != nil {
		if notFound(err) {
			return nil, domainvillas.ErrImageNotFound
		}
		return nil, storeErr(err)
	}
	return m.toImage(), nil
}

func (r ImageRepository) ListByVilla(ctx context.Context, villaID domainvillas.VillaID) ([]*domainvillas.Image, error) {
	var rows []imageModel
	if err := conn(ctx, r.db).Where("villa_id = ?", string(villaID)).Find(&rows).Error; err != nil {
		return nil, storeErr(err)
	}
	out := make([]*domainvillas.Image, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toImage())
	}
	domainvillas.SortImages(out)
	return out, nil
}

func (r ImageRepository) Save(ctx context.Context, img *domainvillas.Image) error {
	if img.ObjectKey == "" {
		return domainvillas.ErrImageKeyRequired
	}
	m := toImageModel(img)
	return storeErr(conn(ctx, r.db).Save(&m).Error)
}

func (r ImageRepository) Delete(ctx context.Context, villaID domainvillas.VillaID, id domainvillas.ImageID) error {
	res := conn(ctx, r.db).Where("id = ? AND villa_id = ?", string(id), string(villaID)).Delete(&imageModel{})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainvillas.ErrImageNotFound
	}
	return nil
}

func (r ImageRepository) UnsetPrimary(ctx context.Context, villaID domainvillas.VillaID, keep domainvillas.ImageID) error {
	err := conn(ctx, r.db).Model(&imageModel{}).
		Where("villa_id = ? AND id <> ? AND `primary` = ?", string(villaID), string(keep), true).
		Updates(map[string]any{"primary": false, "updated_at": time.Now().UTC()}).Error
	return storeErr(err)
}
