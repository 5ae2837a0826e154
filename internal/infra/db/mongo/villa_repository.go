package mongo

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"villarent/internal/domain/shared/money"
	domainvillas "villarent/internal/domain/villas"
)

type VillaRepository struct {
	col *mongo.Collection
}

func NewVillaRepository(db *mongo.Database) *VillaRepository {
	return &VillaRepository{col: db.Collection(villasCollection)}
}

func (r *VillaRepository) ByID(ctx context.Context, id domainvillas.VillaID) (*domainvillas.Villa, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *VillaRepository) BySlug(ctx context.Context, slug string) (*domainvillas.Villa, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *VillaRepository) findOne(ctx context.Context, filter bson.M) (*domainvillas.Villa, error) {
	var doc villaDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainvillas.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return doc.toAggregate(), nil
}

func (r *VillaRepository) Save(ctx context.Context, v *domainvillas.Villa) error {
	doc := newVillaDocument(v)
	doc.Version = v.Version + 1
	filter := bson.M{"_id": doc.ID, "version": v.Version}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "slug") {
				return domainvillas.ErrSlugTaken
			}
			return ErrConcurrentUpdate
		}
		return storeErr(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	v.Version = doc.Version
	return nil
}

func (r *VillaRepository) Delete(ctx context.Context, id domainvillas.VillaID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return storeErr(err)
	}
	if res.DeletedCount == 0 {
		return domainvillas.ErrNotFound
	}
	return nil
}

func (r *VillaRepository) Search(ctx context.Context, params domainvillas.SearchParams) (domainvillas.SearchResult, error) {
	opts := params.Normalized()
	filter := bson.M{}
	if opts.OnlyActive {
		filter["state"] = string(domainvillas.StateActive)
	}
	if opts.Query != "" {
		pattern := primitiveRegex(opts.Query)
		filter["$or"] = bson.A{bson.M{"name": pattern}, bson.M{"location": pattern}}
	}
	if opts.Location != "" {
		filter["location"] = primitiveRegex(opts.Location)
	}
	if opts.MinGuests > 0 {
		filter["max_guests"] = bson.M{"$gte": opts.MinGuests}
	}
	price := bson.M{}
	if opts.PriceMin > 0 {
		price["$gte"] = opts.PriceMin
	}
	if opts.PriceMax > 0 {
		price["$lte"] = opts.PriceMax
	}
	if len(price) > 0 {
		filter["base_price.amount"] = price
	}
	if len(opts.Amenities) > 0 {
		filter["amenity_keys"] = bson.M{"$all": opts.Amenities}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainvillas.SearchResult{}, storeErr(err)
	}
	findOpts := options.Find().
		SetSort(sortFor(opts.Sort)).
		SetSkip(int64(opts.Offset())).
		SetLimit(int64(opts.Limit))
	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return domainvillas.SearchResult{}, storeErr(err)
	}
	var docs []villaDocument
	if err := cur.All(ctx, &docs); err != nil {
		return domainvillas.SearchResult{}, storeErr(err)
	}
	items := make([]*domainvillas.Villa, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toAggregate())
	}
	return domainvillas.SearchResult{Items: items, Total: int(total)}, nil
}

func sortFor(sort domainvillas.CatalogSort) bson.D {
	switch sort {
	case domainvillas.SortByPriceAsc:
		return bson.D{{Key: "base_price.amount", Value: 1}, {Key: "rating", Value: -1}}
	case domainvillas.SortByPriceDesc:
		return bson.D{{Key: "base_price.amount", Value: -1}, {Key: "rating", Value: -1}}
	case domainvillas.SortByRating:
		return bson.D{{Key: "rating", Value: -1}, {Key: "base_price.amount", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	}
}

func primitiveRegex(term string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func toMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type villaDocument struct {
	ID          string        `bson:"_id"`
	Slug        string        `bson:"slug"`
	Name        string        `bson:"name"`
	Description string        `bson:"description"`
	Location    string        `bson:"location"`
	Bedrooms    int           `bson:"bedrooms"`
	Bathrooms   int           `bson:"bathrooms"`
	MaxGuests   int           `bson:"max_guests"`
	BasePrice   moneyDocument `bson:"base_price"`
	Amenities   []string      `bson:"amenities"`
	AmenityKeys []string      `bson:"amenity_keys"`
	Features    []string      `bson:"features"`
	Rating      float64       `bson:"rating"`
	State       string        `bson:"state"`
	Version     int64         `bson:"version"`
	CreatedAt   int64         `bson:"created_at"`
	UpdatedAt   int64         `bson:"updated_at"`
}

func newVillaDocument(v *domainvillas.Villa) villaDocument {
	keys := make([]string, 0, len(v.Amenities))
	for _, a := range v.Amenities {
		keys = append(keys, strings.ToLower(a))
	}
	return villaDocument{
		ID:          string(v.ID),
		Slug:        v.Slug,
		Name:        v.Name,
		Description: v.Description,
		Location:    v.Location,
		Bedrooms:    v.Bedrooms,
		Bathrooms:   v.Bathrooms,
		MaxGuests:   v.MaxGuests,
		BasePrice:   toMoneyDocument(v.BasePrice),
		Amenities:   v.Amenities,
		AmenityKeys: keys,
		Features:    v.Features,
		Rating:      v.Rating,
		State:       string(v.State),
		Version:     v.Version,
		CreatedAt:   v.CreatedAt.UnixMilli(),
		UpdatedAt:   v.UpdatedAt.UnixMilli(),
	}
}

func (d villaDocument) toAggregate() *domainvillas.Villa {
	return &domainvillas.Villa{
		ID:          domainvillas.VillaID(d.ID),
		Slug:        d.Slug,
		Name:        d.Name,
		Description: d.Description,
		Location:    d.Location,
		Bedrooms:    d.Bedrooms,
		Bathrooms:   d.Bathrooms,
		MaxGuests:   d.MaxGuests,
		BasePrice:   d.BasePrice.toMoney(),
		Amenities:   d.Amenities,
		Features:    d.Features,
		Rating:      d.Rating,
		State:       domainvillas.State(d.State),
		Version:     d.Version,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
	}
}

type ImageRepository struct {
	col *mongo.Collection
}

func NewImageRepository(db *mongo.Database) *ImageRepository {
	return &ImageRepository{col: db.Collection(imagesCollection)}
}

func (r *ImageRepository) ByID(ctx context.Context, villaID domainvillas.VillaID, id domainvillas.ImageID) (*domainvillas.Image, error) {
	var doc imageDocument
	err := r.col.FindOne(ctx, bson.M{"_id": string(id), "villa_id": string(villaID)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainvillas.ErrImageNotFound
		}
		return nil, storeErr(err)
	}
	return doc.toImage(), nil
}

func (r *ImageRepository) ListByVilla(ctx context.Context, villaID domainvillas.VillaID) ([]*domainvillas.Image, error) {
	cur, err := r.col.Find(ctx, bson.M{"villa_id": string(villaID)})
	if err != nil {
		return nil, storeErr(err)
	}
	var docs []imageDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr(err)
	}
	out := make([]*domainvillas.Image, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toImage())
	}
	domainvillas.SortImages(out)
	return out, nil
}

func (r *ImageRepository) Save(ctx context.Context, img *domainvillas.Image) error {
	if img.ObjectKey == "" {
		return domainvillas.ErrImageKeyRequired
	}
	doc := newImageDocument(img)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return storeErr(err)
}

func (r *ImageRepository) Delete(ctx context.Context, villaID domainvillas.VillaID, id domainvillas.ImageID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id), "villa_id": string(villaID)})
	if err != nil {
		return storeErr(err)
	}
	if res.DeletedCount == 0 {
		return domainvillas.ErrImageNotFound
	}
	return nil
}

func (r *ImageRepository) UnsetPrimary(ctx context.Context, villaID domainvillas.VillaID, keep domainvillas.ImageID) error {
	filter := bson.M{"villa_id": string(villaID), "_id": bson.M{"$ne": string(keep)}, "primary": true}
	_, err := r.col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"primary": false, "updated_at": time.Now().UTC().UnixMilli()}})
	return storeErr(err)
}

type imageDocument struct {
	ID          string `bson:"_id"`
	VillaID     string `bson:"villa_id"`
	ObjectKey   string `bson:"object_key"`
	URL         string `bson:"url"`
	Alt         string `bson:"alt"`
	Primary     bool   `bson:"primary"`
	Size        int64  `bson:"size"`
	ContentType string `bson:"content_type"`
	CreatedAt   int64  `bson:"created_at"`
	UpdatedAt   int64  `bson:"updated_at"`
}

func newImageDocument(img *domainvillas.Image) imageDocument {
	return imageDocument{
		ID:          string(img.ID),
		VillaID:     string(img.VillaID),
		ObjectKey:   img.ObjectKey,
		URL:         img.URL,
		Alt:         img.Alt,
		Primary:     img.Primary,
		Size:        img.Size,
		ContentType: img.ContentType,
		CreatedAt:   img.CreatedAt.UnixMilli(),
		UpdatedAt:   img.UpdatedAt.UnixMilli(),
	}
}

func (d imageDocument) toImage() *domainvillas.Image {
	return &domainvillas.Image{
		ID:          domainvillas.ImageID(d.ID),
		VillaID:     domainvillas.VillaID(d.VillaID),
		ObjectKey:   d.ObjectKey,
		URL:         d.URL,
		Alt:         d.Alt,
		Primary:     d.Primary,
		Size:        d.Size,
		ContentType: d.ContentType,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
