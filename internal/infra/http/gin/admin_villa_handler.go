package ginserver

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"villarent/internal/app/commands"
	"villarent/internal/app/dto"
	villaapp "villarent/internal/app/handlers/villas"
	"villarent/internal/app/queries"
	domainvillas "villarent/internal/domain/villas"
)

// AdminVillaHandler serves villa management for the back office: the villa
// itself plus its photos, pricing rules and blackout dates.
type AdminVillaHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type villaRequest struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   int      `json:"bathrooms"`
	MaxGuests   int      `json:"max_guests"`
	BasePrice   int64    `json:"base_price"`
	Amenities   []string `json:"amenities"`
	Features    []string `json:"features"`
	Rating      float64  `json:"rating"`
	Active      *bool    `json:"is_active"`
}

func (r villaRequest) payload() villaapp.VillaPayload {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return villaapp.VillaPayload{
		Slug:        strings.TrimSpace(r.Slug),
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		Location:    strings.TrimSpace(r.Location),
		Bedrooms:    r.Bedrooms,
		Bathrooms:   r.Bathrooms,
		MaxGuests:   r.MaxGuests,
		BasePrice:   r.BasePrice,
		Amenities:   r.Amenities,
		Features:    r.Features,
		Rating:      r.Rating,
		Active:      active,
	}
}

func (h AdminVillaHandler) List(c *gin.Context) {
	query := villaapp.AdminListVillasQuery{SearchCatalogQuery: catalogQuery(c)}
	result, err := queries.Ask[villaapp.AdminListVillasQuery, dto.VillaCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminVillaHandler) Create(c *gin.Context) {
	var req villaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Format permintaan tidak valid")
		return
	}
	cmd := villaapp.CreateVillaCommand{Payload: req.payload()}
	result, err := commands.Dispatch[villaapp.CreateVillaCommand, *dto.VillaDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h AdminVillaHandler) Get(c *gin.Context) {
	query := villaapp.AdminGetVillaQuery{VillaID: c.Param("id")}
	result, err := queries.Ask[villaapp.AdminGetVillaQuery, dto.VillaDetail](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminVillaHandler) Update(c *gin.Context) {
	var req villaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Format permintaan tidak valid")
		return
	}
	cmd := villaapp.UpdateVillaCommand{VillaID: c.Param("id"), Payload: req.payload()}
	result, err := commands.Dispatch[villaapp.UpdateVillaCommand, *dto.VillaDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminVillaHandler) Delete(c *gin.Context) {
	cmd := villaapp.DeleteVillaCommand{VillaID: c.Param("id")}
	if _, err := commands.Dispatch[villaapp.DeleteVillaCommand, *struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AdminVillaHandler) ListImages(c *gin.Context) {
	query := villaapp.ListImagesQuery{VillaID: c.Param("id")}
	result, err := queries.Ask[villaapp.ListImagesQuery, dto.VillaImageCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UploadImage takes a multipart form with an "image" file and optional
// "alt" and "is_primary" fields.
func (h AdminVillaHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, domainvillas.MaxImageSize+1<<20)
	fh, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "File gambar diperlukan")
		return
	}
	if fh.Size > domainvillas.MaxImageSize {
		respondError(c, h.Logger, domainvillas.ErrImageTooLarge)
		return
	}
	file, err := fh.Open()
	if err != nil {
		badRequest(c, "File gambar tidak dapat dibaca")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, domainvillas.MaxImageSize+1))
	if err != nil {
		badRequest(c, "File gambar tidak dapat dibaca")
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	cmd := villaapp.UploadImageCommand{
		VillaID:     c.Param("id"),
		ContentType: contentType,
		Data:        data,
		Alt:         c.PostForm("alt"),
		Primary:     parseBool(c.PostForm("is_primary")),
	}
	result, err := commands.Dispatch[villaapp.UploadImageCommand, *dto.VillaImage](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type updateImageRequest struct {
	Alt     *string `json:"alt"`
	Primary *bool   `json:"is_primary"`
}

func (h AdminVillaHandler) UpdateImage(c *gin.Context) {
	var req updateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Format permintaan tidak valid")
		return
	}
	cmd := villaapp.UpdateImageCommand{
		VillaID: c.Param("id"),
		ImageID: c.Param("imageId"),
		Alt:     req.Alt,
		Primary: req.Primary,
	}
	result, err := commands.Dispatch[villaapp.UpdateImageCommand, *dto.VillaImage](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminVillaHandler) DeleteImage(c *gin.Context) {
	cmd := villaapp.DeleteImageCommand{VillaID: c.Param("id"), ImageID: c.Param("imageId")}
	if _, err := commands.Dispatch[villaapp.DeleteImageCommand, *struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AdminVillaHandler) ListPricingRules(c *gin.Context) {
	query := villaapp.ListPricingRulesQuery{VillaID: c.Param("id")}
	result, err := queries.Ask[villaapp.ListPricingRulesQuery, dto.PricingRuleCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type pricingRuleRequest struct {
	StartsOn  string  `json:"starts_on"`
	EndsOn    string  `json:"ends_on"`
	Kind      string  `json:"type"`
	Value     float64 `json:"value"`
	MinNights int     `json:"min_nights"`
	MaxNights int     `json:"max_nights"`
}

func (h AdminVillaHandler) CreatePricingRule(c *gin.Context) {
	var req pricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Format permintaan tidak valid")
		return
	}
	startsOn, okStart := parseDay(req.StartsOn)
	endsOn, okEnd := parseDay(req.EndsOn)
	if !okStart || !okEnd {
		badRequest(c, "Format tanggal tidak valid")
		return
	}
	cmd := villaapp.CreatePricingRuleCommand{
		VillaID:   c.Param("id"),
		StartsOn:  startsOn,
		EndsOn:    endsOn,
		Kind:      strings.ToLower(strings.TrimSpace(req.Kind)),
		Value:     req.Value,
		MinNights: req.MinNights,
		MaxNights: req.MaxNights,
	}
	result, err := commands.Dispatch[villaapp.CreatePricingRuleCommand, *dto.PricingRule](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h AdminVillaHandler) DeletePricingRule(c *gin.Context) {
	cmd := villaapp.DeletePricingRuleCommand{VillaID: c.Param("id"), RuleID: c.Param("ruleId")}
	if _, err := commands.Dispatch[villaapp.DeletePricingRuleCommand, *struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AdminVillaHandler) ListBlackouts(c *gin.Context) {
	query := villaapp.ListBlackoutsQuery{VillaID: c.Param("id")}
	result, err := queries.Ask[villaapp.ListBlackoutsQuery, dto.BlackoutCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type blackoutRequest struct {
	Date string `json:"date"`
	Note string `json:"note"`
}

func (h AdminVillaHandler) CreateBlackout(c *gin.Context) {
	var req blackoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Format permintaan tidak valid")
		return
	}
	date, ok := parseDay(req.Date)
	if !ok {
		badRequest(c, "Format tanggal tidak valid")
		return
	}
	cmd := villaapp.CreateBlackoutCommand{VillaID: c.Param("id"), Date: date, Note: strings.TrimSpace(req.Note)}
	result, err := commands.Dispatch[villaapp.CreateBlackoutCommand, *dto.BlackoutDate](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h AdminVillaHandler) DeleteBlackout(c *gin.Context) {
	cmd := villaapp.DeleteBlackoutCommand{VillaID: c.Param("id"), BlackoutID: c.Param("blackoutId")}
	if _, err := commands.Dispatch[villaapp.DeleteBlackoutCommand, *struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ AdminVillaHTTP = AdminVillaHandler{}
