package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"villarent/internal/app/dto"
	availabilityapp "villarent/internal/app/handlers/availability"
	villaapp "villarent/internal/app/handlers/villas"
	"villarent/internal/app/queries"
)

// VillaHandler serves the public catalog.
type VillaHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h VillaHandler) Catalog(c *gin.Context) {
	query := catalogQuery(c)
	result, err := queries.Ask[villaapp.SearchCatalogQuery, dto.VillaCatalog](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h VillaHandler) Detail(c *gin.Context) {
	query := villaapp.GetVillaBySlugQuery{Slug: c.Param("slug")}
	result, err := queries.Ask[villaapp.GetVillaBySlugQuery, dto.VillaDetail](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Calendar lists booked ranges and blackout days; a missing bound falls back
// to the default window.
func (h VillaHandler) Calendar(c *gin.Context) {
	query := availabilityapp.GetCalendarQuery{Slug: c.Param("slug")}
	if raw := c.Query("from"); raw != "" {
		from, ok := parseDay(raw)
		if !ok {
			badRequest(c, "Format tanggal tidak valid")
			return
		}
		query.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, ok := parseDay(raw)
		if !ok {
			badRequest(c, "Format tanggal tidak valid")
			return
		}
		query.To = to
	}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func catalogQuery(c *gin.Context) villaapp.SearchCatalogQuery {
	return villaapp.SearchCatalogQuery{
		Search:    c.Query("search"),
		Location:  c.Query("location"),
		Amenities: splitCSV(c.Query("amenities")),
		MinGuests: parseInt(c.Query("min_guests")),
		PriceMin:  parseInt64(c.Query("price_min")),
		PriceMax:  parseInt64(c.Query("price_max")),
		Sort:      c.Query("sort"),
		Page:      parseInt(c.Query("page")),
		Limit:     parseInt(c.Query("limit")),
	}
}

var _ VillaHTTP = VillaHandler{}
