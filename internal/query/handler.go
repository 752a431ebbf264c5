package query

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	v1 "github.com/starcat-lab/starcat/internal/api/v1"
	"github.com/starcat-lab/starcat/internal/catalog"
	"github.com/starcat-lab/starcat/internal/core/align"
	httperr "github.com/starcat-lab/starcat/internal/core/errors"
	"github.com/starcat-lab/starcat/internal/core/margin"
	"github.com/starcat-lab/starcat/internal/core/pixel"
	"github.com/starcat-lab/starcat/internal/core/stats"
)

// RegisterRoutes registers all catalog query API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/catalogs", s.HandleListCatalogs)
	r.POST("/v1/catalogs", s.HandleRegisterCatalog)
	r.GET("/v1/catalogs/:name", s.HandleDescribeCatalog)
	r.GET("/v1/catalogs/:name/partitions", s.HandleListPartitions)
	r.GET("/v1/catalogs/:name/pixels/:order/:index", s.HandleLocatePixel)
	r.GET("/v1/catalogs/:name/align/:other", s.HandleAlign)
	r.POST("/v1/catalogs/:name/filter", s.HandleFilter)
	r.POST("/v1/catalogs/:name/margins", s.HandleMargins)
	r.POST("/v1/catalogs/:name/statistics", s.HandleStatistics)
}

// HandleListCatalogs handles GET /v1/catalogs
func (s *Service) HandleListCatalogs(c *gin.Context) {
	infos, err := s.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to list catalogs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"catalogs": infos})
}

// HandleRegisterCatalog handles POST /v1/catalogs
func (s *Service) HandleRegisterCatalog(c *gin.Context) {
	var req v1.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid request body",
			Details:   err.Error(),
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid register request",
			Details:   err.Error(),
		})
		return
	}

	info, err := s.Register(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err, "Failed to register catalog")
		return
	}
	c.JSON(http.StatusCreated, info)
}

// HandleDescribeCatalog handles GET /v1/catalogs/:name
func (s *Service) HandleDescribeCatalog(c *gin.Context) {
	name, ok := bindName(c)
	if !ok {
		return
	}

	info, err := s.Register(c.Request.Context(), name)
	if err != nil {
		writeError(c, err, "Failed to describe catalog")
		return
	}
	c.JSON(http.StatusOK, info)
}

// HandleListPartitions handles GET /v1/catalogs/:name/partitions
func (s *Service) HandleListPartitions(c *gin.Context) {
	name, ok := bindName(c)
	if !ok {
		return
	}

	partitions, err := s.Partitions(c.Request.Context(), name)
	if err != nil {
		writeError(c, err, "Failed to list partitions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"partitions": partitions})
}

// HandleLocatePixel handles GET /v1/catalogs/:name/pixels/:order/:index
func (s *Service) HandleLocatePixel(c *gin.Context) {
	var uri struct {
		Name  string `uri:"name" binding:"required"`
		Order int    `uri:"order"`
		Index int64  `uri:"index"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return
	}

	ref := v1.PixelRef{Order: uri.Order, Index: uri.Index}
	partition, err := s.Locate(c.Request.Context(), uri.Name, ref)
	if err != nil {
		writeError(c, err, "Failed to locate pixel")
		return
	}
	c.JSON(http.StatusOK, partition)
}

// HandleAlign handles GET /v1/catalogs/:name/align/:other
func (s *Service) HandleAlign(c *gin.Context) {
	var uri struct {
		Name  string `uri:"name" binding:"required"`
		Other string `uri:"other" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return
	}

	entries, err := s.Align(c.Request.Context(), uri.Name, uri.Other)
	if err != nil {
		writeError(c, err, "Failed to align catalogs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// HandleFilter handles POST /v1/catalogs/:name/filter
func (s *Service) HandleFilter(c *gin.Context) {
	name, ok := bindName(c)
	if !ok {
		return
	}

	var req v1.RegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid request body",
			Details:   err.Error(),
		})
		return
	}
	region, err := req.ToRegion()
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRegionError,
			Message:   "Invalid region",
			Details:   err.Error(),
		})
		return
	}

	partitions, err := s.Filter(c.Request.Context(), name, region)
	if err != nil {
		writeError(c, err, "Failed to filter catalog")
		return
	}
	c.JSON(http.StatusOK, gin.H{"partitions": partitions})
}

// HandleMargins handles POST /v1/catalogs/:name/margins
func (s *Service) HandleMargins(c *gin.Context) {
	name, ok := bindName(c)
	if !ok {
		return
	}

	var req v1.MarginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid request body",
			Details:   err.Error(),
		})
		return
	}

	mappings, err := s.Margins(c.Request.Context(), name, req.ThresholdArcsec)
	if err != nil {
		writeError(c, err, "Failed to compute margins")
		return
	}
	c.JSON(http.StatusOK, gin.H{"mappings": mappings})
}

// HandleStatistics handles POST /v1/catalogs/:name/statistics
func (s *Service) HandleStatistics(c *gin.Context) {
	name, ok := bindName(c)
	if !ok {
		return
	}

	var req v1.StatisticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid request body",
			Details:   err.Error(),
		})
		return
	}

	result, err := s.Statistics(c.Request.Context(), name, req.Pixels)
	if err != nil {
		writeError(c, err, "Failed to aggregate statistics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": result})
}

func bindName(c *gin.Context) (string, bool) {
	var uri struct {
		Name string `uri:"name" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return "", false
	}
	return uri.Name, true
}

// writeError maps service errors onto the API error envelope.
func writeError(c *gin.Context, err error, message string) {
	var invalidPixel *pixel.InvalidPixelError
	var missingPixel *catalog.MissingPixelError
	var emptyRegion *align.EmptyRegionError
	var invalidThreshold *margin.InvalidThresholdError
	var missingStat *stats.MissingStatisticError

	switch {
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpCatalogNotFoundError,
			Message:   "Catalog not found",
			Details:   err.Error(),
		})
	case errors.As(err, &invalidPixel):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidPixelError,
			Message:   "Invalid pixel",
			Details:   err.Error(),
		})
	case errors.As(err, &missingPixel):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidPixelError,
			Message:   "Pixel not covered by catalog",
			Details:   err.Error(),
		})
	case errors.As(err, &emptyRegion):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpEmptyRegionError,
			Message:   "Region does not overlap catalog",
			Details:   err.Error(),
		})
	case errors.As(err, &invalidThreshold):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidMarginError,
			Message:   "Invalid margin threshold",
			Details:   err.Error(),
		})
	case errors.As(err, &missingStat):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpMissingStatsError,
			Message:   "Statistics not available for pixel",
			Details:   err.Error(),
		})
	case errors.Is(err, ErrNoCoverageProvider), errors.Is(err, ErrNoNeighborProvider):
		c.JSON(http.StatusNotImplemented, httperr.ErrorResponse{
			ErrorType: httperr.HttpNoProviderError,
			Message:   "Operation requires a provider that is not configured",
			Details:   err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   message,
			Details:   err.Error(),
		})
	}
}
