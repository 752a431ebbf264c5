package errors

const (
	HttpInternalError        = "internal_error"
	HttpInvalidJsonError     = "invalid_json"
	HttpCatalogNotFoundError = "catalog_not_found"
	HttpInvalidPixelError    = "invalid_pixel"
	HttpInvalidRegionError   = "invalid_region"
	HttpEmptyRegionError     = "empty_region"
	HttpMissingStatsError    = "missing_statistics"
	HttpInvalidMarginError   = "invalid_margin_threshold"
	HttpNoProviderError      = "geometry_provider_unavailable"
)

// ErrorResponse is the error response body for query API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
