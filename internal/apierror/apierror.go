// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package so the envelope stays
// the same across handlers.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// StockError reports the shortfall of a rejected removal.
type StockError struct {
	Detail     string `json:"detail"`
	Insumo     string `json:"insumo"`
	Disponible int    `json:"disponible"`
	Solicitado int    `json:"solicitado"`
	Faltante   int    `json:"faltante"`
}

func NewStock(msg, insumo string, disponible, solicitado int) *StockError {
	return &StockError{
		Detail:     msg,
		Insumo:     insumo,
		Disponible: disponible,
		Solicitado: solicitado,
		Faltante:   solicitado - disponible,
	}
}
