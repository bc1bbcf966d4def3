package dto

type MovimientoFilter struct {
	Q        string `form:"q"`
	InsumoID string `form:"insumo_id" validate:"omitempty,uuid"`
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=50"`
}

// MovimientoResponse is one ledger row with the item and actor names resolved.
type MovimientoResponse struct {
	ID               string  `json:"id"`
	InsumoID         string  `json:"insumo_id"`
	InsumoNombre     string  `json:"insumo_nombre"`
	Tipo             string  `json:"tipo"`
	Cantidad         int     `json:"cantidad"`
	CantidadAnterior int     `json:"cantidad_anterior"`
	CantidadNueva    int     `json:"cantidad_nueva"`
	Motivo           string  `json:"motivo"`
	TrabajoID        *string `json:"trabajo_id,omitempty"`
	CreadoPor        string  `json:"creado_por"`
	CreadoPorNombre  string  `json:"creado_por_nombre"`
	CreatedAt        string  `json:"created_at"`
}

type MovimientoListResponse struct {
	Data       []MovimientoResponse `json:"data"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
}
