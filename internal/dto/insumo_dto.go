package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearInsumoRequest struct {
	Nombre          string   `json:"nombre"           validate:"required,min=1,max=120"`
	Categoria       string   `json:"categoria"        validate:"required,oneof=bloc bur other"`
	Unidad          string   `json:"unidad"           validate:"max=20"`
	CantidadInicial int      `json:"cantidad_inicial" validate:"min=0"`
	StockMinimo     int      `json:"stock_minimo"     validate:"min=0"`
	Etiquetas       []string `json:"etiquetas"        validate:"dive,oneof=E.MAX RECICLADO SIRONA"`
}

type ActualizarInsumoRequest struct {
	Nombre      *string   `json:"nombre"       validate:"omitempty,min=1,max=120"`
	Categoria   *string   `json:"categoria"    validate:"omitempty,oneof=bloc bur other"`
	Unidad      *string   `json:"unidad"       validate:"omitempty,max=20"`
	StockMinimo *int      `json:"stock_minimo" validate:"omitempty,min=0"`
	Etiquetas   *[]string `json:"etiquetas"    validate:"omitempty,dive,oneof=E.MAX RECICLADO SIRONA"`
}

// RegistrarMovimientoRequest adds (positive) or removes (negative) stock.
type RegistrarMovimientoRequest struct {
	Cantidad int    `json:"cantidad" validate:"required"`
	Motivo   string `json:"motivo"   validate:"max=500"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type InsumoFilter struct {
	Nombre    string `form:"nombre"`
	Categoria string `form:"categoria"`
	Etiqueta  string `form:"etiqueta"`
	Activo    string `form:"activo"` // "false" = inactivos, "all" = todos, default activos
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=50"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type InsumoResponse struct {
	ID          string   `json:"id"`
	Nombre      string   `json:"nombre"`
	Categoria   string   `json:"categoria"`
	Unidad      string   `json:"unidad"`
	Cantidad    int      `json:"cantidad"`
	StockMinimo int      `json:"stock_minimo"`
	Etiquetas   []string `json:"etiquetas"`
	Activo      bool     `json:"activo"`
	CreatedAt   string   `json:"created_at"`
}

type InsumoListResponse struct {
	Data       []InsumoResponse `json:"data"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}
