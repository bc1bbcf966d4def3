package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type MaterialRequest struct {
	InsumoID string `json:"insumo_id" validate:"required,uuid"`
	Cantidad int    `json:"cantidad"  validate:"required,min=1"`
}

// CrearTrabajoRequest carries a new job. Business rules (closed treatment
// vocabulary, nombre_tratamiento for "otra", live stock) are checked by the service.
type CrearTrabajoRequest struct {
	TipoTratamiento   string            `json:"tipo_tratamiento"   validate:"required"`
	NombreTratamiento *string           `json:"nombre_tratamiento" validate:"omitempty,max=120"`
	Paciente          string            `json:"paciente"           validate:"max=150"`
	Pieza             *string           `json:"pieza"              validate:"omitempty,max=40"`
	Doctor            *string           `json:"doctor"             validate:"omitempty,max=150"`
	FechaEntrega      string            `json:"fecha_entrega"` // YYYY-MM-DD
	Notas             *string           `json:"notas"`
	Materiales        []MaterialRequest `json:"materiales"         validate:"dive"`
}

type IniciarFresadoRequest struct {
	Materiales []MaterialRequest `json:"materiales" validate:"dive"`
}

type CrearReporteRequest struct {
	Tipo        string `json:"tipo"        validate:"required,oneof=error falla"`
	Descripcion string `json:"descripcion" validate:"required,max=2000"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type TrabajoFilter struct {
	Alcance           string `form:"alcance"` // "propios" | "todos"
	Estado            string `form:"estado"`
	Etapa             string `form:"etapa"`
	Tipo              string `form:"tipo"`
	Q                 string `form:"q"`
	IncluirMateriales bool   `form:"incluir_materiales"`
	Page              int    `form:"page,default=1"`
	Limit             int    `form:"limit,default=20"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MaterialResponse struct {
	ID           string `json:"id"`
	InsumoID     string `json:"insumo_id"`
	InsumoNombre string `json:"insumo_nombre"`
	Cantidad     int    `json:"cantidad"`
	Etapa        string `json:"etapa"`
}

type TrabajoResponse struct {
	ID                  string             `json:"id"`
	TipoTratamiento     string             `json:"tipo_tratamiento"`
	Tratamiento         string             `json:"tratamiento"`
	NombreTratamiento   *string            `json:"nombre_tratamiento"`
	Paciente            string             `json:"paciente"`
	Pieza               *string            `json:"pieza"`
	Doctor              *string            `json:"doctor"`
	Estado              string             `json:"estado"`
	Etapa               string             `json:"etapa"`
	RequiereFresado     bool               `json:"requiere_fresado"`
	FechaEntrega        *string            `json:"fecha_entrega"`
	Notas               *string            `json:"notas"`
	CreadoPor           string             `json:"creado_por"`
	CreadoPorNombre     string             `json:"creado_por_nombre"`
	CompletadoPor       *string            `json:"completado_por"`
	CompletadoPorNombre *string            `json:"completado_por_nombre"`
	CompletadoAt        *string            `json:"completado_at"`
	CreatedAt           string             `json:"created_at"`
	Materiales          []MaterialResponse `json:"materiales,omitempty"`
}

type TrabajoListResponse struct {
	Data       []TrabajoResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

type ReporteResponse struct {
	ID                 string `json:"id"`
	TrabajoID          string `json:"trabajo_id"`
	Tipo               string `json:"tipo"`
	Descripcion        string `json:"descripcion"`
	ReportadoPor       string `json:"reportado_por"`
	ReportadoPorNombre string `json:"reportado_por_nombre"`
	CreatedAt          string `json:"created_at"`
}
