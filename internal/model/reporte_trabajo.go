package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReporteError = "error"
	ReporteFalla = "falla"
)

// ReporteTrabajo is an audit note raised against a Trabajo (design error,
// milling failure). Rows are only created or deleted, never edited.
type ReporteTrabajo struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TrabajoID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo         string    `gorm:"type:varchar(10);not null"`
	Descripcion  string    `gorm:"not null"`
	ReportadoPor uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt    time.Time
}

func (ReporteTrabajo) TableName() string { return "reportes_trabajo" }

func EsTipoReporteValido(t string) bool { return t == ReporteError || t == ReporteFalla }
