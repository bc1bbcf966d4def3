package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MovimientoAjuste       = "ajuste"
	MovimientoStockInicial = "stock_inicial"
	MovimientoTrabajo      = "trabajo"
	MovimientoFresado      = "fresado"
)

// MovimientoStock is one ledger entry. Cantidad is the signed delta
// (positive = entrada, negative = salida); the before/after snapshot is taken
// inside the same transaction that moves Insumo.Cantidad.
type MovimientoStock struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InsumoID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo             string    `gorm:"type:varchar(20);not null"`
	Cantidad         int       `gorm:"not null"`
	CantidadAnterior int       `gorm:"not null"`
	CantidadNueva    int       `gorm:"not null"`
	Motivo           string
	TrabajoID        *uuid.UUID `gorm:"type:uuid;index"`
	CreadoPor        uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt        time.Time  `gorm:"index"`

	Insumo *Insumo `gorm:"foreignKey:InsumoID;constraint:OnDelete:CASCADE"`
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
