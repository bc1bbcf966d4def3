package model

import (
	"time"

	"github.com/google/uuid"
)

// TrabajoMaterial records an Insumo consumed by a Trabajo. Each row is paired
// with a negative MovimientoStock of the same quantity.
type TrabajoMaterial struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TrabajoID uuid.UUID    `gorm:"type:uuid;not null;index"`
	InsumoID  uuid.UUID    `gorm:"type:uuid;not null;index"`
	Cantidad  int          `gorm:"not null"`
	Etapa     EtapaTrabajo `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time
}

func (TrabajoMaterial) TableName() string { return "trabajo_materiales" }
