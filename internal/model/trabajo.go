package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EstadoTrabajo string

const (
	EstadoPendiente  EstadoTrabajo = "pendiente"
	EstadoCompletado EstadoTrabajo = "completado"
)

type EtapaTrabajo string

const (
	EtapaDiseno  EtapaTrabajo = "diseno"
	EtapaFresado EtapaTrabajo = "fresado"
)

type AccionTrabajo string

const (
	AccionIniciarFresado AccionTrabajo = "iniciar_fresado"
	AccionCompletar      AccionTrabajo = "completar"
)

// ErrTransicionInvalida is returned when an action is not allowed from the
// job's current state.
var ErrTransicionInvalida = errors.New("transicion de estado no permitida")

// Fase is the (estado, etapa) pair a Trabajo is in.
type Fase struct {
	Estado EstadoTrabajo
	Etapa  EtapaTrabajo
}

// transiciones is the whole workflow: anything not listed is rejected.
// completado/* has no outgoing edges.
var transiciones = map[Fase]map[AccionTrabajo]Fase{
	{EstadoPendiente, EtapaDiseno}: {
		AccionIniciarFresado: {EstadoPendiente, EtapaFresado},
		AccionCompletar:      {EstadoCompletado, EtapaDiseno},
	},
	{EstadoPendiente, EtapaFresado}: {
		AccionCompletar: {EstadoCompletado, EtapaFresado},
	},
}

// Trabajo is one dental-lab job (treatment request).
type Trabajo struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TipoTratamiento   string    `gorm:"type:varchar(40);not null;index"`
	NombreTratamiento *string
	Paciente          string `gorm:"not null"`
	Pieza             *string
	Doctor            *string
	Estado            EstadoTrabajo `gorm:"type:varchar(20);not null;default:'pendiente';index"`
	Etapa             EtapaTrabajo  `gorm:"type:varchar(20);not null;default:'diseno'"`
	FechaEntrega      *time.Time    `gorm:"type:date"`
	Notas             *string
	CreadoPor         uuid.UUID  `gorm:"type:uuid;not null;index"`
	CompletadoPor     *uuid.UUID `gorm:"type:uuid"`
	CompletadoAt      *time.Time
	CreatedAt         time.Time `gorm:"index"`
	UpdatedAt         time.Time
}

func (Trabajo) TableName() string { return "trabajos" }

func (t *Trabajo) Fase() Fase { return Fase{Estado: t.Estado, Etapa: t.Etapa} }

// NombreTratamientoVisible is the label shown for this job's treatment.
func (t *Trabajo) NombreTratamientoVisible() string {
	return EtiquetaTratamiento(t.TipoTratamiento, t.NombreTratamiento)
}

// Transicion returns the phase reached by applying accion, or an error wrapping
// ErrTransicionInvalida. It does not mutate the job.
func (t *Trabajo) Transicion(accion AccionTrabajo) (Fase, error) {
	if accion == AccionIniciarFresado && !RequiereFresado(t.TipoTratamiento) {
		return Fase{}, fmt.Errorf("%w: el tratamiento %q no requiere fresado",
			ErrTransicionInvalida, t.NombreTratamientoVisible())
	}
	siguiente, ok := transiciones[t.Fase()][accion]
	if !ok {
		return Fase{}, fmt.Errorf("%w: %s no es valido en %s/%s",
			ErrTransicionInvalida, accion, t.Estado, t.Etapa)
	}
	return siguiente, nil
}
