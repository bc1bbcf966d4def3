package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	CategoriaBloc  = "bloc"
	CategoriaBur   = "bur"
	CategoriaOther = "other"

	EtiquetaEMax      = "E.MAX"
	EtiquetaReciclado = "RECICLADO"
	EtiquetaSirona    = "SIRONA"

	UnidadPorDefecto = "pzas"
)

var (
	categoriasValidas = map[string]bool{CategoriaBloc: true, CategoriaBur: true, CategoriaOther: true}
	etiquetasValidas  = map[string]bool{EtiquetaEMax: true, EtiquetaReciclado: true, EtiquetaSirona: true}
)

// Insumo is a consumable tracked by the stock ledger (blocks, burs, etc).
// Cantidad is a projection of the ledger: it is only written together with a
// MovimientoStock and never goes below zero.
type Insumo struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string         `gorm:"uniqueIndex;not null"`
	Categoria   string         `gorm:"type:varchar(10);not null"`
	Unidad      string         `gorm:"not null;default:'pzas'"`
	Cantidad    int            `gorm:"not null;default:0"`
	StockMinimo int            `gorm:"not null;default:0"`
	Etiquetas   pq.StringArray `gorm:"type:text[]"`
	Activo      bool           `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Insumo) TableName() string { return "insumos" }

func EsCategoriaValida(c string) bool { return categoriasValidas[c] }

func EsEtiquetaValida(e string) bool { return etiquetasValidas[e] }
