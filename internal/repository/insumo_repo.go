package repository

import (
	"context"
	"errors"

	"argotelabs/internal/dto"
	"argotelabs/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InsumoRepository defines the data access contract for inventory items.
// Services depend on this interface so unit tests can swap in an in-memory stub.
type InsumoRepository interface {
	Create(ctx context.Context, i *model.Insumo) error
	CreateTx(tx *gorm.DB, i *model.Insumo) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Insumo, error)
	FindByNombre(ctx context.Context, nombre string) (*model.Insumo, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Insumo, error)
	List(ctx context.Context, filter dto.InsumoFilter) ([]model.Insumo, int64, error)
	ListAlertas(ctx context.Context) ([]model.Insumo, error)
	Update(ctx context.Context, i *model.Insumo) error
	SetActivo(ctx context.Context, id uuid.UUID, activo bool) error

	// Delete removes the item and, through the FK cascade, its ledger rows.
	Delete(ctx context.Context, id uuid.UUID) error

	// AjustarCantidadTx applies delta only if the item is active and the result
	// stays >= 0. ok=false means no row matched; the caller re-reads to tell
	// "missing" from "insufficient".
	AjustarCantidadTx(tx *gorm.DB, id uuid.UUID, delta int) (nueva int, ok bool, err error)

	NombresPorIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type insumoRepo struct{ db *gorm.DB }

func NewInsumoRepository(db *gorm.DB) InsumoRepository { return &insumoRepo{db: db} }

func (r *insumoRepo) Create(ctx context.Context, i *model.Insumo) error {
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *insumoRepo) CreateTx(tx *gorm.DB, i *model.Insumo) error {
	return tx.Create(i).Error
}

func (r *insumoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Insumo, error) {
	var i model.Insumo
	err := r.db.WithContext(ctx).First(&i, "id = ?", id).Error
	return &i, err
}

func (r *insumoRepo) FindByNombre(ctx context.Context, nombre string) (*model.Insumo, error) {
	var i model.Insumo
	err := r.db.WithContext(ctx).Where("LOWER(nombre) = LOWER(?)", nombre).First(&i).Error
	return &i, err
}

func (r *insumoRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Insumo, error) {
	var insumos []model.Insumo
	if len(ids) == 0 {
		return insumos, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&insumos).Error
	return insumos, err
}

func (r *insumoRepo) List(ctx context.Context, filter dto.InsumoFilter) ([]model.Insumo, int64, error) {
	var insumos []model.Insumo
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Insumo{})

	// Activo filter: "false" = inactivos, "all" = todos, anything else = activos (default)
	switch filter.Activo {
	case "false":
		q = q.Where("activo = false")
	case "all":
	default:
		q = q.Where("activo = true")
	}
	if filter.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+filter.Nombre+"%")
	}
	if filter.Categoria != "" {
		q = q.Where("categoria = ?", filter.Categoria)
	}
	if filter.Etiqueta != "" {
		q = q.Where("? = ANY(etiquetas)", filter.Etiqueta)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("nombre ASC").Limit(filter.Limit).Offset(offset).Find(&insumos).Error
	return insumos, total, err
}

func (r *insumoRepo) ListAlertas(ctx context.Context) ([]model.Insumo, error) {
	var insumos []model.Insumo
	err := r.db.WithContext(ctx).
		Where("activo = true AND stock_minimo > 0 AND cantidad <= stock_minimo").
		Order("cantidad ASC, nombre ASC").
		Find(&insumos).Error
	return insumos, err
}

// Update writes the editable columns only; cantidad moves exclusively through the ledger.
func (r *insumoRepo) Update(ctx context.Context, i *model.Insumo) error {
	res := r.db.WithContext(ctx).Model(i).
		Select("nombre", "categoria", "unidad", "stock_minimo", "etiquetas", "updated_at").
		Updates(i)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *insumoRepo) SetActivo(ctx context.Context, id uuid.UUID, activo bool) error {
	res := r.db.WithContext(ctx).Model(&model.Insumo{}).Where("id = ?", id).Update("activo", activo)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *insumoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Explicit delete keeps older schemas without the FK cascade consistent.
		if err := tx.Where("insumo_id = ?", id).Delete(&model.MovimientoStock{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Insumo{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *insumoRepo) AjustarCantidadTx(tx *gorm.DB, id uuid.UUID, delta int) (int, bool, error) {
	var fila model.Insumo
	res := tx.Model(&fila).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "cantidad"}}}).
		Where("id = ? AND activo = true AND cantidad + ? >= 0", id, delta).
		Update("cantidad", gorm.Expr("cantidad + ?", delta))
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	return fila.Cantidad, true, nil
}

func (r *insumoRepo) NombresPorIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	return nombresPorIDs(ctx, r.db, &model.Insumo{}, ids)
}

func (r *insumoRepo) DB() *gorm.DB { return r.db }

// IsNotFound reports whether err is GORM's record-not-found sentinel.
func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }
