package repository

import (
	"context"
	"strings"

	"argotelabs/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoStockFilter defines filters for listing ledger rows.
type MovimientoStockFilter struct {
	InsumoID *uuid.UUID
	Q        string
	Page     int
	Limit    int
}

type MovimientoStockRepository interface {
	CreateTx(tx *gorm.DB, m *model.MovimientoStock) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MovimientoStock, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter MovimientoStockFilter) ([]model.MovimientoStock, int64, error)

	// PodarExcedente keeps the max newest rows (created_at DESC, id DESC) and
	// deletes the rest, returning how many were removed.
	PodarExcedente(ctx context.Context, max int) (int64, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) CreateTx(tx *gorm.DB, m *model.MovimientoStock) error {
	return tx.Create(m).Error
}

func (r *movimientoStockRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.MovimientoStock, error) {
	var m model.MovimientoStock
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	return &m, err
}

func (r *movimientoStockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.MovimientoStock{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *movimientoStockRepo) List(ctx context.Context, filter MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimientoStock{})
	if filter.InsumoID != nil {
		q = q.Where("movimientos_stock.insumo_id = ?", *filter.InsumoID)
	}
	if s := strings.TrimSpace(filter.Q); s != "" {
		like := "%" + s + "%"
		q = q.
			Joins("LEFT JOIN insumos ON insumos.id = movimientos_stock.insumo_id").
			Joins("LEFT JOIN usuarios ON usuarios.id = movimientos_stock.creado_por").
			Where(`(insumos.nombre ILIKE ? OR usuarios.nombre ILIKE ? OR movimientos_stock.motivo ILIKE ?
				OR CAST(movimientos_stock.cantidad AS TEXT) = ?)`, like, like, like, s)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := (page - 1) * limit

	var movimientos []model.MovimientoStock
	err := q.Select("movimientos_stock.*").
		Order("movimientos_stock.created_at DESC, movimientos_stock.id DESC").
		Offset(offset).Limit(limit).
		Find(&movimientos).Error
	return movimientos, total, err
}

func (r *movimientoStockRepo) PodarExcedente(ctx context.Context, max int) (int64, error) {
	if max < 0 {
		max = 0
	}
	res := r.db.WithContext(ctx).Exec(`
		DELETE FROM movimientos_stock
		WHERE id IN (
			SELECT id FROM movimientos_stock
			ORDER BY created_at DESC, id DESC
			OFFSET ?
		)`, max)
	return res.RowsAffected, res.Error
}
