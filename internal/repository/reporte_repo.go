package repository

import (
	"context"

	"argotelabs/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReporteRepository interface {
	Create(ctx context.Context, r *model.ReporteTrabajo) error
	ListByTrabajo(ctx context.Context, trabajoID uuid.UUID) ([]model.ReporteTrabajo, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type reporteRepo struct{ db *gorm.DB }

func NewReporteRepository(db *gorm.DB) ReporteRepository { return &reporteRepo{db: db} }

func (r *reporteRepo) Create(ctx context.Context, rep *model.ReporteTrabajo) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *reporteRepo) ListByTrabajo(ctx context.Context, trabajoID uuid.UUID) ([]model.ReporteTrabajo, error) {
	var reportes []model.ReporteTrabajo
	err := r.db.WithContext(ctx).
		Where("trabajo_id = ?", trabajoID).
		Order("created_at DESC").
		Find(&reportes).Error
	return reportes, err
}

func (r *reporteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ReporteTrabajo{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
