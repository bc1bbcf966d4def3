package repository

import (
	"context"
	"strings"
	"time"

	"argotelabs/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrabajoFilter is the repository-level view of a job listing request.
// CreadoPor is set when the scope is "propios".
type TrabajoFilter struct {
	CreadoPor *uuid.UUID
	Estado    string
	Etapa     string
	Tipo      string
	Q         string
	Page      int
	Limit     int
}

type TrabajoRepository interface {
	Create(ctx context.Context, t *model.Trabajo) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Trabajo, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter TrabajoFilter) ([]model.Trabajo, int64, error)

	CreateMateriales(ctx context.Context, materiales []model.TrabajoMaterial) error
	DeleteMaterial(ctx context.Context, id uuid.UUID) error
	ListMateriales(ctx context.Context, trabajoIDs []uuid.UUID) ([]model.TrabajoMaterial, error)

	// UpdateEtapa moves a job from one phase to the next only if it is still in "desde".
	UpdateEtapa(ctx context.Context, id uuid.UUID, desde, hacia model.Fase) error

	// Completar sets estado, completado_por and completado_at in one statement,
	// guarded by estado = 'pendiente'. ok=false means nothing matched.
	Completar(ctx context.Context, id uuid.UUID, etapa model.EtapaTrabajo, por uuid.UUID, at time.Time) (bool, error)

	// EliminarConDependencias deletes reports, materials and the job in one transaction.
	EliminarConDependencias(ctx context.Context, id uuid.UUID) error
}

type trabajoRepo struct{ db *gorm.DB }

func NewTrabajoRepository(db *gorm.DB) TrabajoRepository { return &trabajoRepo{db: db} }

func (r *trabajoRepo) Create(ctx context.Context, t *model.Trabajo) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *trabajoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Trabajo, error) {
	var t model.Trabajo
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	return &t, err
}

func (r *trabajoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Trabajo{}).Error
}

func (r *trabajoRepo) List(ctx context.Context, filter TrabajoFilter) ([]model.Trabajo, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Trabajo{})
	if filter.CreadoPor != nil {
		q = q.Where("creado_por = ?", *filter.CreadoPor)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Etapa != "" {
		q = q.Where("etapa = ?", filter.Etapa)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo_tratamiento = ?", filter.Tipo)
	}
	if s := strings.TrimSpace(filter.Q); s != "" {
		like := "%" + s + "%"
		q = q.Where("(paciente ILIKE ? OR doctor ILIKE ? OR nombre_tratamiento ILIKE ? OR pieza ILIKE ?)",
			like, like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var trabajos []model.Trabajo
	err := q.Order("created_at DESC, id DESC").Limit(filter.Limit).Offset(offset).Find(&trabajos).Error
	return trabajos, total, err
}

func (r *trabajoRepo) CreateMateriales(ctx context.Context, materiales []model.TrabajoMaterial) error {
	if len(materiales) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&materiales).Error
}

func (r *trabajoRepo) DeleteMaterial(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.TrabajoMaterial{}).Error
}

func (r *trabajoRepo) ListMateriales(ctx context.Context, trabajoIDs []uuid.UUID) ([]model.TrabajoMaterial, error) {
	var materiales []model.TrabajoMaterial
	if len(trabajoIDs) == 0 {
		return materiales, nil
	}
	err := r.db.WithContext(ctx).
		Where("trabajo_id IN ?", trabajoIDs).
		Order("created_at ASC").
		Find(&materiales).Error
	return materiales, err
}

func (r *trabajoRepo) UpdateEtapa(ctx context.Context, id uuid.UUID, desde, hacia model.Fase) error {
	res := r.db.WithContext(ctx).Model(&model.Trabajo{}).
		Where("id = ? AND estado = ? AND etapa = ?", id, desde.Estado, desde.Etapa).
		Updates(map[string]interface{}{
			"estado":     hacia.Estado,
			"etapa":      hacia.Etapa,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *trabajoRepo) Completar(ctx context.Context, id uuid.UUID, etapa model.EtapaTrabajo, por uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Trabajo{}).
		Where("id = ? AND estado = ?", id, model.EstadoPendiente).
		Updates(map[string]interface{}{
			"estado":         model.EstadoCompletado,
			"etapa":          etapa,
			"completado_por": por,
			"completado_at":  at,
			"updated_at":     at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *trabajoRepo) EliminarConDependencias(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trabajo_id = ?", id).Delete(&model.ReporteTrabajo{}).Error; err != nil {
			return err
		}
		if err := tx.Where("trabajo_id = ?", id).Delete(&model.TrabajoMaterial{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Trabajo{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
