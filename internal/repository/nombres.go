package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type filaNombre struct {
	ID     uuid.UUID
	Nombre string
}

// nombresPorIDs runs one batched SELECT id, nombre for any table that has both columns.
func nombresPorIDs(ctx context.Context, db *gorm.DB, m interface{}, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var filas []filaNombre
	err := db.WithContext(ctx).Model(m).
		Select("id", "nombre").
		Where("id IN ?", ids).
		Scan(&filas).Error
	if err != nil {
		return nil, err
	}
	for _, f := range filas {
		out[f.ID] = f.Nombre
	}
	return out, nil
}
