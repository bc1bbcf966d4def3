package infra

import (
	"fmt"
	"time"

	"argotelabs/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the GORM connection, migrates the schema and applies the
// idempotent SQL patches that struct tags cannot express.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates/updates every table and then applies schema patches.
// Integration tests call it directly against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	// gen_random_uuid() defaults need pgcrypto on PostgreSQL < 13.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Insumo{},
		&model.MovimientoStock{},
		&model.Trabajo{},
		&model.TrabajoMaterial{},
		&model.ReporteTrabajo{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs DDL that AutoMigrate cannot handle. Each statement
// is guarded so re-running on an already patched database is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Last line of defence for the ledger projection: quantity never negative.
		{"check insumos.cantidad >= 0", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_insumos_cantidad_no_negativa') THEN
    ALTER TABLE insumos ADD CONSTRAINT chk_insumos_cantidad_no_negativa CHECK (cantidad >= 0);
  END IF;
END $$`},
		{"check trabajo_materiales.cantidad > 0", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_trabajo_materiales_cantidad') THEN
    ALTER TABLE trabajo_materiales ADD CONSTRAINT chk_trabajo_materiales_cantidad CHECK (cantidad > 0);
  END IF;
END $$`},
		// Names are unique regardless of case.
		{"unique lower(insumos.nombre)",
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_insumos_nombre_lower ON insumos (LOWER(nombre))`},
		{"unique lower(usuarios.email)",
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_usuarios_email_lower ON usuarios (LOWER(email))`},
		// Listing and pruning both walk the ledger newest-first.
		{"ledger order index",
			`CREATE INDEX IF NOT EXISTS idx_movimientos_stock_orden ON movimientos_stock (created_at DESC, id DESC)`},
		{"trabajos order index",
			`CREATE INDEX IF NOT EXISTS idx_trabajos_orden ON trabajos (created_at DESC, id DESC)`},
		{"insumos etiquetas gin index",
			`CREATE INDEX IF NOT EXISTS idx_insumos_etiquetas ON insumos USING GIN (etiquetas)`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
