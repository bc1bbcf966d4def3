package service

import (
	"errors"
	"fmt"

	"argotelabs/internal/model"

	"gorm.io/gorm"
)

var (
	ErrValidacion         = errors.New("datos invalidos")
	ErrStockInsuficiente  = errors.New("stock insuficiente")
	ErrNoEncontrado       = errors.New("registro no encontrado")
	ErrTransicionInvalida = model.ErrTransicionInvalida
)

// StockInsuficienteError names the item that could not cover a removal.
// errors.Is(err, ErrStockInsuficiente) holds for it.
type StockInsuficienteError struct {
	Insumo     string
	Disponible int
	Solicitado int
}

func (e *StockInsuficienteError) Error() string {
	return fmt.Sprintf("stock insuficiente de %s: disponible %d, solicitado %d", e.Insumo, e.Disponible, e.Solicitado)
}

func (e *StockInsuficienteError) Is(target error) bool { return target == ErrStockInsuficiente }

func errValidacion(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidacion, fmt.Sprintf(format, args...))
}

func errNoEncontrado(entidad string) error {
	return fmt.Errorf("%w: %s", ErrNoEncontrado, entidad)
}

// traducirRepoErr turns GORM's not-found into ErrNoEncontrado and passes
// everything else through untouched.
func traducirRepoErr(err error, entidad string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNoEncontrado(entidad)
	}
	return err
}
