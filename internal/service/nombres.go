package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// FuenteNombres is a batched id → nombre lookup (insumos, usuarios).
type FuenteNombres interface {
	NombresPorIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// Nombres holds the display names resolved for one page of results.
type Nombres struct {
	insumos  map[uuid.UUID]string
	usuarios map[uuid.UUID]string
}

// Insumo returns the item name or, if unknown, the raw id.
func (n Nombres) Insumo(id uuid.UUID) string { return nombreOID(n.insumos, id) }

// Usuario returns the user name or, if unknown, the raw id.
func (n Nombres) Usuario(id uuid.UUID) string { return nombreOID(n.usuarios, id) }

func nombreOID(m map[uuid.UUID]string, id uuid.UUID) string {
	if nombre, ok := m[id]; ok && nombre != "" {
		return nombre
	}
	return id.String()
}

// ResolverNombres enriches listings with item and user names using two
// concurrent batched lookups per call.
type ResolverNombres struct {
	insumos  FuenteNombres
	usuarios FuenteNombres
}

func NewResolverNombres(insumos, usuarios FuenteNombres) *ResolverNombres {
	return &ResolverNombres{insumos: insumos, usuarios: usuarios}
}

// Resolver never fails: a lookup error is logged and the affected ids fall
// back to their string form.
func (r *ResolverNombres) Resolver(ctx context.Context, insumoIDs, usuarioIDs []uuid.UUID) Nombres {
	var n Nombres
	insumoIDs = unicos(insumoIDs)
	usuarioIDs = unicos(usuarioIDs)

	g, gctx := errgroup.WithContext(ctx)
	if len(insumoIDs) > 0 {
		g.Go(func() error {
			m, err := r.insumos.NombresPorIDs(gctx, insumoIDs)
			if err != nil {
				log.Warn().Err(err).Int("ids", len(insumoIDs)).Msg("nombres: lookup de insumos fallido")
				return nil
			}
			n.insumos = m
			return nil
		})
	}
	if len(usuarioIDs) > 0 {
		g.Go(func() error {
			m, err := r.usuarios.NombresPorIDs(gctx, usuarioIDs)
			if err != nil {
				log.Warn().Err(err).Int("ids", len(usuarioIDs)).Msg("nombres: lookup de usuarios fallido")
				return nil
			}
			n.usuarios = m
			return nil
		})
	}
	_ = g.Wait()
	return n
}

// unicos drops duplicates and the nil uuid, preserving first-seen order.
func unicos(ids []uuid.UUID) []uuid.UUID {
	vistos := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := vistos[id]; ok {
			continue
		}
		vistos[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
