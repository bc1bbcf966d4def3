package infra

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const prefijoRevocado = "auth:revocado:"

// Sesiones keeps the denylist of signed-out token ids. Entries expire with
// the token they revoke, so the set never grows unbounded.
type Sesiones struct {
	rdb *redis.Client
}

func NewSesiones(rdb *redis.Client) *Sesiones { return &Sesiones{rdb: rdb} }

// Revocar marks jti as signed out until expira.
func (s *Sesiones) Revocar(ctx context.Context, jti string, expira time.Time) error {
	ttl := time.Until(expira)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, prefijoRevocado+jti, "1", ttl).Err()
}

// Revocado reports whether jti was signed out. A Redis failure is returned so
// the caller can decide whether to fail open or closed.
func (s *Sesiones) Revocado(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, prefijoRevocado+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
