package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// contadorComandos counts commands sent through the client, retries included.
type contadorComandos struct{ n atomic.Int64 }

func (h *contadorComandos) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *contadorComandos) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.n.Add(1)
		return next(ctx, cmd)
	}
}

func (h *contadorComandos) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestPool_RedisCaidoEsperaEntreIntentos(t *testing.T) {
	anterior := esperaTrasError
	esperaTrasError = 100 * time.Millisecond
	t.Cleanup(func() { esperaTrasError = anterior })

	// nothing listens on port 1: every dial is refused immediately
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	contador := &contadorComandos{}
	rdb.AddHook(contador)

	pool := NewPool(rdb)
	pool.Register(QueueEmail, JobEmail, NewEmailWorker(&stubMailer{}, nuevoCB()))

	ctx, cancel := context.WithTimeout(context.Background(), 350*time.Millisecond)
	defer cancel()
	pool.Start(ctx, 1)

	listo := make(chan struct{})
	go func() {
		pool.Wait()
		close(listo)
	}()
	select {
	case <-listo:
	case <-time.After(2 * time.Second):
		t.Fatal("el pool no se detuvo al cancelar el contexto")
	}

	// ~350ms at one attempt per 100ms; a loop without pause would make hundreds
	assert.LessOrEqual(t, contador.n.Load(), int64(6))
	assert.GreaterOrEqual(t, contador.n.Load(), int64(1))
}
