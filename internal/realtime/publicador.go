package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Canal is the Redis pub/sub channel carrying Evento payloads.
const Canal = "cambios"

// Publicador announces a row change. Implementations never fail the caller:
// notification is best effort.
type Publicador interface {
	Publicar(ctx context.Context, ev Evento)
}

// RedisPublicador publishes to Canal so all instances see the change.
type RedisPublicador struct {
	rdb *redis.Client
}

func NewRedisPublicador(rdb *redis.Client) *RedisPublicador {
	return &RedisPublicador{rdb: rdb}
}

func (p *RedisPublicador) Publicar(ctx context.Context, ev Evento) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := p.rdb.Publish(ctx, Canal, payload).Err(); err != nil {
		log.Warn().Err(err).Str("tabla", ev.Tabla).Str("id", ev.ID).Msg("realtime: publish fallido")
	}
}

// HubPublicador delivers straight to a local hub; used when Redis is unavailable.
type HubPublicador struct {
	hub *Hub
}

func NewHubPublicador(hub *Hub) *HubPublicador { return &HubPublicador{hub: hub} }

func (p *HubPublicador) Publicar(_ context.Context, ev Evento) { p.hub.Difundir(ev) }

// Relay subscribes to Canal and forwards every event to hub until ctx is cancelled.
func Relay(ctx context.Context, rdb *redis.Client, hub *Hub) {
	sub := rdb.Subscribe(ctx, Canal)
	defer sub.Close()

	log.Info().Str("canal", Canal).Msg("realtime relay iniciado")
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("realtime relay detenido")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Evento
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn().Err(err).Msg("realtime: payload invalido")
				continue
			}
			hub.Difundir(ev)
		}
	}
}
