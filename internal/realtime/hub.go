// Package realtime fans table-change notifications out to connected dashboards
// over Server-Sent Events. Changes are published to Redis so every server
// instance relays them to its own clients.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	TablaInsumos     = "insumos"
	TablaMovimientos = "movimientos_stock"
	TablaTrabajos    = "trabajos"
	TablaReportes    = "reportes_trabajo"
	TablaSesion      = "sesion"

	AccionInsert = "INSERT"
	AccionUpdate = "UPDATE"
	AccionDelete = "DELETE"
)

// Evento describes one row change. UsuarioID, when set, restricts delivery to
// that user's connections (session events).
type Evento struct {
	Tabla     string `json:"tabla"`
	Accion    string `json:"accion"`
	ID        string `json:"id"`
	UsuarioID string `json:"usuario_id,omitempty"`
}

// Mensaje is what a client stream writes: an SSE event name plus its JSON payload.
type Mensaje struct {
	Tipo  string
	Datos string
}

// Cliente is one open SSE connection.
type Cliente struct {
	ID        string
	UsuarioID string
	Mensajes  chan Mensaje
}

// Hub tracks connected clients. It is safe for concurrent use.
type Hub struct {
	mu       sync.RWMutex
	clientes map[string]*Cliente
	cerrado  bool
}

func NewHub() *Hub {
	return &Hub{clientes: make(map[string]*Cliente)}
}

// Registrar adds c. On a closed hub the channel is closed right away so the
// stream returns.
func (h *Hub) Registrar(c *Cliente) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cerrado {
		close(c.Mensajes)
		return
	}
	h.clientes[c.ID] = c
	log.Debug().Str("cliente", c.ID).Str("usuario_id", c.UsuarioID).Int("total", len(h.clientes)).Msg("sse: cliente conectado")
}

func (h *Hub) Desregistrar(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clientes[id]; ok {
		close(c.Mensajes)
		delete(h.clientes, id)
		log.Debug().Str("cliente", id).Int("total", len(h.clientes)).Msg("sse: cliente desconectado")
	}
}

// Cerrar closes every client channel, ending their streams. Used on shutdown
// so http.Server.Shutdown does not wait on open SSE connections.
func (h *Hub) Cerrar() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cerrado = true
	for id, c := range h.clientes {
		close(c.Mensajes)
		delete(h.clientes, id)
	}
	log.Info().Msg("sse: hub cerrado")
}

func (h *Hub) Conectados() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clientes)
}

// Difundir delivers ev to every client, or only to the owner's clients when
// ev.UsuarioID is set. Slow clients with a full buffer miss the event.
func (h *Hub) Difundir(ev Evento) {
	datos, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("sse: no se pudo serializar evento")
		return
	}
	msg := Mensaje{Tipo: "cambio", Datos: string(datos)}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clientes {
		if ev.UsuarioID != "" && c.UsuarioID != ev.UsuarioID {
			continue
		}
		select {
		case c.Mensajes <- msg:
		default:
			log.Warn().Str("cliente", c.ID).Msg("sse: buffer lleno, evento descartado")
		}
	}
}
