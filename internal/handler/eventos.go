package handler

import (
	"encoding/json"
	"fmt"
	"time"

	"argotelabs/internal/metrics"
	"argotelabs/internal/middleware"
	"argotelabs/internal/realtime"

	"github.com/gin-gonic/gin"
)

const keepalive = 30 * time.Second

type EventosHandler struct{ hub *realtime.Hub }

func NewEventosHandler(hub *realtime.Hub) *EventosHandler { return &EventosHandler{hub: hub} }

// Stream handles the SSE endpoint
// GET /v1/eventos?token=xxx
func (h *EventosHandler) Stream(c *gin.Context) {
	usuarioID := middleware.UsuarioID(c).String()
	cliente := &realtime.Cliente{
		ID:        fmt.Sprintf("%s_%d", usuarioID, time.Now().UnixNano()),
		UsuarioID: usuarioID,
		Mensajes:  make(chan realtime.Mensaje, 64),
	}
	h.hub.Registrar(cliente)
	metrics.ClientesSSE.Inc()
	defer metrics.ClientesSSE.Dec()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	hola, _ := json.Marshal(map[string]string{"client_id": cliente.ID})
	fmt.Fprintf(c.Writer, "event: connected\ndata: %s\n\n", hola)
	c.Writer.Flush()

	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			h.hub.Desregistrar(cliente.ID)
			return
		case msg, ok := <-cliente.Mensajes:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", msg.Tipo, msg.Datos)
			c.Writer.Flush()
		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
