package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nuevoCliente(id, usuario string) *Cliente {
	return &Cliente{ID: id, UsuarioID: usuario, Mensajes: make(chan Mensaje, 4)}
}

func TestHub_DifundirLlegaATodos(t *testing.T) {
	hub := NewHub()
	a, b := nuevoCliente("a", "u1"), nuevoCliente("b", "u2")
	hub.Registrar(a)
	hub.Registrar(b)

	hub.Difundir(Evento{Tabla: TablaInsumos, Accion: AccionUpdate, ID: "x"})

	for _, c := range []*Cliente{a, b} {
		require.Len(t, c.Mensajes, 1)
		msg := <-c.Mensajes
		assert.Equal(t, "cambio", msg.Tipo)
		var ev Evento
		require.NoError(t, json.Unmarshal([]byte(msg.Datos), &ev))
		assert.Equal(t, TablaInsumos, ev.Tabla)
		assert.Equal(t, "x", ev.ID)
	}
}

func TestHub_EventoDeUsuarioSoloASusConexiones(t *testing.T) {
	hub := NewHub()
	a, b := nuevoCliente("a", "u1"), nuevoCliente("b", "u2")
	hub.Registrar(a)
	hub.Registrar(b)

	hub.Difundir(Evento{Tabla: TablaSesion, Accion: AccionDelete, ID: "u1", UsuarioID: "u1"})

	assert.Len(t, a.Mensajes, 1)
	assert.Len(t, b.Mensajes, 0)
}

func TestHub_BufferLlenoNoBloquea(t *testing.T) {
	hub := NewHub()
	c := &Cliente{ID: "lento", Mensajes: make(chan Mensaje, 1)}
	hub.Registrar(c)

	hub.Difundir(Evento{Tabla: TablaTrabajos, Accion: AccionInsert, ID: "1"})
	hub.Difundir(Evento{Tabla: TablaTrabajos, Accion: AccionInsert, ID: "2"})

	assert.Len(t, c.Mensajes, 1)
}

func TestHub_DesregistrarCierraCanal(t *testing.T) {
	hub := NewHub()
	c := nuevoCliente("a", "u1")
	hub.Registrar(c)
	require.Equal(t, 1, hub.Conectados())

	hub.Desregistrar("a")
	hub.Desregistrar("a") // second call is a no-op

	_, abierto := <-c.Mensajes
	assert.False(t, abierto)
	assert.Equal(t, 0, hub.Conectados())
}

func TestHub_CerrarTerminaLosStreams(t *testing.T) {
	hub := NewHub()
	a, b := nuevoCliente("a", "u1"), nuevoCliente("b", "u2")
	hub.Registrar(a)
	hub.Registrar(b)

	hub.Cerrar()

	for _, c := range []*Cliente{a, b} {
		_, abierto := <-c.Mensajes
		assert.False(t, abierto)
	}
	assert.Equal(t, 0, hub.Conectados())

	// late connections and disconnects after close must not panic
	tarde := nuevoCliente("c", "u3")
	hub.Registrar(tarde)
	_, abierto := <-tarde.Mensajes
	assert.False(t, abierto)
	assert.Equal(t, 0, hub.Conectados())
	hub.Desregistrar("a")
	hub.Difundir(Evento{Tabla: TablaInsumos, Accion: AccionUpdate, ID: "x"})
}

func TestHubPublicador(t *testing.T) {
	hub := NewHub()
	c := nuevoCliente("a", "u1")
	hub.Registrar(c)

	NewHubPublicador(hub).Publicar(context.Background(), Evento{Tabla: TablaMovimientos, Accion: AccionDelete, ID: "m"})
	assert.Len(t, c.Mensajes, 1)
}
