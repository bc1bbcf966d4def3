package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransicion_Tabla(t *testing.T) {
	casos := []struct {
		tipo    string
		desde   Fase
		accion  AccionTrabajo
		hacia   Fase
		permite bool
	}{
		{TratamientoCoronas, Fase{EstadoPendiente, EtapaDiseno}, AccionIniciarFresado, Fase{EstadoPendiente, EtapaFresado}, true},
		{TratamientoCoronas, Fase{EstadoPendiente, EtapaDiseno}, AccionCompletar, Fase{EstadoCompletado, EtapaDiseno}, true},
		{TratamientoCoronas, Fase{EstadoPendiente, EtapaFresado}, AccionCompletar, Fase{EstadoCompletado, EtapaFresado}, true},
		{TratamientoCoronas, Fase{EstadoPendiente, EtapaFresado}, AccionIniciarFresado, Fase{}, false},
		{TratamientoCoronas, Fase{EstadoCompletado, EtapaDiseno}, AccionCompletar, Fase{}, false},
		{TratamientoCoronas, Fase{EstadoCompletado, EtapaDiseno}, AccionIniciarFresado, Fase{}, false},
		{TratamientoCoronas, Fase{EstadoCompletado, EtapaFresado}, AccionCompletar, Fase{}, false},
		{TratamientoCoronas, Fase{EstadoCompletado, EtapaFresado}, AccionIniciarFresado, Fase{}, false},
		{TratamientoGuardas, Fase{EstadoPendiente, EtapaDiseno}, AccionIniciarFresado, Fase{}, false},
		{TratamientoGuardas, Fase{EstadoPendiente, EtapaDiseno}, AccionCompletar, Fase{EstadoCompletado, EtapaDiseno}, true},
	}
	for _, c := range casos {
		tr := &Trabajo{TipoTratamiento: c.tipo, Estado: c.desde.Estado, Etapa: c.desde.Etapa}
		got, err := tr.Transicion(c.accion)
		if c.permite {
			require.NoError(t, err, "%s %s/%s %s", c.tipo, c.desde.Estado, c.desde.Etapa, c.accion)
			assert.Equal(t, c.hacia, got)
		} else {
			assert.ErrorIs(t, err, ErrTransicionInvalida, "%s %s/%s %s", c.tipo, c.desde.Estado, c.desde.Etapa, c.accion)
		}
		// Transicion never mutates the job.
		assert.Equal(t, c.desde, tr.Fase())
	}
}

func TestRequiereFresado(t *testing.T) {
	con := []string{TratamientoCarillas, TratamientoCoronaImplante, TratamientoCoronas, TratamientoIncrustaciones, TratamientoRehabilitacionCompleta}
	sin := []string{TratamientoDisenoSonrisa, TratamientoGuardas, TratamientoGuiaQuirurgica, TratamientoModeloOrtodoncia, TratamientoOtra, "desconocido"}
	for _, tipo := range con {
		assert.True(t, RequiereFresado(tipo), tipo)
	}
	for _, tipo := range sin {
		assert.False(t, RequiereFresado(tipo), tipo)
	}
}

func TestEtiquetaTratamiento(t *testing.T) {
	nombre := "Provisional"
	vacio := ""
	assert.Equal(t, "Corona sobre implante", EtiquetaTratamiento(TratamientoCoronaImplante, nil))
	assert.Equal(t, "Provisional", EtiquetaTratamiento(TratamientoOtra, &nombre))
	assert.Equal(t, "Otra", EtiquetaTratamiento(TratamientoOtra, &vacio))
	assert.Equal(t, "implante_x", EtiquetaTratamiento("implante_x", nil))
	assert.True(t, EsTratamientoValido(TratamientoGuiaQuirurgica))
	assert.False(t, EsTratamientoValido("implante_x"))
}
