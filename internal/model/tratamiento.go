package model

// Treatment codes are stored verbatim in trabajos.tipo_tratamiento; the set is
// closed and shared with the dashboards.
const (
	TratamientoCarillas               = "carillas"
	TratamientoCoronaImplante         = "corona_implante"
	TratamientoCoronas                = "coronas"
	TratamientoDisenoSonrisa          = "diseno_sonrisa"
	TratamientoGuardas                = "guardas"
	TratamientoGuiaQuirurgica         = "guia_quirurgica"
	TratamientoIncrustaciones         = "incrustaciones"
	TratamientoModeloOrtodoncia       = "modelo_ortodoncia"
	TratamientoOtra                   = "otra"
	TratamientoRehabilitacionCompleta = "rehabilitacion_completa"
)

type tratamiento struct {
	etiqueta        string
	requiereFresado bool
}

var tratamientos = map[string]tratamiento{
	TratamientoCarillas:               {"Carillas", true},
	TratamientoCoronaImplante:         {"Corona sobre implante", true},
	TratamientoCoronas:                {"Coronas", true},
	TratamientoDisenoSonrisa:          {"Diseño de sonrisa", false},
	TratamientoGuardas:                {"Guardas", false},
	TratamientoGuiaQuirurgica:         {"Guía quirúrgica", false},
	TratamientoIncrustaciones:         {"Incrustaciones", true},
	TratamientoModeloOrtodoncia:       {"Modelo de ortodoncia", false},
	TratamientoOtra:                   {"Otra", false},
	TratamientoRehabilitacionCompleta: {"Rehabilitación completa", true},
}

func EsTratamientoValido(tipo string) bool {
	_, ok := tratamientos[tipo]
	return ok
}

// RequiereFresado reports whether jobs of this type pass through the milling stage.
func RequiereFresado(tipo string) bool {
	return tratamientos[tipo].requiereFresado
}

// EtiquetaTratamiento returns the display name of a treatment. A non-empty
// stored name always wins; unknown codes are echoed back unchanged.
func EtiquetaTratamiento(tipo string, nombre *string) string {
	if nombre != nil && *nombre != "" {
		return *nombre
	}
	if t, ok := tratamientos[tipo]; ok {
		return t.etiqueta
	}
	return tipo
}
