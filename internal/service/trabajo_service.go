package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"argotelabs/internal/dto"
	"argotelabs/internal/infra"
	"argotelabs/internal/metrics"
	"argotelabs/internal/model"
	"argotelabs/internal/realtime"
	"argotelabs/internal/repository"
	"argotelabs/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const formatoFecha = "2006-01-02"

// Actor is the authenticated caller as seen by services.
type Actor struct {
	ID  uuid.UUID
	Rol string
}

// Notificador queues outbound email. *worker.Dispatcher satisfies it.
type Notificador interface {
	EncolarEmail(ctx context.Context, p worker.EmailJobPayload) error
}

type TrabajoService interface {
	CrearTrabajo(ctx context.Context, actorID uuid.UUID, req dto.CrearTrabajoRequest) (*dto.TrabajoResponse, error)
	IniciarFresado(ctx context.Context, trabajoID, actorID uuid.UUID, materiales []dto.MaterialRequest) (*dto.TrabajoResponse, error)
	CompletarTrabajo(ctx context.Context, trabajoID, actorID uuid.UUID) (*dto.TrabajoResponse, error)
	EliminarTrabajo(ctx context.Context, trabajoID uuid.UUID) error
	ListarTrabajos(ctx context.Context, actor Actor, filter dto.TrabajoFilter) (*dto.TrabajoListResponse, error)
	ObtenerTrabajo(ctx context.Context, trabajoID uuid.UUID) (*dto.TrabajoResponse, error)
	OrdenPDF(ctx context.Context, trabajoID uuid.UUID) ([]byte, error)

	CrearReporte(ctx context.Context, trabajoID, actorID uuid.UUID, req dto.CrearReporteRequest) (*dto.ReporteResponse, error)
	ListarReportes(ctx context.Context, trabajoID uuid.UUID) ([]dto.ReporteResponse, error)
	EliminarReporte(ctx context.Context, reporteID uuid.UUID) error
}

type trabajoService struct {
	trabajos    repository.TrabajoRepository
	reportes    repository.ReporteRepository
	insumos     repository.InsumoRepository
	usuarios    repository.UsuarioRepository
	inventario  InventarioService
	nombres     *ResolverNombres
	pub         realtime.Publicador
	notificador Notificador
	laboratorio string
}

func NewTrabajoService(
	trabajos repository.TrabajoRepository,
	reportes repository.ReporteRepository,
	insumos repository.InsumoRepository,
	usuarios repository.UsuarioRepository,
	inventario InventarioService,
	nombres *ResolverNombres,
	pub realtime.Publicador,
	notificador Notificador,
	laboratorio string,
) TrabajoService {
	return &trabajoService{
		trabajos:    trabajos,
		reportes:    reportes,
		insumos:     insumos,
		usuarios:    usuarios,
		inventario:  inventario,
		nombres:     nombres,
		pub:         pub,
		notificador: notificador,
		laboratorio: laboratorio,
	}
}

// materialSolicitado is a validated material line.
type materialSolicitado struct {
	insumoID uuid.UUID
	cantidad int
}

// ── CrearTrabajo ─────────────────────────────────────────────────────────────
//   1. Validate the request and check live stock (nothing written on failure)
//   2. Insert the job, then its materials (compensating delete if that fails)
//   3. Record one negative movement per material; a failed movement drops its
//      material row and the rest continue

func (s *trabajoService) CrearTrabajo(ctx context.Context, actorID uuid.UUID, req dto.CrearTrabajoRequest) (*dto.TrabajoResponse, error) {
	trabajo, err := trabajoDesdeRequest(req)
	if err != nil {
		return nil, err
	}
	materiales, err := prepararMateriales(req.Materiales)
	if err != nil {
		return nil, err
	}
	if err := s.verificarStock(ctx, materiales); err != nil {
		return nil, err
	}

	trabajo.CreadoPor = actorID
	if err := s.trabajos.Create(ctx, trabajo); err != nil {
		return nil, err
	}

	filas, err := s.insertarMateriales(ctx, trabajo.ID, materiales, model.EtapaDiseno)
	if err != nil {
		if delErr := s.trabajos.Delete(ctx, trabajo.ID); delErr != nil {
			log.Error().Err(delErr).Str("trabajo_id", trabajo.ID.String()).Msg("no se pudo revertir el trabajo tras fallar sus materiales")
		}
		return nil, err
	}
	filas = s.consumirMateriales(ctx, trabajo, filas, actorID, model.MovimientoTrabajo, "Trabajo")

	metrics.TrabajosTransiciones.WithLabelValues("creado").Inc()
	log.Info().
		Str("trabajo_id", trabajo.ID.String()).
		Str("tipo", trabajo.TipoTratamiento).
		Int("materiales", len(filas)).
		Msg("trabajo creado")
	s.pub.Publicar(ctx, realtime.Evento{Tabla: realtime.TablaTrabajos, Accion: realtime.AccionInsert, ID: trabajo.ID.String()})

	return s.responder(ctx, trabajo, filas), nil
}

func trabajoDesdeRequest(req dto.CrearTrabajoRequest) (*model.Trabajo, error) {
	tipo := strings.TrimSpace(req.TipoTratamiento)
	if !model.EsTratamientoValido(tipo) {
		return nil, errValidacion("tipo de tratamiento %q no valido", req.TipoTratamiento)
	}
	nombre := recortar(req.NombreTratamiento)
	if tipo == model.TratamientoOtra && nombre == nil {
		return nil, errValidacion("debe indicar el nombre del tratamiento")
	}
	paciente := strings.TrimSpace(req.Paciente)
	if paciente == "" {
		return nil, errValidacion("el paciente es obligatorio")
	}
	if strings.TrimSpace(req.FechaEntrega) == "" {
		return nil, errValidacion("la fecha de entrega es obligatoria")
	}
	fecha, err := time.Parse(formatoFecha, strings.TrimSpace(req.FechaEntrega))
	if err != nil {
		return nil, errValidacion("fecha de entrega invalida, use AAAA-MM-DD")
	}

	return &model.Trabajo{
		TipoTratamiento:   tipo,
		NombreTratamiento: nombre,
		Paciente:          paciente,
		Pieza:             recortar(req.Pieza),
		Doctor:            recortar(req.Doctor),
		Estado:            model.EstadoPendiente,
		Etapa:             model.EtapaDiseno,
		FechaEntrega:      &fecha,
		Notas:             recortar(req.Notas),
	}, nil
}

// ── IniciarFresado ───────────────────────────────────────────────────────────

func (s *trabajoService) IniciarFresado(ctx context.Context, trabajoID, actorID uuid.UUID, materialesReq []dto.MaterialRequest) (*dto.TrabajoResponse, error) {
	trabajo, err := s.trabajos.FindByID(ctx, trabajoID)
	if err != nil {
		return nil, traducirRepoErr(err, "trabajo")
	}
	siguiente, err := trabajo.Transicion(model.AccionIniciarFresado)
	if err != nil {
		return nil, err
	}
	if len(materialesReq) == 0 {
		return nil, errValidacion("debe seleccionar al menos un insumo de fresado")
	}
	materiales, err := prepararMateriales(materialesReq)
	if err != nil {
		return nil, err
	}
	if err := s.verificarStock(ctx, materiales); err != nil {
		return nil, err
	}

	filas, err := s.insertarMateriales(ctx, trabajo.ID, materiales, model.EtapaFresado)
	if err != nil {
		return nil, err
	}
	s.consumirMateriales(ctx, trabajo, filas, actorID, model.MovimientoFresado, "Fresado")

	// Stock already moved at this point; a failed phase update is reported but not undone.
	if err := s.trabajos.UpdateEtapa(ctx, trabajo.ID, trabajo.Fase(), siguiente); err != nil {
		log.Error().Err(err).Str("trabajo_id", trabajo.ID.String()).Msg("insumos descontados pero la etapa no se actualizo")
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: el trabajo cambio de estado mientras se procesaba", ErrTransicionInvalida)
		}
		return nil, err
	}
	trabajo.Estado, trabajo.Etapa = siguiente.Estado, siguiente.Etapa

	metrics.TrabajosTransiciones.WithLabelValues(string(model.AccionIniciarFresado)).Inc()
	log.Info().Str("trabajo_id", trabajo.ID.String()).Msg("fresado iniciado")
	s.pub.Publicar(ctx, realtime.Evento{Tabla: realtime.TablaTrabajos, Accion: realtime.AccionUpdate, ID: trabajo.ID.String()})

	return s.ObtenerTrabajo(ctx, trabajo.ID)
}

// ── CompletarTrabajo ─────────────────────────────────────────────────────────

func (s *trabajoService) CompletarTrabajo(ctx context.Context, trabajoID, actorID uuid.UUID) (*dto.TrabajoResponse, error) {
	trabajo, err := s.trabajos.FindByID(ctx, trabajoID)
	if err != nil {
		return nil, traducirRepoErr(err, "trabajo")
	}
	siguiente, err := trabajo.Transicion(model.AccionCompletar)
	if err != nil {
		return nil, err
	}

	ahora := time.Now()
	ok, err := s.trabajos.Completar(ctx, trabajo.ID, siguiente.Etapa, actorID, ahora)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: el trabajo ya fue completado", ErrTransicionInvalida)
	}
	trabajo.Estado = siguiente.Estado
	trabajo.Etapa = siguiente.Etapa
	trabajo.CompletadoPor = &actorID
	trabajo.CompletadoAt = &ahora

	metrics.TrabajosTransiciones.WithLabelValues(string(model.AccionCompletar)).Inc()
	log.Info().Str("trabajo_id", trabajo.ID.String()).Str("completado_por", actorID.String()).Msg("trabajo completado")
	s.pub.Publicar(ctx, realtime.Evento{Tabla: realtime.TablaTrabajos, Accion: realtime.AccionUpdate, ID: trabajo.ID.String()})

	resp, err := s.ObtenerTrabajo(ctx, trabajo.ID)
	if err != nil {
		return nil, err
	}
	s.notificarCompletado(ctx, trabajo, resp)
	return resp, nil
}

// notificarCompletado queues an email with the work order to the job's
// creator. Failures are logged only.
func (s *trabajoService) notificarCompletado(ctx context.Context, t *model.Trabajo, resp *dto.TrabajoResponse) {
	if s.notificador == nil {
		return
	}
	creador, err := s.usuarios.FindByID(ctx, t.CreadoPor)
	if err != nil || creador.Email == "" {
		return
	}
	pdf, err := infra.GenerarOrdenPDF(s.ordenPDF(resp))
	if err != nil {
		log.Warn().Err(err).Str("trabajo_id", t.ID.String()).Msg("no se pudo generar la orden para el aviso")
	}
	payload := worker.EmailJobPayload{
		ToEmail: creador.Email,
		Subject: fmt.Sprintf("Trabajo completado: %s - %s", resp.Tratamiento, t.Paciente),
		Body: fmt.Sprintf("Hola %s,\n\nEl trabajo %s del paciente %s (#%s) fue completado.\n\n%s",
			creador.Nombre, resp.Tratamiento, t.Paciente, idCorto(t.ID), s.laboratorio),
		Adjunto:       pdf,
		NombreAdjunto: fmt.Sprintf("orden_%s.pdf", idCorto(t.ID)),
	}
	if err := s.notificador.EncolarEmail(ctx, payload); err != nil {
		log.Warn().Err(err).Str("trabajo_id", t.ID.String()).Msg("no se pudo encolar el aviso de trabajo completado")
	}
}

// ── EliminarTrabajo ──────────────────────────────────────────────────────────

// EliminarTrabajo removes the job with its materials and reports. Consumed
// stock is not returned to the ledger.
func (s *trabajoService) EliminarTrabajo(ctx context.Context, trabajoID uuid.UUID) error {
	if err := s.trabajos.EliminarConDependencias(ctx, trabajoID); err != nil {
		return traducirRepoErr(err, "trabajo")
	}
	metrics.TrabajosTransiciones.WithLabelValues("eliminado").Inc()
	log.Warn().Str("trabajo_id", trabajoID.String()).Msg("trabajo eliminado")
	s.pub.Publicar(ctx, realtime.Evento{Tabla: realtime.TablaTrabajos, Accion: realtime.AccionDelete, ID: trabajoID.String()})
	return nil
}

// ── Consultas ────────────────────────────────────────────────────────────────

func (s *trabajoService) ListarTrabajos(ctx context.Context, actor Actor, filter dto.TrabajoFilter) (*dto.TrabajoListResponse, error) {
	page, limit := normalizarPagina(filter.Page, filter.Limit, 20, 100)
	repoFilter := repository.TrabajoFilter{
		Estado: filter.Estado,
		Etapa:  filter.Etapa,
		Tipo:   filter.Tipo,
		Q:      filter.Q,
		Page:   page,
		Limit:  limit,
	}
	incluirMateriales := filter.IncluirMateriales
	switch {
	case actor.Rol == model.RolDoctor:
		// Doctors only ever see their own jobs, always with materials.
		repoFilter.CreadoPor = &actor.ID
		incluirMateriales = true
	case filter.Alcance == "propios":
		repoFilter.CreadoPor = &actor.ID
	case filter.Alcance == "", filter.Alcance == "todos":
	default:
		return nil, errValidacion("alcance %q no valido", filter.Alcance)
	}
	if repoFilter.Estado != "" && repoFilter.Estado != string(model.EstadoPendiente) && repoFilter.Estado != string(model.EstadoCompletado) {
		return nil, errValidacion("estado %q no valido", repoFilter.Estado)
	}
	if repoFilter.Etapa != "" && repoFilter.Etapa != string(model.EtapaDiseno) && repoFilter.Etapa != string(model.EtapaFresado) {
		return nil, errValidacion("etapa %q no valida", repoFilter.Etapa)
	}

	trabajos, total, err := s.trabajos.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(trabajos))
	for i, t := range trabajos {
		ids[i] = t.ID
	}
	porTrabajo := map[uuid.UUID][]model.TrabajoMaterial{}
	if incluirMateriales && len(ids) > 0 {
		materiales, err := s.trabajos.ListMateriales(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, m := range materiales {
			porTrabajo[m.TrabajoID] = append(porTrabajo[m.TrabajoID], m)
		}
	}

	n := s.nombres.Resolver(ctx, insumosDeMateriales(porTrabajo), usuariosDeTrabajos(trabajos))
	data := make([]dto.TrabajoResponse, len(trabajos))
	for i := range trabajos {
		var mats []model.TrabajoMaterial
		if incluirMateriales {
			mats = porTrabajo[trabajos[i].ID]
		}
		data[i] = trabajoToResponse(&trabajos[i], n, mats, incluirMateriales)
	}
	return &dto.TrabajoListResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPaginas(total, limit),
	}, nil
}

func (s *trabajoService) ObtenerTrabajo(ctx context.Context, trabajoID uuid.UUID) (*dto.TrabajoResponse, error) {
	trabajo, err := s.trabajos.FindByID(ctx, trabajoID)
	if err != nil {
		return nil, traducirRepoErr(err, "trabajo")
	}
	materiales, err := s.trabajos.ListMateriales(ctx, []uuid.UUID{trabajo.ID})
	if err != nil {
		return nil, err
	}
	return s.responder(ctx, trabajo, materiales), nil
}

func (s *trabajoService) OrdenPDF(ctx context.Context, trabajoID uuid.UUID) ([]byte, error) {
	resp, err := s.ObtenerTrabajo(ctx, trabajoID)
	if err != nil {
		return nil, err
	}
	return infra.GenerarOrdenPDF(s.ordenPDF(resp))
}

func (s *trabajoService) ordenPDF(t *dto.TrabajoResponse) infra.OrdenTrabajoPDF {
	creado, _ := time.Parse(time.RFC3339, t.CreatedAt)
	id, _ := uuid.Parse(t.ID)
	orden := infra.OrdenTrabajoPDF{
		Laboratorio:  s.laboratorio,
		Numero:       idCorto(id),
		Tratamiento:  t.Tratamiento,
		Paciente:     t.Paciente,
		Pieza:        valor(t.Pieza),
		Doctor:       valor(t.Doctor),
		Estado:       t.Estado,
		Etapa:        t.Etapa,
		FechaEntrega: valor(t.FechaEntrega),
		Notas:        valor(t.Notas),
		CreadoPor:    t.CreadoPorNombre,
		CreadoEn:     creado,
	}
	for _, m := range t.Materiales {
		orden.Materiales = append(orden.Materiales, infra.MaterialPDF{Insumo: m.InsumoNombre, Cantidad: m.Cantidad, Etapa: m.Etapa})
	}
	return orden
}

// ── Reportes ─────────────────────────────────────────────────────────────────

func (s *trabajoService) CrearReporte(ctx context.Context, trabajoID, actorID uuid.UUID, req dto.CrearReporteRequest) (*dto.ReporteResponse, error) {
	if !model.EsTipoReporteValido(req.Tipo) {
		return nil, errValidacion("tipo de reporte %q no valido", req.Tipo)
	}
	descripcion := strings.TrimSpace(req.Descripcion)
	if descripcion == "" {
		return nil, errValidacion("la descripcion es obligatoria")
	}
	if _, err := s.trabajos.FindByID(ctx, trabajoID); err != nil {
		return nil, traducirRepoErr(err, "trabajo")
	}

	rep := &model.ReporteTrabajo{
		TrabajoID:    trabajoID,
		Tipo:         req.Tipo,
		Descripcion:  descripcion,
		ReportadoPor: actorID,
	}
	if err := s.reportes.Create(ctx, rep); err != nil {
		return nil, err
	}
	log.Info().Str("trabajo_id", trabajoID.String()).Str("tipo", rep.Tipo).Msg("reporte registrado")
	s.pub.Publicar(ctx, realtime.Evento{Tabla: realtime.TablaReportes, Accion: realtime.AccionInsert, ID: rep.ID.String()})

	n := s.nombres.Resolver(ctx, nil, []uuid.UUID{actorID})
	resp := reporteToResponse(rep, n)
	return &resp, nil
}

func (s *trabajoService) ListarReportes(ctx context.Context, trabajoID uuid.UUID) ([]dto.ReporteResponse, error) {
	reportes, err := s.reportes.ListByTrabajo(ctx, trabajoID)
	if err != nil {
		return nil, err
	}
	autores := make([]uuid.UUID, len(reportes))
	for i, r := range reportes {
		autores[i] = r.ReportadoPor
	}
	n := s.nombres.Resolver(ctx, nil, autores)
	resp := make([]dto.ReporteResponse, len(reportes))
	for i := range reportes {
		resp[i] = reporteToResponse(&reportes[i], n)
	}
	return resp, nil
}

func (s *trabajoService) EliminarReporte(ctx context.Context, reporteID uuid.UUID) error {
	if err := s.reportes.Delete(ctx, reporteID); err != nil {
		return traducirRepoErr(err, "reporte")
	}
	s.pub.Publicar(ctx, realtime.Evento{Tabla: realtime.TablaReportes, Accion: realtime.AccionDelete, ID: reporteID.String()})
	return nil
}

// ── Materiales ───────────────────────────────────────────────────────────────

func prepararMateriales(reqs []dto.MaterialRequest) ([]materialSolicitado, error) {
	out := make([]materialSolicitado, 0, len(reqs))
	for _, r := range reqs {
		id, err := uuid.Parse(r.InsumoID)
		if err != nil {
			return nil, errValidacion("insumo_id %q invalido", r.InsumoID)
		}
		if r.Cantidad <= 0 {
			return nil, errValidacion("la cantidad de cada insumo debe ser mayor a cero")
		}
		out = append(out, materialSolicitado{insumoID: id, cantidad: r.Cantidad})
	}
	return out, nil
}

// verificarStock checks current quantities, summing repeated items, before
// anything is written.
func (s *trabajoService) verificarStock(ctx context.Context, materiales []materialSolicitado) error {
	if len(materiales) == 0 {
		return nil
	}
	requerido := make(map[uuid.UUID]int, len(materiales))
	orden := make([]uuid.UUID, 0, len(materiales))
	for _, m := range materiales {
		if _, ok := requerido[m.insumoID]; !ok {
			orden = append(orden, m.insumoID)
		}
		requerido[m.insumoID] += m.cantidad
	}

	insumos, err := s.insumos.FindByIDs(ctx, orden)
	if err != nil {
		return err
	}
	porID := make(map[uuid.UUID]model.Insumo, len(insumos))
	for _, i := range insumos {
		porID[i.ID] = i
	}
	for _, id := range orden {
		insumo, ok := porID[id]
		if !ok || !insumo.Activo {
			return errNoEncontrado("insumo " + id.String())
		}
		if insumo.Cantidad < requerido[id] {
			return &StockInsuficienteError{
				Insumo:     insumo.Nombre,
				Disponible: insumo.Cantidad,
				Solicitado: requerido[id],
			}
		}
	}
	return nil
}

func (s *trabajoService) insertarMateriales(ctx context.Context, trabajoID uuid.UUID, materiales []materialSolicitado, etapa model.EtapaTrabajo) ([]model.TrabajoMaterial, error) {
	filas := make([]model.TrabajoMaterial, len(materiales))
	for i, m := range materiales {
		filas[i] = model.TrabajoMaterial{
			ID:        uuid.New(),
			TrabajoID: trabajoID,
			InsumoID:  m.insumoID,
			Cantidad:  m.cantidad,
			Etapa:     etapa,
		}
	}
	if err := s.trabajos.CreateMateriales(ctx, filas); err != nil {
		return nil, err
	}
	return filas, nil
}

// consumirMateriales records the negative movement paired with each material
// row and returns the rows that ended up paired. A row whose movement fails
// is removed so material and ledger never disagree.
func (s *trabajoService) consumirMateriales(ctx context.Context, t *model.Trabajo, filas []model.TrabajoMaterial, actorID uuid.UUID, tipo, prefijo string) []model.TrabajoMaterial {
	motivo := fmt.Sprintf("%s %s - %s (#%s)", prefijo, t.NombreTratamientoVisible(), t.Paciente, idCorto(t.ID))
	trabajoID := t.ID
	pareadas := filas[:0:0]
	for _, f := range filas {
		_, err := s.inventario.Registrar(ctx, NuevoMovimiento{
			InsumoID:  f.InsumoID,
			Cantidad:  -f.Cantidad,
			Tipo:      tipo,
			Motivo:    motivo,
			TrabajoID: &trabajoID,
			CreadoPor: actorID,
		})
		if err != nil {
			log.Error().Err(err).
				Str("trabajo_id", t.ID.String()).
				Str("insumo_id", f.InsumoID.String()).
				Int("cantidad", f.Cantidad).
				Msg("no se pudo descontar el insumo del trabajo")
			if delErr := s.trabajos.DeleteMaterial(ctx, f.ID); delErr != nil {
				log.Error().Err(delErr).Str("material_id", f.ID.String()).Msg("material sin movimiento no pudo eliminarse")
				pareadas = append(pareadas, f)
			}
			continue
		}
		pareadas = append(pareadas, f)
	}
	return pareadas
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (s *trabajoService) responder(ctx context.Context, t *model.Trabajo, materiales []model.TrabajoMaterial) *dto.TrabajoResponse {
	insumoIDs := make([]uuid.UUID, len(materiales))
	for i, m := range materiales {
		insumoIDs[i] = m.InsumoID
	}
	n := s.nombres.Resolver(ctx, insumoIDs, usuariosDeTrabajos([]model.Trabajo{*t}))
	resp := trabajoToResponse(t, n, materiales, true)
	return &resp
}

func usuariosDeTrabajos(trabajos []model.Trabajo) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(trabajos)*2)
	for _, t := range trabajos {
		ids = append(ids, t.CreadoPor)
		if t.CompletadoPor != nil {
			ids = append(ids, *t.CompletadoPor)
		}
	}
	return ids
}

func insumosDeMateriales(porTrabajo map[uuid.UUID][]model.TrabajoMaterial) []uuid.UUID {
	var ids []uuid.UUID
	for _, mats := range porTrabajo {
		for _, m := range mats {
			ids = append(ids, m.InsumoID)
		}
	}
	return ids
}

func trabajoToResponse(t *model.Trabajo, n Nombres, materiales []model.TrabajoMaterial, conMateriales bool) dto.TrabajoResponse {
	resp := dto.TrabajoResponse{
		ID:                t.ID.String(),
		TipoTratamiento:   t.TipoTratamiento,
		Tratamiento:       t.NombreTratamientoVisible(),
		NombreTratamiento: t.NombreTratamiento,
		Paciente:          t.Paciente,
		Pieza:             t.Pieza,
		Doctor:            t.Doctor,
		Estado:            string(t.Estado),
		Etapa:             string(t.Etapa),
		RequiereFresado:   model.RequiereFresado(t.TipoTratamiento),
		Notas:             t.Notas,
		CreadoPor:         t.CreadoPor.String(),
		CreadoPorNombre:   n.Usuario(t.CreadoPor),
		CreatedAt:         t.CreatedAt.Format(time.RFC3339),
	}
	if t.FechaEntrega != nil {
		f := t.FechaEntrega.Format(formatoFecha)
		resp.FechaEntrega = &f
	}
	if t.CompletadoPor != nil {
		id := t.CompletadoPor.String()
		nombre := n.Usuario(*t.CompletadoPor)
		resp.CompletadoPor = &id
		resp.CompletadoPorNombre = &nombre
	}
	if t.CompletadoAt != nil {
		at := t.CompletadoAt.Format(time.RFC3339)
		resp.CompletadoAt = &at
	}
	if conMateriales {
		resp.Materiales = make([]dto.MaterialResponse, len(materiales))
		for i, m := range materiales {
			resp.Materiales[i] = dto.MaterialResponse{
				ID:           m.ID.String(),
				InsumoID:     m.InsumoID.String(),
				InsumoNombre: n.Insumo(m.InsumoID),
				Cantidad:     m.Cantidad,
				Etapa:        string(m.Etapa),
			}
		}
	}
	return resp
}

func reporteToResponse(r *model.ReporteTrabajo, n Nombres) dto.ReporteResponse {
	return dto.ReporteResponse{
		ID:                 r.ID.String(),
		TrabajoID:          r.TrabajoID.String(),
		Tipo:               r.Tipo,
		Descripcion:        r.Descripcion,
		ReportadoPor:       r.ReportadoPor.String(),
		ReportadoPorNombre: n.Usuario(r.ReportadoPor),
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
	}
}

// idCorto is the 8-character prefix used in movement reasons and order numbers.
func idCorto(id uuid.UUID) string { return id.String()[:8] }

func recortar(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func valor(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
