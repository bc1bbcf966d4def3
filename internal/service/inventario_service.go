package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"argotelabs/internal/dto"
	"argotelabs/internal/metrics"
	"argotelabs/internal/model"
	"argotelabs/internal/realtime"
	"argotelabs/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// NuevoMovimiento is a ledger write request. Cantidad is the signed delta.
type NuevoMovimiento struct {
	InsumoID  uuid.UUID
	Cantidad  int
	Tipo      string
	Motivo    string
	TrabajoID *uuid.UUID
	CreadoPor uuid.UUID
}

// InventarioService owns the stock ledger and the items it projects onto.
type InventarioService interface {
	// Ledger
	RegistrarMovimiento(ctx context.Context, insumoID uuid.UUID, delta int, motivo string, actorID uuid.UUID) (*dto.MovimientoResponse, error)
	Registrar(ctx context.Context, m NuevoMovimiento) (*model.MovimientoStock, error)
	PodarHistorial(ctx context.Context, max int) (int64, error)
	EliminarMovimiento(ctx context.Context, id uuid.UUID) error
	ListarMovimientos(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error)
	ExportarMovimientos(ctx context.Context, filter dto.MovimientoFilter) ([]byte, error)

	// Items
	CrearInsumo(ctx context.Context, actorID uuid.UUID, req dto.CrearInsumoRequest) (*dto.InsumoResponse, error)
	ActualizarInsumo(ctx context.Context, id uuid.UUID, req dto.ActualizarInsumoRequest) (*dto.InsumoResponse, error)
	EliminarInsumo(ctx context.Context, id uuid.UUID) error
	DesactivarInsumo(ctx context.Context, id uuid.UUID) error
	ReactivarInsumo(ctx context.Context, id uuid.UUID) error
	ObtenerInsumo(ctx context.Context, id uuid.UUID) (*dto.InsumoResponse, error)
	ListarInsumos(ctx context.Context, filter dto.InsumoFilter) (*dto.InsumoListResponse, error)
	ObtenerAlertas(ctx context.Context) ([]dto.InsumoResponse, error)
}

type inventarioService struct {
	insumos     repository.InsumoRepository
	movimientos repository.MovimientoStockRepository
	nombres     *ResolverNombres
	pub         realtime.Publicador
	maxEntradas int
}

func NewInventarioService(
	insumos repository.InsumoRepository,
	movimientos repository.MovimientoStockRepository,
	nombres *ResolverNombres,
	pub realtime.Publicador,
	maxEntradas int,
) InventarioService {
	return &inventarioService{
		insumos:     insumos,
		movimientos: movimientos,
		nombres:     nombres,
		pub:         pub,
		maxEntradas: maxEntradas,
	}
}

// ── Ledger ───────────────────────────────────────────────────────────────────

func (s *inventarioService) RegistrarMovimiento(ctx context.Context, insumoID uuid.UUID, delta int, motivo string, actorID uuid.UUID) (*dto.MovimientoResponse, error) {
	mov, err := s.Registrar(ctx, NuevoMovimiento{
		InsumoID:  insumoID,
		Cantidad:  delta,
		Tipo:      model.MovimientoAjuste,
		Motivo:    strings.TrimSpace(motivo),
		CreadoPor: actorID,
	})
	if err != nil {
		return nil, err
	}
	n := s.nombres.Resolver(ctx, []uuid.UUID{mov.InsumoID}, []uuid.UUID{mov.CreadoPor})
	resp := movimientoToResponse(mov, n)
	return &resp, nil
}

// Registrar applies one delta and records it. The quantity update is a single
// conditional statement, so concurrent removals can never overdraw an item.
// Pruning runs after commit and its failure is only logged.
func (s *inventarioService) Registrar(ctx context.Context, m NuevoMovimiento) (*model.MovimientoStock, error) {
	if m.Cantidad == 0 {
		return nil, errValidacion("la cantidad del movimiento no puede ser cero")
	}
	if m.Tipo == "" {
		m.Tipo = model.MovimientoAjuste
	}

	var mov model.MovimientoStock
	err := runTx(ctx, s.insumos.DB(), func(tx *gorm.DB) error {
		nueva, ok, err := s.insumos.AjustarCantidadTx(tx, m.InsumoID, m.Cantidad)
		if err != nil {
			return err
		}
		if !ok {
			return s.clasificarRechazo(ctx, m.InsumoID, m.Cantidad)
		}
		mov = model.MovimientoStock{
			InsumoID:         m.InsumoID,
			Tipo:             m.Tipo,
			Cantidad:         m.Cantidad,
			CantidadAnterior: nueva - m.Cantidad,
			CantidadNueva:    nueva,
			Motivo:           m.Motivo,
			TrabajoID:        m.TrabajoID,
			CreadoPor:        m.CreadoPor,
		}
		return s.movimientos.CreateTx(tx, &mov)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrStockInsuficiente):
			metrics.MovimientosRechazados.WithLabelValues("stock").Inc()
		case errors.Is(err, ErrNoEncontrado):
			metrics.MovimientosRechazados.WithLabelValues("no_encontrado").Inc()
		}
		return nil, err
	}

	metrics.MovimientosRegistrados.WithLabelValues(mov.Tipo).Inc()
	log.Info().
		Str("insumo_id", mov.InsumoID.String()).
		Int("delta", mov.Cantidad).
		Int("cantidad", mov.CantidadNueva).
		Str("tipo", mov.Tipo).
		Msg("movimiento de stock registrado")

	s.pub.Publicar(ctx, realtime.Evento{Tabla: realtime.TablaInsumos, Accion: realtime.AccionUpdate, ID: mov.InsumoID.String()})
	s.pub.Publicar(ctx, realtime.Evento{Tabla: realtime.TablaMovimientos, Accion: realtime.AccionInsert, ID: mov.ID.String()})

	if _, err := s.PodarHistorial(ctx, s.maxEntradas); err != nil {
		log.Warn().Err(err).Msg("poda del historial fallida")
	}
	return &mov, nil
}

// clasificarRechazo re-reads the item after the conditional update matched
// nothing, to tell a missing/inactive item from an overdraft.
func (s *inventarioService) clasificarRechazo(ctx context.Context, id uuid.UUID, delta int) error {
	insumo, err := s.insumos.FindByID(ctx, id)
	if err != nil {
		return traducirRepoErr(err, "insumo")
	}
	if !insumo.Activo {
		return errNoEncontrado("insumo")
	}
	return &StockInsuficienteError{
		Insumo:     insumo.Nombre,
		Disponible: insumo.Cantidad,
		Solicitado: -delta,
	}
}

func (s *inventarioService) PodarHistorial(ctx context.Context, max int) (int64, error) {
	if max <= 0 {
		return 0, nil
	}
	n, err := s.movimientos.PodarExcedente(ctx, max)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.MovimientosPodados.Add(float64(n))
		log.Info().Int64("eliminados", n).Int("max", max).Msg("historial de movimientos podado")
		s.pub.Publicar(ctx, realtime.Evento{Tabla: realtime.TablaMovimientos, Accion: realtime.AccionDelete})
	}
	return n, nil
}

// EliminarMovimiento drops a ledger row without touching the item quantity.
func (s *inventarioService) EliminarMovimiento(ctx context.Context, id uuid.UUID) error {
	if err := s.movimientos.Delete(ctx, id); err != nil {
		return traducirRepoErr(err, "movimiento")
	}
	log.Warn().Str("movimiento_id", id.String()).Msg("movimiento eliminado manualmente")
	s.pub.Publicar(ctx, realtime.Evento{Tabla: realtime.TablaMovimientos, Accion: realtime.AccionDelete, ID: id.String()})
	return nil
}

func (s *inventarioService) ListarMovimientos(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error) {
	repoFilter, err := toRepoMovimientoFilter(filter)
	if err != nil {
		return nil, err
	}
	movs, total, err := s.movimientos.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	n := s.nombres.Resolver(ctx, insumoIDsDe(movs), creadoresDe(movs))
	data := make([]dto.MovimientoResponse, len(movs))
	for i := range movs {
		data[i] = movimientoToResponse(&movs[i], n)
	}
	return &dto.MovimientoListResponse{
		Data:       data,
		Total:      total,
		Page:       repoFilter.Page,
		Limit:      repoFilter.Limit,
		TotalPages: totalPaginas(total, repoFilter.Limit),
	}, nil
}

func toRepoMovimientoFilter(filter dto.MovimientoFilter) (repository.MovimientoStockFilter, error) {
	page, limit := normalizarPagina(filter.Page, filter.Limit, 50, 500)
	f := repository.MovimientoStockFilter{Q: filter.Q, Page: page, Limit: limit}
	if filter.InsumoID != "" {
		id, err := uuid.Parse(filter.InsumoID)
		if err != nil {
			return f, errValidacion("insumo_id invalido")
		}
		f.InsumoID = &id
	}
	return f, nil
}

// ── Items ────────────────────────────────────────────────────────────────────

// CrearInsumo inserts the item and, for a non-zero starting quantity, the
// matching stock_inicial movement in the same transaction.
func (s *inventarioService) CrearInsumo(ctx context.Context, actorID uuid.UUID, req dto.CrearInsumoRequest) (*dto.InsumoResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, errValidacion("el nombre es obligatorio")
	}
	if !model.EsCategoriaValida(req.Categoria) {
		return nil, errValidacion("categoria %q no valida", req.Categoria)
	}
	if err := validarEtiquetas(req.Etiquetas); err != nil {
		return nil, err
	}
	if req.CantidadInicial < 0 || req.StockMinimo < 0 {
		return nil, errValidacion("las cantidades no pueden ser negativas")
	}
	if err := s.verificarNombreLibre(ctx, nombre, uuid.Nil); err != nil {
		return nil, err
	}

	unidad := strings.TrimSpace(req.Unidad)
	if unidad == "" {
		unidad = model.UnidadPorDefecto
	}
	insumo := &model.Insumo{
		Nombre:      nombre,
		Categoria:   req.Categoria,
		Unidad:      unidad,
		Cantidad:    req.CantidadInicial,
		StockMinimo: req.StockMinimo,
		Etiquetas:   pq.StringArray(normalizarEtiquetas(req.Etiquetas)),
		Activo:      true,
	}

	err := runTx(ctx, s.insumos.DB(), func(tx *gorm.DB) error {
		if err := s.insumos.CreateTx(tx, insumo); err != nil {
			return err
		}
		if insumo.Cantidad == 0 {
			return nil
		}
		return s.movimientos.CreateTx(tx, &model.MovimientoStock{
			InsumoID:         insumo.ID,
			Tipo:             model.MovimientoStockInicial,
			Cantidad:         insumo.Cantidad,
			CantidadAnterior: 0,
			CantidadNueva:    insumo.Cantidad,
			Motivo:           "Stock inicial",
			CreadoPor:        actorID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.pub.Publicar(ctx, realtime.Evento{Tabla: realtime.TablaInsumos, Accion: realtime.AccionInsert, ID: insumo.ID.String()})
	if insumo.Cantidad != 0 {
		metrics.MovimientosRegistrados.WithLabelValues(model.MovimientoStockInicial).Inc()
		if _, err := s.PodarHistorial(ctx, s.maxEntradas); err != nil {
			log.Warn().Err(err).Msg("poda del historial fallida")
		}
	}
	resp := insumoToResponse(insumo)
	return &resp, nil
}

func (s *inventarioService) ActualizarInsumo(ctx context.Context, id uuid.UUID, req dto.ActualizarInsumoRequest) (*dto.InsumoResponse, error) {
	insumo, err := s.insumos.FindByID(ctx, id)
	if err != nil {
		return nil, traducirRepoErr(err, "insumo")
	}

	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		if nombre == "" {
			return nil, errValidacion("el nombre es obligatorio")
		}
		if !strings.EqualFold(nombre, insumo.Nombre) {
			if err := s.verificarNombreLibre(ctx, nombre, insumo.ID); err != nil {
				return nil, err
			}
		}
		insumo.Nombre = nombre
	}
	if req.Categoria != nil {
		if !model.EsCategoriaValida(*req.Categoria) {
			return nil, errValidacion("categoria %q no valida", *req.Categoria)
		}
		insumo.Categoria = *req.Categoria
	}
	if req.Unidad != nil {
		insumo.Unidad = strings.TrimSpace(*req.Unidad)
		if insumo.Unidad == "" {
			insumo.Unidad = model.UnidadPorDefecto
		}
	}
	if req.StockMinimo != nil {
		if *req.StockMinimo < 0 {
			return nil, errValidacion("stock_minimo no puede ser negativo")
		}
		insumo.StockMinimo = *req.StockMinimo
	}
	if req.Etiquetas != nil {
		if err := validarEtiquetas(*req.Etiquetas); err != nil {
			return nil, err
		}
		insumo.Etiquetas = pq.StringArray(normalizarEtiquetas(*req.Etiquetas))
	}

	if err := s.insumos.Update(ctx, insumo); err != nil {
		return nil, traducirRepoErr(err, "insumo")
	}
	s.pub.Publicar(ctx, realtime.Evento{Tabla: realtime.TablaInsumos, Accion: realtime.AccionUpdate, ID: insumo.ID.String()})
	resp := insumoToResponse(insumo)
	return &resp, nil
}

// EliminarInsumo hard-deletes the item together with its ledger history.
func (s *inventarioService) EliminarInsumo(ctx context.Context, id uuid.UUID) error {
	if err := s.insumos.Delete(ctx, id); err != nil {
		return traducirRepoErr(err, "insumo")
	}
	log.Warn().Str("insumo_id", id.String()).Msg("insumo eliminado con su historial")
	s.pub.Publicar(ctx, realtime.Evento{Tabla: realtime.TablaInsumos, Accion: realtime.AccionDelete, ID: id.String()})
	return nil
}

func (s *inventarioService) DesactivarInsumo(ctx context.Context, id uuid.UUID) error {
	return s.setActivo(ctx, id, false)
}

func (s *inventarioService) ReactivarInsumo(ctx context.Context, id uuid.UUID) error {
	return s.setActivo(ctx, id, true)
}

func (s *inventarioService) setActivo(ctx context.Context, id uuid.UUID, activo bool) error {
	if err := s.insumos.SetActivo(ctx, id, activo); err != nil {
		return traducirRepoErr(err, "insumo")
	}
	s.pub.Publicar(ctx, realtime.Evento{Tabla: realtime.TablaInsumos, Accion: realtime.AccionUpdate, ID: id.String()})
	return nil
}

func (s *inventarioService) ObtenerInsumo(ctx context.Context, id uuid.UUID) (*dto.InsumoResponse, error) {
	insumo, err := s.insumos.FindByID(ctx, id)
	if err != nil {
		return nil, traducirRepoErr(err, "insumo")
	}
	resp := insumoToResponse(insumo)
	return &resp, nil
}

func (s *inventarioService) ListarInsumos(ctx context.Context, filter dto.InsumoFilter) (*dto.InsumoListResponse, error) {
	filter.Page, filter.Limit = normalizarPagina(filter.Page, filter.Limit, 50, 200)
	insumos, total, err := s.insumos.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.InsumoResponse, len(insumos))
	for i := range insumos {
		data[i] = insumoToResponse(&insumos[i])
	}
	return &dto.InsumoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPaginas(total, filter.Limit),
	}, nil
}

func (s *inventarioService) ObtenerAlertas(ctx context.Context) ([]dto.InsumoResponse, error) {
	insumos, err := s.insumos.ListAlertas(ctx)
	if err != nil {
		return nil, err
	}
	data := make([]dto.InsumoResponse, len(insumos))
	for i := range insumos {
		data[i] = insumoToResponse(&insumos[i])
	}
	return data, nil
}

func (s *inventarioService) verificarNombreLibre(ctx context.Context, nombre string, propio uuid.UUID) error {
	existente, err := s.insumos.FindByNombre(ctx, nombre)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if existente.ID != propio {
		return errValidacion("ya existe un insumo llamado %q", existente.Nombre)
	}
	return nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func validarEtiquetas(etiquetas []string) error {
	for _, e := range etiquetas {
		if !model.EsEtiquetaValida(e) {
			return errValidacion("etiqueta %q no valida", e)
		}
	}
	return nil
}

func normalizarEtiquetas(etiquetas []string) []string {
	out := make([]string, 0, len(etiquetas))
	vistas := make(map[string]bool, len(etiquetas))
	for _, e := range etiquetas {
		if !vistas[e] {
			vistas[e] = true
			out = append(out, e)
		}
	}
	return out
}

func normalizarPagina(page, limit, porDefecto, maximo int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = porDefecto
	}
	if limit > maximo {
		limit = maximo
	}
	return page, limit
}

func totalPaginas(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

func insumoIDsDe(movs []model.MovimientoStock) []uuid.UUID {
	ids := make([]uuid.UUID, len(movs))
	for i, m := range movs {
		ids[i] = m.InsumoID
	}
	return ids
}

func creadoresDe(movs []model.MovimientoStock) []uuid.UUID {
	ids := make([]uuid.UUID, len(movs))
	for i, m := range movs {
		ids[i] = m.CreadoPor
	}
	return ids
}

func insumoToResponse(i *model.Insumo) dto.InsumoResponse {
	etiquetas := []string(i.Etiquetas)
	if etiquetas == nil {
		etiquetas = []string{}
	}
	return dto.InsumoResponse{
		ID:          i.ID.String(),
		Nombre:      i.Nombre,
		Categoria:   i.Categoria,
		Unidad:      i.Unidad,
		Cantidad:    i.Cantidad,
		StockMinimo: i.StockMinimo,
		Etiquetas:   etiquetas,
		Activo:      i.Activo,
		CreatedAt:   i.CreatedAt.Format(time.RFC3339),
	}
}

func movimientoToResponse(m *model.MovimientoStock, n Nombres) dto.MovimientoResponse {
	resp := dto.MovimientoResponse{
		ID:               m.ID.String(),
		InsumoID:         m.InsumoID.String(),
		InsumoNombre:     n.Insumo(m.InsumoID),
		Tipo:             m.Tipo,
		Cantidad:         m.Cantidad,
		CantidadAnterior: m.CantidadAnterior,
		CantidadNueva:    m.CantidadNueva,
		Motivo:           m.Motivo,
		CreadoPor:        m.CreadoPor.String(),
		CreadoPorNombre:  n.Usuario(m.CreadoPor),
		CreatedAt:        m.CreatedAt.Format(time.RFC3339),
	}
	if m.TrabajoID != nil {
		s := m.TrabajoID.String()
		resp.TrabajoID = &s
	}
	return resp
}
