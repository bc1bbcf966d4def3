package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"argotelabs/internal/dto"
	"argotelabs/internal/model"
	"argotelabs/internal/realtime"
	"argotelabs/internal/repository"
	"argotelabs/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// reloj hands out strictly increasing timestamps so ledger ordering is deterministic.
type reloj struct {
	mu sync.Mutex
	t  time.Time
}

func nuevoReloj() *reloj { return &reloj{t: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)} }

func (r *reloj) tick() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.t = r.t.Add(time.Millisecond)
	return r.t
}

// ── In-memory InsumoRepository stub ──────────────────────────────────────────

type stubInsumoRepo struct {
	insumos     map[uuid.UUID]*model.Insumo
	reloj       *reloj
	falloAjuste map[uuid.UUID]error
	errNombres  error
}

func newStubInsumoRepo(r *reloj) *stubInsumoRepo {
	return &stubInsumoRepo{insumos: map[uuid.UUID]*model.Insumo{}, reloj: r, falloAjuste: map[uuid.UUID]error{}}
}

func (r *stubInsumoRepo) agregar(nombre string, cantidad int) *model.Insumo {
	i := &model.Insumo{
		ID: uuid.New(), Nombre: nombre, Categoria: model.CategoriaBloc,
		Unidad: model.UnidadPorDefecto, Cantidad: cantidad, Activo: true, CreatedAt: r.reloj.tick(),
	}
	r.insumos[i.ID] = i
	return i
}

func (r *stubInsumoRepo) Create(ctx context.Context, i *model.Insumo) error {
	return r.CreateTx(nil, i)
}

func (r *stubInsumoRepo) CreateTx(_ *gorm.DB, i *model.Insumo) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	i.CreatedAt = r.reloj.tick()
	cp := *i
	r.insumos[i.ID] = &cp
	return nil
}

func (r *stubInsumoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Insumo, error) {
	i, ok := r.insumos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *i
	return &cp, nil
}

func (r *stubInsumoRepo) FindByNombre(_ context.Context, nombre string) (*model.Insumo, error) {
	for _, i := range r.insumos {
		if strings.EqualFold(i.Nombre, nombre) {
			cp := *i
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubInsumoRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Insumo, error) {
	var out []model.Insumo
	for _, id := range ids {
		if i, ok := r.insumos[id]; ok {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (r *stubInsumoRepo) List(_ context.Context, filter dto.InsumoFilter) ([]model.Insumo, int64, error) {
	var out []model.Insumo
	for _, i := range r.insumos {
		if i.Activo {
			out = append(out, *i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Nombre < out[b].Nombre })
	return out, int64(len(out)), nil
}

func (r *stubInsumoRepo) ListAlertas(_ context.Context) ([]model.Insumo, error) {
	var out []model.Insumo
	for _, i := range r.insumos {
		if i.Activo && i.StockMinimo > 0 && i.Cantidad <= i.StockMinimo {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (r *stubInsumoRepo) Update(_ context.Context, i *model.Insumo) error {
	actual, ok := r.insumos[i.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	actual.Nombre = i.Nombre
	actual.Categoria = i.Categoria
	actual.Unidad = i.Unidad
	actual.StockMinimo = i.StockMinimo
	actual.Etiquetas = i.Etiquetas
	return nil
}

func (r *stubInsumoRepo) SetActivo(_ context.Context, id uuid.UUID, activo bool) error {
	i, ok := r.insumos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	i.Activo = activo
	return nil
}

func (r *stubInsumoRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.insumos[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.insumos, id)
	return nil
}

func (r *stubInsumoRepo) AjustarCantidadTx(_ *gorm.DB, id uuid.UUID, delta int) (int, bool, error) {
	if err := r.falloAjuste[id]; err != nil {
		return 0, false, err
	}
	i, ok := r.insumos[id]
	if !ok || !i.Activo || i.Cantidad+delta < 0 {
		return 0, false, nil
	}
	i.Cantidad += delta
	return i.Cantidad, true, nil
}

func (r *stubInsumoRepo) NombresPorIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if r.errNombres != nil {
		return nil, r.errNombres
	}
	out := map[uuid.UUID]string{}
	for _, id := range ids {
		if i, ok := r.insumos[id]; ok {
			out[id] = i.Nombre
		}
	}
	return out, nil
}

func (r *stubInsumoRepo) DB() *gorm.DB { return nil }

// ── In-memory MovimientoStockRepository stub ─────────────────────────────────

type stubMovimientoRepo struct {
	movs  []model.MovimientoStock
	reloj *reloj
	// nombres lets List emulate the join on item/actor names for q.
	insumos  *stubInsumoRepo
	usuarios *stubUsuarioRepo
}

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = r.reloj.tick()
	r.movs = append(r.movs, *m)
	return nil
}

func (r *stubMovimientoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.MovimientoStock, error) {
	for i := range r.movs {
		if r.movs[i].ID == id {
			cp := r.movs[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubMovimientoRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i := range r.movs {
		if r.movs[i].ID == id {
			r.movs = append(r.movs[:i], r.movs[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubMovimientoRepo) ordenados() []model.MovimientoStock {
	out := append([]model.MovimientoStock(nil), r.movs...)
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID.String() > out[b].ID.String()
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

func (r *stubMovimientoRepo) List(_ context.Context, f repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	var match []model.MovimientoStock
	q := strings.ToLower(strings.TrimSpace(f.Q))
	for _, m := range r.ordenados() {
		if f.InsumoID != nil && m.InsumoID != *f.InsumoID {
			continue
		}
		if q != "" && !r.coincide(m, q) {
			continue
		}
		match = append(match, m)
	}
	total := int64(len(match))
	inicio := (f.Page - 1) * f.Limit
	if inicio >= len(match) {
		return []model.MovimientoStock{}, total, nil
	}
	fin := inicio + f.Limit
	if fin > len(match) {
		fin = len(match)
	}
	return match[inicio:fin], total, nil
}

func (r *stubMovimientoRepo) coincide(m model.MovimientoStock, q string) bool {
	if strconv.Itoa(m.Cantidad) == q || strings.Contains(strings.ToLower(m.Motivo), q) {
		return true
	}
	if i, ok := r.insumos.insumos[m.InsumoID]; ok && strings.Contains(strings.ToLower(i.Nombre), q) {
		return true
	}
	if u, ok := r.usuarios.usuarios[m.CreadoPor]; ok && strings.Contains(strings.ToLower(u.Nombre), q) {
		return true
	}
	return false
}

func (r *stubMovimientoRepo) PodarExcedente(_ context.Context, max int) (int64, error) {
	if len(r.movs) <= max {
		return 0, nil
	}
	ord := r.ordenados()
	eliminados := int64(len(ord) - max)
	r.movs = ord[:max]
	return eliminados, nil
}

func (r *stubMovimientoRepo) deInsumo(id uuid.UUID) []model.MovimientoStock {
	var out []model.MovimientoStock
	for _, m := range r.movs {
		if m.InsumoID == id {
			out = append(out, m)
		}
	}
	return out
}

// ── In-memory UsuarioRepository stub ─────────────────────────────────────────

type stubUsuarioRepo struct {
	usuarios   map[uuid.UUID]*model.Usuario
	errNombres error
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{usuarios: map[uuid.UUID]*model.Usuario{}}
}

func (r *stubUsuarioRepo) agregar(nombre, email, rol string) *model.Usuario {
	u := &model.Usuario{ID: uuid.New(), Nombre: nombre, Email: email, Rol: rol, Activo: true}
	r.usuarios[u.ID] = u
	return u
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.usuarios[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) FindByEmail(_ context.Context, email string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if strings.EqualFold(u.Email, email) && u.Activo {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	cp := *u
	r.usuarios[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.usuarios[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Activo = false
	return nil
}

func (r *stubUsuarioRepo) NombresPorIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if r.errNombres != nil {
		return nil, r.errNombres
	}
	out := map[uuid.UUID]string{}
	for _, id := range ids {
		if u, ok := r.usuarios[id]; ok {
			out[id] = u.Nombre
		}
	}
	return out, nil
}

// ── In-memory TrabajoRepository stub ─────────────────────────────────────────

type stubTrabajoRepo struct {
	trabajos   map[uuid.UUID]*model.Trabajo
	materiales []model.TrabajoMaterial
	reportes   *stubReporteRepo
	reloj      *reloj

	errCreateMateriales error
	errUpdateEtapa      error
}

func (r *stubTrabajoRepo) Create(_ context.Context, t *model.Trabajo) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = r.reloj.tick()
	cp := *t
	r.trabajos[t.ID] = &cp
	return nil
}

func (r *stubTrabajoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Trabajo, error) {
	t, ok := r.trabajos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *stubTrabajoRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.trabajos, id)
	return nil
}

func (r *stubTrabajoRepo) List(_ context.Context, f repository.TrabajoFilter) ([]model.Trabajo, int64, error) {
	var out []model.Trabajo
	for _, t := range r.trabajos {
		if f.CreadoPor != nil && t.CreadoPor != *f.CreadoPor {
			continue
		}
		if f.Estado != "" && string(t.Estado) != f.Estado {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *stubTrabajoRepo) CreateMateriales(_ context.Context, mats []model.TrabajoMaterial) error {
	if r.errCreateMateriales != nil {
		return r.errCreateMateriales
	}
	for _, m := range mats {
		m.CreatedAt = r.reloj.tick()
		r.materiales = append(r.materiales, m)
	}
	return nil
}

func (r *stubTrabajoRepo) DeleteMaterial(_ context.Context, id uuid.UUID) error {
	for i := range r.materiales {
		if r.materiales[i].ID == id {
			r.materiales = append(r.materiales[:i], r.materiales[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *stubTrabajoRepo) ListMateriales(_ context.Context, ids []uuid.UUID) ([]model.TrabajoMaterial, error) {
	set := map[uuid.UUID]bool{}
	for _, id := range ids {
		set[id] = true
	}
	var out []model.TrabajoMaterial
	for _, m := range r.materiales {
		if set[m.TrabajoID] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubTrabajoRepo) UpdateEtapa(_ context.Context, id uuid.UUID, desde, hacia model.Fase) error {
	if r.errUpdateEtapa != nil {
		return r.errUpdateEtapa
	}
	t, ok := r.trabajos[id]
	if !ok || t.Fase() != desde {
		return gorm.ErrRecordNotFound
	}
	t.Estado, t.Etapa = hacia.Estado, hacia.Etapa
	return nil
}

func (r *stubTrabajoRepo) Completar(_ context.Context, id uuid.UUID, etapa model.EtapaTrabajo, por uuid.UUID, at time.Time) (bool, error) {
	t, ok := r.trabajos[id]
	if !ok || t.Estado != model.EstadoPendiente {
		return false, nil
	}
	t.Estado = model.EstadoCompletado
	t.Etapa = etapa
	t.CompletadoPor = &por
	t.CompletadoAt = &at
	return true, nil
}

func (r *stubTrabajoRepo) EliminarConDependencias(_ context.Context, id uuid.UUID) error {
	if _, ok := r.trabajos[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	var restantes []model.TrabajoMaterial
	for _, m := range r.materiales {
		if m.TrabajoID != id {
			restantes = append(restantes, m)
		}
	}
	r.materiales = restantes
	if r.reportes != nil {
		for rid, rep := range r.reportes.reportes {
			if rep.TrabajoID == id {
				delete(r.reportes.reportes, rid)
			}
		}
	}
	delete(r.trabajos, id)
	return nil
}

func (r *stubTrabajoRepo) materialesDe(id uuid.UUID) []model.TrabajoMaterial {
	mats, _ := r.ListMateriales(context.Background(), []uuid.UUID{id})
	return mats
}

// ── In-memory ReporteRepository stub ─────────────────────────────────────────

type stubReporteRepo struct {
	reportes map[uuid.UUID]*model.ReporteTrabajo
	reloj    *reloj
}

func (r *stubReporteRepo) Create(_ context.Context, rep *model.ReporteTrabajo) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	rep.CreatedAt = r.reloj.tick()
	cp := *rep
	r.reportes[rep.ID] = &cp
	return nil
}

func (r *stubReporteRepo) ListByTrabajo(_ context.Context, trabajoID uuid.UUID) ([]model.ReporteTrabajo, error) {
	var out []model.ReporteTrabajo
	for _, rep := range r.reportes {
		if rep.TrabajoID == trabajoID {
			out = append(out, *rep)
		}
	}
	return out, nil
}

func (r *stubReporteRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.reportes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.reportes, id)
	return nil
}

// ── Side-effect recorders ────────────────────────────────────────────────────

type stubPublicador struct {
	mu      sync.Mutex
	eventos []realtime.Evento
}

func (p *stubPublicador) Publicar(_ context.Context, ev realtime.Evento) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eventos = append(p.eventos, ev)
}

type stubNotificador struct {
	emails []worker.EmailJobPayload
	err    error
}

func (n *stubNotificador) EncolarEmail(_ context.Context, p worker.EmailJobPayload) error {
	if n.err != nil {
		return n.err
	}
	n.emails = append(n.emails, p)
	return nil
}

type stubRevocador struct {
	revocados map[string]time.Time
}

func (r *stubRevocador) Revocar(_ context.Context, jti string, expira time.Time) error {
	r.revocados[jti] = expira
	return nil
}

func (r *stubRevocador) Revocado(_ context.Context, jti string) (bool, error) {
	_, ok := r.revocados[jti]
	return ok, nil
}

// ── Fixture ──────────────────────────────────────────────────────────────────

type fixture struct {
	reloj       *reloj
	insumos     *stubInsumoRepo
	movimientos *stubMovimientoRepo
	usuarios    *stubUsuarioRepo
	trabajos    *stubTrabajoRepo
	reportes    *stubReporteRepo
	pub         *stubPublicador
	notificador *stubNotificador

	inventario InventarioService
	trabajo    TrabajoService

	laboratorio *model.Usuario
	doctor      *model.Usuario
}

func nuevoFixture(maxEntradas int) *fixture {
	r := nuevoReloj()
	f := &fixture{
		reloj:       r,
		insumos:     newStubInsumoRepo(r),
		usuarios:    newStubUsuarioRepo(),
		pub:         &stubPublicador{},
		notificador: &stubNotificador{},
	}
	f.movimientos = &stubMovimientoRepo{reloj: r, insumos: f.insumos, usuarios: f.usuarios}
	f.reportes = &stubReporteRepo{reportes: map[uuid.UUID]*model.ReporteTrabajo{}, reloj: r}
	f.trabajos = &stubTrabajoRepo{trabajos: map[uuid.UUID]*model.Trabajo{}, reportes: f.reportes, reloj: r}

	nombres := NewResolverNombres(f.insumos, f.usuarios)
	f.inventario = NewInventarioService(f.insumos, f.movimientos, nombres, f.pub, maxEntradas)
	f.trabajo = NewTrabajoService(f.trabajos, f.reportes, f.insumos, f.usuarios, f.inventario, nombres, f.pub, f.notificador, "Argote Labs")

	f.laboratorio = f.usuarios.agregar("Lucia Lab", "lab@argote.mx", model.RolLaboratorio)
	f.doctor = f.usuarios.agregar("Dr. Ramos", "ramos@clinica.mx", model.RolDoctor)
	return f
}

func (f *fixture) escrituras() (trabajos, materiales, movimientos int) {
	return len(f.trabajos.trabajos), len(f.trabajos.materiales), len(f.movimientos.movs)
}

var errBD = errors.New("conexion perdida")
