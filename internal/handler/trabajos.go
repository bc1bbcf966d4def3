package handler

import (
	"fmt"
	"net/http"

	"argotelabs/internal/dto"
	"argotelabs/internal/middleware"
	"argotelabs/internal/model"
	"argotelabs/internal/service"

	"github.com/gin-gonic/gin"
)

type TrabajosHandler struct{ svc service.TrabajoService }

func NewTrabajosHandler(svc service.TrabajoService) *TrabajosHandler {
	return &TrabajosHandler{svc: svc}
}

// Listar godoc
// @Summary Lista de trabajos
// @Description Los doctores solo ven sus propios trabajos.
// @Tags trabajos
// @Produce json
// @Param alcance query string false "propios | todos"
// @Param estado query string false "pendiente | completado"
// @Param etapa query string false "diseno | fresado"
// @Success 200 {object} dto.TrabajoListResponse
// @Router /v1/trabajos [get]
func (h *TrabajosHandler) Listar(c *gin.Context) {
	var filter dto.TrabajoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarTrabajos(c.Request.Context(), actor(c), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TrabajosHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerTrabajo(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	if a := actor(c); a.Rol == model.RolDoctor && resp.CreadoPor != a.ID.String() {
		responderError(c, fmt.Errorf("%w: trabajo", service.ErrNoEncontrado))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Crear godoc
// @Summary Alta de trabajo
// @Description Descuenta los materiales del inventario. Si algun insumo no alcanza no se crea nada.
// @Tags trabajos
// @Accept json
// @Produce json
// @Param body body dto.CrearTrabajoRequest true "Trabajo"
// @Success 201 {object} dto.TrabajoResponse
// @Failure 409 {object} apierror.StockError
// @Failure 422 {object} apierror.APIError
// @Router /v1/trabajos [post]
func (h *TrabajosHandler) Crear(c *gin.Context) {
	var req dto.CrearTrabajoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearTrabajo(c.Request.Context(), middleware.UsuarioID(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *TrabajosHandler) IniciarFresado(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.IniciarFresadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.IniciarFresado(c.Request.Context(), id, middleware.UsuarioID(c), req.Materiales)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TrabajosHandler) Completar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.CompletarTrabajo(c.Request.Context(), id, middleware.UsuarioID(c))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TrabajosHandler) Eliminar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.EliminarTrabajo(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// OrdenPDF streams the printable work order.
func (h *TrabajosHandler) OrdenPDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	pdf, err := h.svc.OrdenPDF(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"orden_%s.pdf\"", id.String()[:8]))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ── Reportes ─────────────────────────────────────────────────────────────────

func (h *TrabajosHandler) CrearReporte(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CrearReporteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearReporte(c.Request.Context(), id, middleware.UsuarioID(c), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *TrabajosHandler) ListarReportes(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarReportes(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TrabajosHandler) EliminarReporte(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.EliminarReporte(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
