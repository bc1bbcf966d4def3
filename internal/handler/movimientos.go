package handler

import (
	"fmt"
	"net/http"
	"time"

	"argotelabs/internal/dto"
	"argotelabs/internal/service"

	"github.com/gin-gonic/gin"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type MovimientosHandler struct{ svc service.InventarioService }

func NewMovimientosHandler(svc service.InventarioService) *MovimientosHandler {
	return &MovimientosHandler{svc: svc}
}

// Listar godoc
// @Summary Historial de movimientos
// @Description Mas recientes primero. q busca por insumo, usuario, motivo o cantidad exacta.
// @Tags movimientos
// @Produce json
// @Param q query string false "Busqueda"
// @Param insumo_id query string false "Filtrar por insumo"
// @Param page query int false "Pagina"
// @Param limit query int false "Tamaño de pagina"
// @Success 200 {object} dto.MovimientoListResponse
// @Router /v1/movimientos [get]
func (h *MovimientosHandler) Listar(c *gin.Context) {
	var filter dto.MovimientoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MovimientosHandler) Exportar(c *gin.Context) {
	var filter dto.MovimientoFilter
	if !bindQuery(c, &filter) {
		return
	}
	data, err := h.svc.ExportarMovimientos(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	nombre := fmt.Sprintf("movimientos_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", nombre))
	c.Data(http.StatusOK, mimeXLSX, data)
}

func (h *MovimientosHandler) Eliminar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.EliminarMovimiento(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
