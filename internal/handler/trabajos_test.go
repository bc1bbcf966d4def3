package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"argotelabs/internal/dto"
	"argotelabs/internal/middleware"
	"argotelabs/internal/model"
	"argotelabs/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTrabajoService only answers ObtenerTrabajo; other methods panic if reached.
type stubTrabajoService struct {
	service.TrabajoService
	trabajos map[uuid.UUID]*dto.TrabajoResponse
}

func (s *stubTrabajoService) ObtenerTrabajo(_ context.Context, id uuid.UUID) (*dto.TrabajoResponse, error) {
	t, ok := s.trabajos[id]
	if !ok {
		return nil, fmt.Errorf("%w: trabajo", service.ErrNoEncontrado)
	}
	return t, nil
}

func obtenerComo(h *TrabajosHandler, usuario uuid.UUID, rol string, trabajoID uuid.UUID) *httptest.ResponseRecorder {
	r := gin.New()
	r.GET("/v1/trabajos/:id", func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &middleware.JWTClaims{UserID: usuario.String(), Rol: rol})
		c.Next()
	}, h.Obtener)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/trabajos/"+trabajoID.String(), nil))
	return w
}

func TestObtenerTrabajo_AlcancePorRol(t *testing.T) {
	ramos, lopez, lab := uuid.New(), uuid.New(), uuid.New()
	trabajoID := uuid.New()
	svc := &stubTrabajoService{trabajos: map[uuid.UUID]*dto.TrabajoResponse{
		trabajoID: {ID: trabajoID.String(), Paciente: "Juan Perez", CreadoPor: ramos.String()},
	}}
	h := NewTrabajosHandler(svc)

	casos := []struct {
		nombre  string
		usuario uuid.UUID
		rol     string
		status  int
	}{
		{"doctor creador", ramos, model.RolDoctor, http.StatusOK},
		{"otro doctor", lopez, model.RolDoctor, http.StatusNotFound},
		{"laboratorio ve todos", lab, model.RolLaboratorio, http.StatusOK},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			w := obtenerComo(h, c.usuario, c.rol, trabajoID)
			require.Equal(t, c.status, w.Code)
			if c.status == http.StatusOK {
				var resp dto.TrabajoResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "Juan Perez", resp.Paciente)
			} else {
				assert.NotContains(t, w.Body.String(), "Juan Perez")
			}
		})
	}
}

func TestObtenerTrabajo_InexistenteEs404(t *testing.T) {
	h := NewTrabajosHandler(&stubTrabajoService{trabajos: map[uuid.UUID]*dto.TrabajoResponse{}})
	w := obtenerComo(h, uuid.New(), model.RolLaboratorio, uuid.New())
	assert.Equal(t, http.StatusNotFound, w.Code)
}
