package router

import (
	"argotelabs/internal/config"
	"argotelabs/internal/handler"
	"argotelabs/internal/infra"
	"argotelabs/internal/middleware"
	"argotelabs/internal/model"
	"argotelabs/internal/realtime"
	"argotelabs/internal/repository"
	"argotelabs/internal/service"
	"argotelabs/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	admin       = model.RolAdministrador
	doctor      = model.RolDoctor
	logistica   = model.RolLogistica
	laboratorio = model.RolLaboratorio
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb may be nil: sign-out, rate-limit sharing and email fall back or switch off.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, hub *realtime.Hub, pub realtime.Publicador) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimiter(cfg.RateLimit, "api", rdb))
	// SSE must not be buffered by the compressor.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/v1/eventos", "/metrics"})))

	// ── Infrastructure ───────────────────────────────────────────────────────
	var (
		revocador service.Revocador
		revocados middleware.Revocados
	)
	if rdb != nil {
		sesiones := infra.NewSesiones(rdb)
		revocador, revocados = sesiones, sesiones
	}
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	insumoRepo := repository.NewInsumoRepository(db)
	movimientoRepo := repository.NewMovimientoStockRepository(db)
	trabajoRepo := repository.NewTrabajoRepository(db)
	reporteRepo := repository.NewReporteRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	nombres := service.NewResolverNombres(insumoRepo, usuarioRepo)
	authSvc := service.NewAuthService(usuarioRepo, revocador, pub, cfg)
	inventarioSvc := service.NewInventarioService(insumoRepo, movimientoRepo, nombres, pub, cfg.LedgerMaxEntries)
	trabajoSvc := service.NewTrabajoService(trabajoRepo, reporteRepo, insumoRepo, usuarioRepo,
		inventarioSvc, nombres, pub, dispatcher, cfg.LabNombre)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	insumosH := handler.NewInsumosHandler(inventarioSvc)
	movimientosH := handler.NewMovimientosHandler(inventarioSvc)
	trabajosH := handler.NewTrabajosHandler(trabajoSvc)
	eventosH := handler.NewEventosHandler(hub)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, hub))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.RateLimiter(middleware.LoginRate, "login", rdb), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret, revocados)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.POST("/auth/logout", authH.Logout)
		v1.GET("/auth/sesion", authH.Sesion)

		v1.GET("/eventos", middleware.RequireRole(admin, logistica, laboratorio), eventosH.Stream)

		insumos := v1.Group("/insumos", middleware.RequireRole(admin, logistica, laboratorio))
		{
			insumos.GET("", insumosH.Listar)
			insumos.GET("/alertas", insumosH.Alertas)
			insumos.GET("/:id", insumosH.Obtener)
			insumos.POST("", insumosH.Crear)
			insumos.PUT("/:id", insumosH.Actualizar)
			insumos.POST("/:id/movimientos", insumosH.RegistrarMovimiento)
			insumos.PATCH("/:id/desactivar", middleware.RequireRole(admin, logistica), insumosH.Desactivar)
			insumos.PATCH("/:id/reactivar", middleware.RequireRole(admin, logistica), insumosH.Reactivar)
			insumos.DELETE("/:id", middleware.RequireRole(admin), insumosH.Eliminar)
		}

		movs := v1.Group("/movimientos", middleware.RequireRole(admin, logistica, laboratorio))
		{
			movs.GET("", movimientosH.Listar)
			movs.GET("/export.xlsx", movimientosH.Exportar)
			movs.DELETE("/:id", middleware.RequireRole(admin), movimientosH.Eliminar)
		}

		todos := middleware.RequireRole(admin, doctor, logistica, laboratorio)
		taller := middleware.RequireRole(admin, laboratorio)
		trabajos := v1.Group("/trabajos")
		{
			trabajos.GET("", todos, trabajosH.Listar)
			trabajos.POST("", middleware.RequireRole(admin, doctor, laboratorio), trabajosH.Crear)
			trabajos.GET("/:id", todos, trabajosH.Obtener)
			trabajos.GET("/:id/orden.pdf", middleware.RequireRole(admin, logistica, laboratorio), trabajosH.OrdenPDF)
			trabajos.POST("/:id/fresado", taller, trabajosH.IniciarFresado)
			trabajos.POST("/:id/completar", taller, trabajosH.Completar)
			trabajos.DELETE("/:id", middleware.RequireRole(admin), trabajosH.Eliminar)
			trabajos.GET("/:id/reportes", middleware.RequireRole(admin, logistica, laboratorio), trabajosH.ListarReportes)
			trabajos.POST("/:id/reportes", taller, trabajosH.CrearReporte)
		}
		v1.DELETE("/reportes/:id", middleware.RequireRole(admin), trabajosH.EliminarReporte)

		usuarios := v1.Group("/usuarios", middleware.RequireRole(admin))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
		}
	}

	// Swagger UI only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
