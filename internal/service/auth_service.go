package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"argotelabs/internal/config"
	"argotelabs/internal/dto"
	"argotelabs/internal/model"
	"argotelabs/internal/realtime"
	"argotelabs/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenAcceso  = "access"
	TokenRefresh = "refresh"

	bcryptCost = 12
)

// ErrNoAutorizado covers bad credentials and unusable tokens.
var ErrNoAutorizado = errors.New("no autorizado")

// Revocador stores signed-out token ids. *infra.Sesiones satisfies it.
type Revocador interface {
	Revocar(ctx context.Context, jti string, expira time.Time) error
	Revocado(ctx context.Context, jti string) (bool, error)
}

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Logout(ctx context.Context, usuarioID uuid.UUID, jti string, expira time.Time, refreshToken string) error
	Sesion(ctx context.Context, usuarioID uuid.UUID) (*dto.UsuarioResponse, error)

	CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	ListarUsuarios(ctx context.Context) ([]dto.UsuarioResponse, error)
	ActualizarUsuario(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	DesactivarUsuario(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	repo      repository.UsuarioRepository
	revocador Revocador
	pub       realtime.Publicador
	cfg       *config.Config
}

func NewAuthService(repo repository.UsuarioRepository, revocador Revocador, pub realtime.Publicador, cfg *config.Config) AuthService {
	return &authService{repo: repo, revocador: revocador, pub: pub, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, errCredenciales()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errCredenciales()
	}
	log.Info().Str("usuario_id", user.ID.String()).Str("rol", user.Rol).Msg("inicio de sesion")
	return s.emitirTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := s.parsear(refreshToken)
	if err != nil || claims["tipo"] != TokenRefresh {
		return nil, fmt.Errorf("%w: refresh token invalido o expirado", ErrNoAutorizado)
	}
	jti, _ := claims["jti"].(string)
	if s.revocador != nil && jti != "" {
		revocado, err := s.revocador.Revocado(ctx, jti)
		if err != nil {
			return nil, err
		}
		if revocado {
			return nil, fmt.Errorf("%w: sesion cerrada", ErrNoAutorizado)
		}
	}

	userIDStr, _ := claims["user_id"].(string)
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("%w: token mal formado", ErrNoAutorizado)
	}
	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Activo {
		return nil, fmt.Errorf("%w: usuario no encontrado o inactivo", ErrNoAutorizado)
	}

	// Rotation: the presented refresh token cannot be used again.
	if s.revocador != nil && jti != "" {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			if err := s.revocador.Revocar(ctx, jti, exp.Time); err != nil {
				log.Warn().Err(err).Msg("no se pudo revocar el refresh token rotado")
			}
		}
	}
	return s.emitirTokens(user)
}

// Logout revokes the access token identified by jti and, when given, the
// refresh token. Other sessions of the same user stay valid.
func (s *authService) Logout(ctx context.Context, usuarioID uuid.UUID, jti string, expira time.Time, refreshToken string) error {
	if s.revocador == nil {
		return nil
	}
	if jti != "" {
		if err := s.revocador.Revocar(ctx, jti, expira); err != nil {
			return err
		}
	}
	if refreshToken != "" {
		if claims, err := s.parsear(refreshToken); err == nil {
			rjti, _ := claims["jti"].(string)
			exp, _ := claims.GetExpirationTime()
			if rjti != "" && exp != nil {
				if err := s.revocador.Revocar(ctx, rjti, exp.Time); err != nil {
					return err
				}
			}
		}
	}
	log.Info().Str("usuario_id", usuarioID.String()).Msg("sesion cerrada")
	s.pub.Publicar(ctx, realtime.Evento{
		Tabla:     realtime.TablaSesion,
		Accion:    realtime.AccionDelete,
		ID:        jti,
		UsuarioID: usuarioID.String(),
	})
	return nil
}

func (s *authService) Sesion(ctx context.Context, usuarioID uuid.UUID) (*dto.UsuarioResponse, error) {
	user, err := s.repo.FindByID(ctx, usuarioID)
	if err != nil {
		return nil, traducirRepoErr(err, "usuario")
	}
	if !user.Activo {
		return nil, fmt.Errorf("%w: usuario inactivo", ErrNoAutorizado)
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	if !esRolValido(req.Rol) {
		return nil, errValidacion("rol %q no valido", req.Rol)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, errValidacion("ya existe un usuario con el email %s", email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &model.Usuario{
		Email:        email,
		Nombre:       strings.TrimSpace(req.Nombre),
		PasswordHash: string(hash),
		Rol:          req.Rol,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) ListarUsuarios(ctx context.Context) ([]dto.UsuarioResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = usuarioToResponse(&users[i])
	}
	return resp, nil
}

func (s *authService) ActualizarUsuario(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, traducirRepoErr(err, "usuario")
	}
	if req.Nombre != "" {
		user.Nombre = strings.TrimSpace(req.Nombre)
	}
	if req.Rol != "" {
		if !esRolValido(req.Rol) {
			return nil, errValidacion("rol %q no valido", req.Rol)
		}
		user.Rol = req.Rol
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) DesactivarUsuario(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return traducirRepoErr(err, "usuario")
	}
	s.pub.Publicar(ctx, realtime.Evento{
		Tabla:     realtime.TablaSesion,
		Accion:    realtime.AccionDelete,
		ID:        id.String(),
		UsuarioID: id.String(),
	})
	return nil
}

func (s *authService) emitirTokens(user *model.Usuario) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, TokenAcceso, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, TokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         usuarioToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.Usuario, tipo string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"nombre":  user.Nombre,
		"rol":     user.Rol,
		"tipo":    tipo,
		"jti":     uuid.NewString(),
		"exp":     now.Add(duration).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *authService) parsear(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrNoAutorizado
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrNoAutorizado
	}
	return claims, nil
}

func errCredenciales() error {
	return fmt.Errorf("%w: credenciales invalidas", ErrNoAutorizado)
}

func esRolValido(rol string) bool {
	switch rol {
	case model.RolAdministrador, model.RolDoctor, model.RolLogistica, model.RolLaboratorio:
		return true
	}
	return false
}

func usuarioToResponse(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:     u.ID.String(),
		Email:  u.Email,
		Nombre: u.Nombre,
		Rol:    u.Rol,
		Activo: u.Activo,
	}
}
