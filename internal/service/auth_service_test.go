package service

import (
	"context"
	"testing"
	"time"

	"argotelabs/internal/config"
	"argotelabs/internal/dto"
	"argotelabs/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nuevoAuth(t *testing.T) (AuthService, *stubUsuarioRepo, *stubRevocador, *stubPublicador) {
	t.Helper()
	repo := newStubUsuarioRepo()
	rev := &stubRevocador{revocados: map[string]time.Time{}}
	pub := &stubPublicador{}
	cfg := &config.Config{JWTSecret: "secreto-de-prueba", JWTExpirationHours: 8, JWTRefreshHours: 24}
	return NewAuthService(repo, rev, pub, cfg), repo, rev, pub
}

func claimsDe(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return []byte("secreto-de-prueba"), nil })
	require.NoError(t, err)
	return parsed.Claims.(jwt.MapClaims)
}

func TestLogin(t *testing.T) {
	svc, _, _, _ := nuevoAuth(t)
	ctx := context.Background()
	_, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{
		Email: "Lab@Argote.mx", Nombre: "Lucia", Password: "clave-segura", Rol: model.RolLaboratorio,
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, dto.LoginRequest{Email: "lab@argote.mx", Password: "clave-segura"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, model.RolLaboratorio, resp.User.Rol)

	claims := claimsDe(t, resp.AccessToken)
	assert.Equal(t, TokenAcceso, claims["tipo"])
	assert.Equal(t, "Lucia", claims["nombre"])
	assert.NotEmpty(t, claims["jti"])
	assert.Equal(t, TokenRefresh, claimsDe(t, resp.RefreshToken)["tipo"])

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "lab@argote.mx", Password: "otra"})
	assert.ErrorIs(t, err, ErrNoAutorizado)
	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nadie@argote.mx", Password: "clave-segura"})
	assert.ErrorIs(t, err, ErrNoAutorizado)
}

func TestRefresh_RotaYRechazaReuso(t *testing.T) {
	svc, _, _, _ := nuevoAuth(t)
	ctx := context.Background()
	_, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{Email: "doc@clinica.mx", Nombre: "Doc", Password: "clave-segura", Rol: model.RolDoctor})
	require.NoError(t, err)
	login, err := svc.Login(ctx, dto.LoginRequest{Email: "doc@clinica.mx", Password: "clave-segura"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, login.AccessToken)
	assert.ErrorIs(t, err, ErrNoAutorizado, "an access token cannot refresh")

	nuevo, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, nuevo.RefreshToken)

	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrNoAutorizado)
}

func TestLogout_RevocaYNotifica(t *testing.T) {
	svc, _, rev, pub := nuevoAuth(t)
	ctx := context.Background()
	u, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{Email: "log@argote.mx", Nombre: "Log", Password: "clave-segura", Rol: model.RolLogistica})
	require.NoError(t, err)
	login, err := svc.Login(ctx, dto.LoginRequest{Email: "log@argote.mx", Password: "clave-segura"})
	require.NoError(t, err)

	jti := claimsDe(t, login.AccessToken)["jti"].(string)
	uid := uuid.MustParse(u.ID)
	require.NoError(t, svc.Logout(ctx, uid, jti, time.Now().Add(time.Hour), login.RefreshToken))

	assert.Contains(t, rev.revocados, jti)
	assert.Len(t, rev.revocados, 2)
	require.Len(t, pub.eventos, 1)
	assert.Equal(t, u.ID, pub.eventos[0].UsuarioID)

	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrNoAutorizado)
}

func TestUsuarios(t *testing.T) {
	svc, repo, _, _ := nuevoAuth(t)
	ctx := context.Background()

	_, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{Email: "x@argote.mx", Nombre: "X", Password: "clave-segura", Rol: "gerente"})
	assert.ErrorIs(t, err, ErrValidacion)

	u, err := svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{Email: "x@argote.mx", Nombre: "X", Password: "clave-segura", Rol: model.RolDoctor})
	require.NoError(t, err)
	_, err = svc.CrearUsuario(ctx, dto.CrearUsuarioRequest{Email: "X@argote.mx", Nombre: "X2", Password: "clave-segura", Rol: model.RolDoctor})
	assert.ErrorIs(t, err, ErrValidacion)

	id := uuid.MustParse(u.ID)
	act, err := svc.ActualizarUsuario(ctx, id, dto.ActualizarUsuarioRequest{Rol: model.RolAdministrador})
	require.NoError(t, err)
	assert.Equal(t, model.RolAdministrador, act.Rol)

	require.NoError(t, svc.DesactivarUsuario(ctx, id))
	assert.False(t, repo.usuarios[id].Activo)
	_, err = svc.Sesion(ctx, id)
	assert.ErrorIs(t, err, ErrNoAutorizado)
	_, err = svc.Login(ctx, dto.LoginRequest{Email: "x@argote.mx", Password: "clave-segura"})
	assert.ErrorIs(t, err, ErrNoAutorizado)

	assert.ErrorIs(t, svc.DesactivarUsuario(ctx, uuid.New()), ErrNoEncontrado)
}
