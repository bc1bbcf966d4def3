// cmd/seeduser/main.go: crea o actualiza un usuario.
// Uso: go run ./cmd/seeduser -email admin@argotelabs.mx -password 1234 -rol administrador
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"argotelabs/internal/config"
	"argotelabs/internal/infra"
	"argotelabs/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	email := flag.String("email", "admin@argotelabs.mx", "email de acceso")
	password := flag.String("password", "1234", "password en claro")
	nombre := flag.String("nombre", "Admin Demo", "nombre visible")
	rol := flag.String("rol", model.RolAdministrador, "administrador | doctor | logistica | laboratorio")
	flag.Parse()

	switch *rol {
	case model.RolAdministrador, model.RolDoctor, model.RolLogistica, model.RolLaboratorio:
	default:
		log.Fatal().Str("rol", *rol).Msg("rol no valido")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}

	result := db.WithContext(context.Background()).Exec(`
		INSERT INTO usuarios (email, nombre, password_hash, rol, activo, created_at, updated_at)
		VALUES (?, ?, ?, ?, true, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    nombre = EXCLUDED.nombre,
		    rol = EXCLUDED.rol,
		    activo = true,
		    updated_at = NOW()
	`, strings.ToLower(strings.TrimSpace(*email)), *nombre, string(hash), *rol)
	if result.Error != nil {
		log.Fatal().Err(result.Error).Msg("insert error")
	}
	log.Info().Str("email", *email).Str("rol", *rol).Msg("usuario creado/actualizado")
}
