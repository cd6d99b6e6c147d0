package http

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/invoice-qc/internal/application/dto"
	"github.com/tu-usuario/invoice-qc/pkg/config"
	"github.com/tu-usuario/invoice-qc/pkg/jwt"
)

// AuthHandler emite tokens de servicio (client credentials). No hay almacén
// de usuarios: las credenciales se comparan contra la configuración.
type AuthHandler struct {
	cfg config.JWTConfig
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(cfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// Token emite un JWT para el cliente del servicio.
// POST /api/auth/token
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var in dto.TokenRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.ClientID == "" || in.ClientSecret == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "client_id y client_secret son requeridos"})
	}
	if h.cfg.ClientID == "" || h.cfg.ClientSecret == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "credenciales de servicio no configuradas"})
	}
	idOK := subtle.ConstantTimeCompare([]byte(in.ClientID), []byte(h.cfg.ClientID)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(in.ClientSecret), []byte(h.cfg.ClientSecret)) == 1
	if !idOK || !secretOK {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	}
	token, err := jwt.Generate(h.cfg.Secret, in.ClientID, "service", h.cfg.Issuer, h.cfg.Expiration)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.cfg.Expiration * 60,
	})
}
