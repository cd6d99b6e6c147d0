package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrDuplicate        = errors.New("factura ya registrada en el histórico")
	ErrUnauthorized     = errors.New("no autorizado")
	ErrStoreUnavailable = errors.New("histórico de facturas no disponible")
)
