package domain

import "context"

// SMSSender es el puerto de salida hacia el proveedor de SMS. Los fallos del
// proveedor no deben bloquear ningún flujo de negocio: el que llama los
// loguea y sigue.
type SMSSender interface {
	SendSMS(ctx context.Context, mobile, message string) error
}
