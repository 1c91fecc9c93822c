package domain

import "errors"

// DomainError marca violaciones de reglas de negocio. Se distingue de los
// errores de infraestructura porque reintentarlas nunca puede tener éxito:
// el consumidor las registra y confirma el mensaje en vez de redistribuirlo.
type DomainError struct {
	msg string
}

// NewDomainError crea un error de dominio centinela.
func NewDomainError(msg string) *DomainError {
	return &DomainError{msg: msg}
}

func (e *DomainError) Error() string { return e.msg }

// IsDomain indica si err (o su cadena) es una violación de dominio.
func IsDomain(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// Errores compartidos del value object Money.
var (
	ErrNegativeAmount   = NewDomainError("money: negative amount")
	ErrInvalidMoney     = NewDomainError("money: invalid value")
	ErrCurrencyMismatch = NewDomainError("money: currency mismatch")
)
