package rates

import (
	"github.com/shopspring/decimal"

	walletDomain "github.com/davicafu/viajelab/internal/wallet/domain"
)

// StaticRateProvider sirve tasas de conversión desde una tabla fija en
// memoria. Suficiente mientras la fuente real de tasas sea un colaborador
// externo; la clave es "FROM:TO".
type StaticRateProvider struct {
	rates map[string]decimal.Decimal
}

func NewStaticRateProvider(rates map[string]decimal.Decimal) *StaticRateProvider {
	return &StaticRateProvider{rates: rates}
}

func (p *StaticRateProvider) Rate(from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if rate, ok := p.rates[from+":"+to]; ok {
		return rate, nil
	}
	// Tasa inversa si solo está definida en un sentido.
	if rate, ok := p.rates[to+":"+from]; ok && !rate.IsZero() {
		return decimal.NewFromInt(1).Div(rate), nil
	}
	return decimal.Zero, walletDomain.ErrUnknownCurrency
}

// Verificación estática
var _ walletDomain.RateProvider = (*StaticRateProvider)(nil)
