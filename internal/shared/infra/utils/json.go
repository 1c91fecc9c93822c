package utils

import (
	"encoding/json"

	"go.uber.org/zap"
)

// UnmarshalPayload deserializa el payload de una envoltura al contrato T.
// Un payload malformado se loguea y devuelve false: reentregarlo no lo
// arreglaría.
func UnmarshalPayload[T any](log *zap.Logger, data json.RawMessage) (T, bool) {
	var evt T
	if err := json.Unmarshal(data, &evt); err != nil {
		log.Warn("Failed to unmarshal event data", zap.Error(err))
		return evt, false
	}
	return evt, true
}
