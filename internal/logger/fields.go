package logger

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldOfferID is the structured log field key for the ranked offer.
	FieldOfferID = "offer_id"
	// FieldOfferName is the structured log field key for the offer title.
	FieldOfferName = "offer_name"
	// FieldCandidateID is the structured log field key for a candidate.
	FieldCandidateID = "candidate_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// OfferFields describes the offer a run works on. Empty names are dropped.
func OfferFields(id int, name string) []zap.Field {
	return StringFields(
		StringField{Key: FieldOfferID, Value: strconv.Itoa(id)},
		StringField{Key: FieldOfferName, Value: name},
	)
}

// WithOffer attaches the offer fields to the provided logger.
func WithOffer(logger *zap.Logger, id int, name string) *zap.Logger {
	return WithFields(logger, OfferFields(id, name)...)
}
