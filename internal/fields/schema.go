// Package fields validates OCR-extracted receipt fields arriving from
// the backend before they are trusted by the rest of the store.
package fields

// BuildFieldsJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// Documents whose fields fail it are flagged for review, not rejected.
func BuildFieldsJSONSchema(allowedCategories []string) map[string]any {
	confidence := map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}
	field := func(value map[string]any) map[string]any {
		return map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"value":      value,
				"confidence": confidence,
			},
			"required": []string{"value"},
		}
	}

	category := map[string]any{"type": "string"}
	if len(allowedCategories) > 0 {
		// empty string means uncategorized
		category = map[string]any{"type": "string", "enum": append([]string{""}, allowedCategories...)}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"vendor":   field(map[string]any{"type": "string", "minLength": 1}),
			"tx_date":  field(map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}),
			"amount":   field(decimalProp()),
			"category": field(category),
		},
		"required": []string{"vendor", "tx_date", "amount"},
	}
}

func decimalProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^-?\d+(\.\d{1,2})?$`, // refunds come through negative
	}
}
