package prompts

func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	req := make([]any, 0, len(required))
	for _, r := range required {
		req = append(req, r)
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   req,
	}
}

func ArraySchema(items map[string]any, minItems int) map[string]any {
	s := map[string]any{"type": "array", "items": items}
	if minItems > 0 {
		s["minItems"] = minItems
	}
	return s
}

// NumericSchema accepts numbers and numeric strings; replies are coerced later.
func NumericSchema() map[string]any {
	return map[string]any{
		"anyOf": []any{
			map[string]any{"type": "number"},
			map[string]any{"type": "string", "pattern": `^\s*-?[0-9]+([.,][0-9]+)?\s*%?\s*$`},
		},
	}
}

func StringSchema() map[string]any {
	return map[string]any{"type": "string"}
}

func NonEmptyStringSchema() map[string]any {
	return map[string]any{"type": "string", "minLength": 1}
}

func StringOrNullSchema() map[string]any {
	return map[string]any{"type": []any{"string", "null"}}
}

func StringArraySchema() map[string]any {
	return ArraySchema(StringSchema(), 0)
}

// MacrosSchema is the macronutrient object in grams.
func MacrosSchema() map[string]any {
	return ObjectSchema(map[string]any{
		"protein":  NumericSchema(),
		"carbs":    NumericSchema(),
		"fat":      NumericSchema(),
		"calories": NumericSchema(),
	}, "protein", "carbs", "fat")
}
