// Package schema validates declarative prompt forms and component props.
//
// The form layer checks the vocabulary a section file may use: ParseRole and
// ParseKind validate role/kind strings, CheckAttributes validates sizing
// attributes. The type layer validates component props against a declared
// schema, with built-in types (string, int, float, bool), slices and custom
// validators.
//
// Basic usage:
//
//	propSchema := schema.Schema{
//	    "session": schema.String(),
//	    "turns":   schema.Int(),
//	    "topics":  schema.Slice(schema.String()),
//	}
//
//	props := map[string]any{
//	    "session": "support-42",
//	    "turns":   8,
//	    "topics":  []string{"billing", "refunds"},
//	}
//
//	if err := schema.Validate(propSchema, props); err != nil {
//	    // Handle validation errors
//	}
//
// Section files declare prop types as strings, parsed into a Schema:
//
//	typeMap := map[string]string{
//	    "session": "string",
//	    "turns":   "int",
//	    "topics":  "[string]",
//	}
//
//	propSchema, err := schema.ParseTypeMap(typeMap)
//
// Custom validators cover domain-specific constraints:
//
//	positiveInt := schema.Custom("positive_int", func(v any) error {
//	    i, ok := v.(int)
//	    if !ok {
//	        return fmt.Errorf("expected int")
//	    }
//	    if i <= 0 {
//	        return fmt.Errorf("must be positive")
//	    }
//	    return nil
//	})
package schema
