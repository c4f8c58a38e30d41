// Package errors provides coded, actionable errors for the loom CLI.
//
// Each code maps to a registered template with a category, a short message
// and a longer explanation. Call sites add a location, a hint and the
// underlying error:
//
//	err := errors.New("E202").
//	    WithLocation("page.yaml", 4, 5).
//	    WithSuggestion("Every mapping needs a type key").
//	    Wrap(decodeErr)
//
//	errors.Print(os.Stderr, err)
//	// ERROR E202: Invalid element document
//	//
//	//   page.yaml:4:5
//	//
//	//        3 │   - type: p
//	//   →    4 │   - props: {}
//	//          │     ^
//	//
//	//   Hint: Every mapping needs a type key
//
// # Codes
//
//   - E1xx: configuration (loom.json, flags)
//   - E2xx: rendering (element documents, render and commit failures)
//   - E3xx: serving and snapshot publishing
package errors
