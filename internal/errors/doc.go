// Package errors provides structured, actionable error messages for the
// storekit CLI.
//
// Every error carries a code that maps to a short message, a longer
// explanation and a hint:
//
//	err := errors.Classify(st.UseState(v, "cuont"))
//	fmt.Print(err.Format())
//	// ERROR S001: Watched key not found
//	//
//	//   Key-path "cuont" does not resolve in the current state.
//	//
//	//   Cause: store: key "cuont" not found
//	//
//	//   Hint: Add the key to the initial state, or create the store with WithStrictKeys(false)
//
// # Error Codes
//
//   - S001-S009: store and state misuse
//   - S010-S019: configuration
//   - S020-S029: inspector server
//   - S030-S039: CLI and terminal UI
package errors
