// Package errors provides the classified error primitives used across sitemigrate.
//
// A ClassifiedError carries a category, a severity and a retry strategy so that
// callers can decide whether a failure aborts a migration run, is absorbed with a
// warning, or needs the user to act (for example by converting a very old site
// with the legacy converter first).
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryDecode, "unknown element type").
//		Fatal().
//		WithContext("element_id", id).
//		Build()
package errors
