package errors

// UnsupportedLegacyMessage is shown to users whose website predates the oldest
// format the editor can still upgrade.
const UnsupportedLegacyMessage = "This website was saved with a very old version of the editor and cannot be opened directly. " +
	"Please convert it with the legacy converter tool first, then open the converted website."

// DecodeFailedMessage is the fixed message for legacy decoding failures.
const DecodeFailedMessage = "the website markup could not be decoded"

// UnsupportedLegacyVersion rejects a document saved below the minimum supported version.
func UnsupportedLegacyVersion(saved, minSupported string) *ClassifiedError {
	return NewError(CategoryMigration, UnsupportedLegacyMessage).
		Fatal().
		UserAction().
		WithContext("saved_version", saved).
		WithContext("min_supported_version", minSupported).
		Build()
}

// DecodeError reports markup that cannot be turned into a structured model.
// elementID is empty when the failure concerns the document as a whole.
func DecodeError(elementID, reason string) *ClassifiedError {
	b := NewError(CategoryDecode, DecodeFailedMessage).
		Fatal().
		WithContext("reason", reason)
	if elementID != "" {
		b.WithContext("element_id", elementID)
	}
	return b.Build()
}

// MalformedAssetURL reports a static asset URL that does not follow the
// versioned static layout. It never aborts a run.
func MalformedAssetURL(url string) *ClassifiedError {
	return NewError(CategoryAsset, "static asset URL does not match the versioned layout").
		Warning().
		WithContext("url", url).
		Build()
}

// MalformedPublicationTarget reports an unreadable publication descriptor.
func MalformedPublicationTarget(raw string, cause error) *ClassifiedError {
	return WrapError(cause, CategoryDecode, "publication target could not be parsed").
		Warning().
		WithContext("raw", raw).
		Build()
}

// IsUnsupportedLegacy reports whether err rejects a too-old document.
func IsUnsupportedLegacy(err error) bool {
	c, ok := AsClassified(err)
	return ok && c.category == CategoryMigration && c.message == UnsupportedLegacyMessage
}

// IsDecodeError reports whether err is a fatal decoding failure.
func IsDecodeError(err error) bool {
	c, ok := AsClassified(err)
	return ok && c.category == CategoryDecode && c.IsFatal()
}
