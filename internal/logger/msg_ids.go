package logger

// Most non-error log messages are given a message ID that is printed next to
// the message text. Errors do not get a message ID because you cannot turn
// errors into non-errors (otherwise the build would incorrectly succeed).
type MsgID = uint8

const (
	MsgID_None MsgID = iota

	// JavaScript
	MsgID_JS_UnsupportedDynamicImport

	// Bundler
	MsgID_Bundler_EmptyGlob

	MsgID_END // Keep this at the end (used only for tests)
)

func MsgIDToString(id MsgID) string {
	switch id {
	case MsgID_JS_UnsupportedDynamicImport:
		return "unsupported-dynamic-import"

	case MsgID_Bundler_EmptyGlob:
		return "empty-glob"
	}

	return ""
}
