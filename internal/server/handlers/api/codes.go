package api

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeNotFound       = "E_NOT_FOUND"       // route not found

	// File errors
	CodeFileNotFound      = "E_FILE_NOT_FOUND"      // the named file does not exist locally.
	CodeFileExists        = "E_FILE_EXISTS"         // a file with that name already exists.
	CodeFileInvalidName   = "E_FILE_INVALID_NAME"   // the name is empty after sanitization or unsafe.
	CodeFileTypeForbidden = "E_FILE_TYPE_FORBIDDEN" // the extension is not on the allow-list.
	CodeFileTooLarge      = "E_FILE_TOO_LARGE"      // the payload exceeds the size policy.
	CodeFileNoUpload      = "E_FILE_NO_UPLOAD"      // the multipart form carried no file.

	// Remote store errors
	CodeRemoteNotConfigured = "E_REMOTE_NOT_CONFIGURED" // remote credentials are missing.
	CodeRemoteFailed        = "E_REMOTE_FAILED"         // the remote store answered with a fault.

	// Conversion errors
	CodeUnsupportedFormat = "E_UNSUPPORTED_FORMAT" // the conversion target is not supported.
)
