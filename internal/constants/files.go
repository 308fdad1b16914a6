package constants

import "os"

// File Permissions
const (
	DirPermissions        os.FileMode = 0755
	FilePermissions       os.FileMode = 0644
	SecretFilePermissions os.FileMode = 0600
)

// Form Field Names (multipart uploads)
const (
	FormFieldFile = "file"
)

// Filename Sanitization
const (
	MaxFilenameLength       = 128
	UploadPrefixBytes       = 4 // 8 hex chars
	FilenameReplacementChar = "_"
	DefaultUploadName       = "upload"
)

// File operations
const (
	DefaultMaxUploadBytes = 64 << 20
	MaxReadFileBytes      = 4 << 20
	MaxListEntries        = 5000
)
