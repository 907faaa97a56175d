package medialib

import (
	"mime"
	"path"
)

// ResolveContentType guesses a MIME type from the filename extension,
// falling back to DefaultContentType.
func ResolveContentType(filename string) string {
	ext := path.Ext(filename)
	if ext == "" {
		return DefaultContentType
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return DefaultContentType
}
