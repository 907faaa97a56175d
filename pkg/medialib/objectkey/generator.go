package objectkey

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidKey indicates a key that is not a plain file name
var ErrInvalidKey = errors.New("invalid object key")

// Generator defines the interface for stored filename generation strategies.
//
// Implementations must never embed the client supplied name; only its
// extension may be carried over.
type Generator interface {
	GenerateKey(fileID uuid.UUID, originalFilename string) string
}

// FlatGenerator produces "<id>.<ext>", or "<id>" when the original name has no extension.
type FlatGenerator struct{}

func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{}
}

func (g *FlatGenerator) GenerateKey(fileID uuid.UUID, originalFilename string) string {
	return withExtension(fileID.String(), Extension(originalFilename))
}

// PrefixedGenerator produces "<prefix>-<id>.<ext>". Useful when several
// applications share one content directory.
type PrefixedGenerator struct {
	Prefix string
}

func NewPrefixedGenerator(prefix string) *PrefixedGenerator {
	return &PrefixedGenerator{Prefix: sanitizeComponent(prefix)}
}

func (g *PrefixedGenerator) GenerateKey(fileID uuid.UUID, originalFilename string) string {
	base := fileID.String()
	if g.Prefix != "" {
		base = fmt.Sprintf("%s-%s", g.Prefix, base)
	}
	return withExtension(base, Extension(originalFilename))
}

// CustomFuncGenerator allows users to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(fileID uuid.UUID, originalFilename string) string
}

func NewCustomFuncGenerator(fn func(fileID uuid.UUID, originalFilename string) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{
		GenerateFunc: fn,
	}
}

func (g *CustomFuncGenerator) GenerateKey(fileID uuid.UUID, originalFilename string) string {
	return g.GenerateFunc(fileID, originalFilename)
}

// Extension returns the last dot-separated segment of the base name of
// originalFilename, or "" when there is none. Directory components are
// ignored so a client name can never smuggle a path into the stored key.
func Extension(originalFilename string) string {
	name := originalFilename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return sanitizeComponent(name[i+1:])
}

// ValidateKey rejects anything that is not a single plain file name.
func ValidateKey(key string) error {
	switch {
	case key == "", key == ".", key == "..":
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	case strings.ContainsAny(key, "/\\\x00"):
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func withExtension(base, ext string) string {
	if ext == "" {
		return base
	}
	return base + "." + ext
}

func sanitizeComponent(component string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
		"\x00", "",
	)
	return replacer.Replace(component)
}
