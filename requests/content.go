package requests

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
)

// Built-in content types
const (
	TextContent   = "text"
	Base64Content = "base64"
	HexContent    = "hex"
	LinesContent  = "lines"
)

// DefaultContentType is used when an entry's content has no type
const DefaultContentType = TextContent

// ContentDecoder turns the value of a seed entry's content into file bytes
type ContentDecoder interface {
	Decode(value string) ([]byte, error)
}

// ContentDecoderFunc adapts a plain function to [ContentDecoder]
type ContentDecoderFunc func(value string) ([]byte, error)

func (f ContentDecoderFunc) Decode(value string) ([]byte, error) { return f(value) }

// Registry maps content type names to decoders
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]ContentDecoder
}

// NewRegistry creates an empty registry. Use [NewBuiltinRegistry] for one
// that already knows the built-in types.
func NewRegistry() *Registry {
	return &Registry{decoders: map[string]ContentDecoder{}}
}

func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	r.Register(TextContent, ContentDecoderFunc(decodeText))
	r.Register(Base64Content, ContentDecoderFunc(base64.StdEncoding.DecodeString))
	r.Register(HexContent, ContentDecoderFunc(hex.DecodeString))
	r.Register(LinesContent, ContentDecoderFunc(decodeLines))
	r.Register(HTTPContent, NewHTTPDecoder(nil))
	return r
}

// Register ties a decoder to a content type. The first registration of a
// type wins; later ones are ignored.
func (r *Registry) Register(contentType string, d ContentDecoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.decoders[contentType]; ok {
		return
	}
	r.decoders[contentType] = d
}

func (r *Registry) Decoder(contentType string) (ContentDecoder, error) {
	r.mu.RLock()
	d, ok := r.decoders[contentType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no decoder for content type %q", contentType)
	}
	return d, nil
}

// Decode picks the decoder for c.Type and applies it to c.Value. A nil
// content decodes to an empty file.
func (r *Registry) Decode(c *ContentDTO) ([]byte, error) {
	if c == nil {
		return []byte{}, nil
	}
	contentType := c.Type
	if contentType == "" {
		contentType = DefaultContentType
	}
	d, err := r.Decoder(contentType)
	if err != nil {
		return nil, err
	}
	data, err := d.Decode(c.Value)
	if err != nil {
		return nil, fmt.Errorf("decode %s content: %w", contentType, err)
	}
	return data, nil
}

var defaultRegistry = NewBuiltinRegistry()

// RegisterContentType adds a decoder to the registry used by [LoadFile] and
// [UnmarshalEntries]. It should be called during app init.
func RegisterContentType(contentType string, d ContentDecoder) {
	defaultRegistry.Register(contentType, d)
}

func decodeText(value string) ([]byte, error) {
	return []byte(value), nil
}

// decodeLines normalizes every line break to "\n" and terminates the last
// line
func decodeLines(value string) ([]byte, error) {
	if value == "" {
		return []byte{}, nil
	}
	value = strings.ReplaceAll(value, "\r\n", "\n")
	value = strings.ReplaceAll(value, "\r", "\n")
	if !strings.HasSuffix(value, "\n") {
		value += "\n"
	}
	return []byte(value), nil
}
