package ir

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/notelog/internal/codec"
)

// CreatePayload describes a new annotation.
type CreatePayload struct {
	// Type is the annotation kind, e.g. "pen", "text", "arrow".
	Type string

	// Bounds is the initial bounding rectangle.
	Bounds Rect

	// InitialContent is optional text content.
	InitialContent *string

	// Properties is an optional string mapping. nil means absent.
	Properties map[string]string
}

// EditPayload carries the result of an editing session.
type EditPayload struct {
	Content    *string
	Properties map[string]string
}

// ResizePayload is one incremental resize step.
type ResizePayload struct {
	Width  float64
	Height float64
	Anchor ResizeAnchor
}

// StringRef returns a pointer to s, for optional payload fields.
func StringRef(s string) *string {
	return &s
}

func writeCreatePayload(e *codec.Encoder, p CreatePayload) {
	e.String("type", p.Type)
	writeRect(e, p.Bounds)
	codec.WriteOptional(e, p.InitialContent, stringWriter("initialContent"))
	writeProperties(e, p.Properties)
}

func readCreatePayload(d *codec.Decoder) (CreatePayload, error) {
	var p CreatePayload
	var err error
	if p.Type, err = d.String("type"); err != nil {
		return CreatePayload{}, err
	}
	if p.Bounds, err = readRect(d, "bounds"); err != nil {
		return CreatePayload{}, err
	}
	if p.InitialContent, err = codec.ReadOptional(d, "initialContent", readString); err != nil {
		return CreatePayload{}, err
	}
	if p.Properties, err = readProperties(d, "properties"); err != nil {
		return CreatePayload{}, err
	}
	return p, nil
}

func writeEditPayload(e *codec.Encoder, p EditPayload) {
	codec.WriteOptional(e, p.Content, stringWriter("content"))
	writeProperties(e, p.Properties)
}

func readEditPayload(d *codec.Decoder) (EditPayload, error) {
	var p EditPayload
	var err error
	if p.Content, err = codec.ReadOptional(d, "content", readString); err != nil {
		return EditPayload{}, err
	}
	if p.Properties, err = readProperties(d, "properties"); err != nil {
		return EditPayload{}, err
	}
	return p, nil
}

func writeResizePayload(e *codec.Encoder, p ResizePayload) {
	e.Float64(p.Width)
	e.Float64(p.Height)
	writeEnum(e, "anchor", p.Anchor)
}

func readResizePayload(d *codec.Decoder) (ResizePayload, error) {
	var p ResizePayload
	var err error
	if p.Width, err = d.Float64("width"); err != nil {
		return ResizePayload{}, err
	}
	if p.Height, err = d.Float64("height"); err != nil {
		return ResizePayload{}, err
	}
	if p.Anchor, err = readEnum(d, "anchor", ParseResizeAnchor); err != nil {
		return ResizePayload{}, err
	}
	return p, nil
}

func stringWriter(field string) func(*codec.Encoder, string) {
	return func(e *codec.Encoder, s string) { e.String(field, s) }
}

func readString(d *codec.Decoder) (string, error) {
	return d.String("value")
}

type property struct {
	key   string
	value string
}

// writeProperties writes an optional mapping as a sorted array of key/value
// pairs, so maps built in different insertion orders encode identically.
func writeProperties(e *codec.Encoder, m map[string]string) {
	if m == nil {
		e.Bool(false)
		return
	}
	e.Bool(true)
	pairs := make([]property, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		pairs = append(pairs, property{key: k, value: m[k]})
	}
	codec.WriteArray(e, pairs, func(e *codec.Encoder, p property) {
		e.String("properties.key", p.key)
		e.String("properties."+p.key, p.value)
	})
}

// readProperties rejects duplicate or out-of-order keys: only the canonical
// form is accepted, so decode followed by encode reproduces the input bytes.
func readProperties(d *codec.Decoder, field string) (map[string]string, error) {
	present, err := d.Bool(field + ".present")
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	pairs, err := codec.ReadArray(d, field, func(d *codec.Decoder, _ int) (property, error) {
		k, err := d.String("key")
		if err != nil {
			return property{}, err
		}
		v, err := d.String("value")
		if err != nil {
			return property{}, err
		}
		return property{key: k, value: v}, nil
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(pairs))
	for i, p := range pairs {
		if i > 0 && pairs[i-1].key >= p.key {
			return nil, &codec.DecodeError{
				Field:  fmt.Sprintf("%s[%d].key", field, i),
				Offset: d.Offset(),
				Err:    fmt.Errorf("%w: key %q out of canonical order", codec.ErrInvalidValue, p.key),
			}
		}
		out[p.key] = p.value
	}
	return out, nil
}

// EncodeCreatePayload returns the canonical encoding of p.
func EncodeCreatePayload(p CreatePayload) ([]byte, error) {
	e := codec.NewEncoder()
	writeCreatePayload(e, p)
	return e.Bytes()
}

// DecodeCreatePayload decodes a standalone create payload.
func DecodeCreatePayload(b []byte) (CreatePayload, error) {
	p, err := readCreatePayload(codec.NewDecoder(b))
	return p, codec.Within("payload", err)
}

// EncodeEditPayload returns the canonical encoding of p.
func EncodeEditPayload(p EditPayload) ([]byte, error) {
	e := codec.NewEncoder()
	writeEditPayload(e, p)
	return e.Bytes()
}

// DecodeEditPayload decodes a standalone edit payload.
func DecodeEditPayload(b []byte) (EditPayload, error) {
	p, err := readEditPayload(codec.NewDecoder(b))
	return p, codec.Within("payload", err)
}

// EncodeResizePayload returns the canonical encoding of p.
func EncodeResizePayload(p ResizePayload) ([]byte, error) {
	e := codec.NewEncoder()
	writeResizePayload(e, p)
	return e.Bytes()
}

// DecodeResizePayload decodes a standalone resize payload.
func DecodeResizePayload(b []byte) (ResizePayload, error) {
	p, err := readResizePayload(codec.NewDecoder(b))
	return p, codec.Within("payload", err)
}

// PayloadFor derives the opaque transition payload of an event: the
// canonical payload encoding for createAnnotation, commitEdit and
// resizeDelta, nil for every other variant.
func PayloadFor(ev Event) ([]byte, error) {
	switch v := ev.(type) {
	case CreateAnnotation:
		return EncodeCreatePayload(v.Payload)
	case CommitEdit:
		return EncodeEditPayload(v.Payload)
	case ResizeDelta:
		return EncodeResizePayload(v.Delta)
	default:
		return nil, nil
	}
}

// CheckPayload verifies that payload decodes as the payload kind produces.
// Event kinds without a structured payload accept any bytes.
func CheckPayload(kind EventKind, payload []byte) error {
	var err error
	switch kind {
	case KindCreateAnnotation:
		_, err = DecodeCreatePayload(payload)
	case KindCommitEdit:
		_, err = DecodeEditPayload(payload)
	case KindResizeDelta:
		_, err = DecodeResizePayload(payload)
	}
	return err
}
