package ir

import (
	"golang.org/x/text/unicode/norm"
)

// NormalizeText returns s in Unicode NFC.
//
// Text enters the log NFC normalized so that visually identical content typed
// through different input methods produces identical bytes.
func NormalizeText(s string) string {
	return norm.NFC.String(s)
}

// Normalized returns a copy of p with type, content and properties NFC normalized.
func (p CreatePayload) Normalized() CreatePayload {
	p.Type = NormalizeText(p.Type)
	if p.InitialContent != nil {
		p.InitialContent = StringRef(NormalizeText(*p.InitialContent))
	}
	p.Properties = normalizeProperties(p.Properties)
	return p
}

// Normalized returns a copy of p with content and properties NFC normalized.
func (p EditPayload) Normalized() EditPayload {
	if p.Content != nil {
		p.Content = StringRef(NormalizeText(*p.Content))
	}
	p.Properties = normalizeProperties(p.Properties)
	return p
}

// normalizeProperties returns a normalized copy. Keys that collide after
// normalization keep the value of the lexically greatest original key, so the
// result does not depend on map iteration order.
func normalizeProperties(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	winner := make(map[string]string, len(m))
	for k, v := range m {
		nk := NormalizeText(k)
		if prev, ok := winner[nk]; ok && prev > k {
			continue
		}
		winner[nk] = k
		out[nk] = NormalizeText(v)
	}
	return out
}
