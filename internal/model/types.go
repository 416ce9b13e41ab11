package model

import (
	"strconv"
	"strings"
)

// TypeKind is the engine-agnostic family a native column type is mapped into
type TypeKind string

const (
	KindInteger   TypeKind = "integer"
	KindDecimal   TypeKind = "decimal"
	KindFloat     TypeKind = "float"
	KindText      TypeKind = "text"
	KindBoolean   TypeKind = "boolean"
	KindDate      TypeKind = "date"
	KindTime      TypeKind = "time"
	KindTimestamp TypeKind = "timestamp"
	KindInterval  TypeKind = "interval"
	KindBinary    TypeKind = "binary"
	KindUUID      TypeKind = "uuid"
	KindJSON      TypeKind = "json"
	KindUnknown   TypeKind = "unknown"
)

// SemanticType describes a column type independently of the engine that reported it.
// Zero-valued size fields mean "not applicable" or "unbounded" depending on the kind.
type SemanticType struct {
	Kind TypeKind `json:"kind" yaml:"kind"`

	// Bits is the storage width for integer and float kinds
	Bits     int  `json:"bits,omitempty" yaml:"bits,omitempty"`
	Unsigned bool `json:"unsigned,omitempty" yaml:"unsigned,omitempty"`

	// Precision and Scale apply to decimal; Precision also carries fractional seconds for time kinds
	Precision int `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale     int `json:"scale,omitempty" yaml:"scale,omitempty"`

	// Length applies to text and binary; 0 is unbounded
	Length int  `json:"length,omitempty" yaml:"length,omitempty"`
	Fixed  bool `json:"fixed,omitempty" yaml:"fixed,omitempty"`

	// TimeZone marks time and timestamp kinds that carry an offset
	TimeZone bool `json:"timeZone,omitempty" yaml:"timeZone,omitempty"`

	// Variant separates native types that share a kind but are not equivalent (jsonb, enum, xml)
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty"`

	// Native is the type text exactly as the engine reported it
	Native string `json:"native" yaml:"native"`
}

// Unknown builds the semantic type for a native type name the mapping tables do not cover
func Unknown(raw string) SemanticType {
	return SemanticType{Kind: KindUnknown, Native: raw}
}

// IsUnknown reports whether the type could not be mapped
func (t SemanticType) IsUnknown() bool {
	return t.Kind == KindUnknown
}

// Describe renders a human-readable descriptor such as "decimal(10,2)" or "unknown(geometry)".
// Distinct semantic types always produce distinct descriptors.
func (t SemanticType) Describe() string {
	var b strings.Builder
	b.WriteString(string(t.Kind))

	switch t.Kind {
	case KindUnknown:
		return "unknown(" + t.Native + ")"
	case KindInteger, KindFloat:
		if t.Bits > 0 {
			b.WriteString("(" + strconv.Itoa(t.Bits) + ")")
		}
		if t.Unsigned {
			b.WriteString(" unsigned")
		}
	case KindDecimal:
		if t.Precision > 0 {
			b.WriteString("(" + strconv.Itoa(t.Precision) + "," + strconv.Itoa(t.Scale) + ")")
		}
	case KindText, KindBinary:
		if t.Length > 0 {
			b.WriteString("(" + strconv.Itoa(t.Length) + ")")
		} else {
			b.WriteString("(unbounded)")
		}
		if t.Fixed {
			b.WriteString(" fixed")
		}
	case KindTime, KindTimestamp:
		if t.Precision > 0 {
			b.WriteString("(" + strconv.Itoa(t.Precision) + ")")
		}
		if t.TimeZone {
			b.WriteString(" with time zone")
		}
	}

	if t.Variant != "" {
		b.WriteString(" [" + t.Variant + "]")
	}
	return b.String()
}

// String implements fmt.Stringer
func (t SemanticType) String() string {
	return t.Describe()
}
