package structure

import "fmt"

// Kind is one variant of the closed set of structure kinds.
type Kind uint8

const (
	Village Kind = iota
	Dungeon
	Stronghold
	Temple
	Mansion
	Monument
	Ruins
	CaveSystem
	EndCity

	kindCount
)

var kindNames = [kindCount]string{
	Village:    "village",
	Dungeon:    "dungeon",
	Stronghold: "stronghold",
	Temple:     "temple",
	Mansion:    "mansion",
	Monument:   "monument",
	Ruins:      "ruins",
	CaveSystem: "cave_system",
	EndCity:    "end_city",
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is a declared kind.
func (k Kind) Valid() bool {
	return k < kindCount
}

func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind converts a kind name such as "end_city" back into a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, &KindError{Name: s, Reason: "unknown structure kind"}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, &KindError{Kind: k, Reason: "unknown structure kind"}
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
