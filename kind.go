package herdline

import "fmt"

// Kind identifies a report category. The set is closed: every report lives
// in exactly one of these five tables.
type Kind string

const (
	KindCasualty Kind = "Casualty"
	KindDonation Kind = "Donation"
	KindFlocking Kind = "Flocking"
	KindGarbage  Kind = "Garbage"
	KindAdoption Kind = "Adoption"
)

// Kinds returns all report kinds in their canonical order.
func Kinds() []Kind {
	return []Kind{KindCasualty, KindDonation, KindFlocking, KindGarbage, KindAdoption}
}

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCasualty, KindDonation, KindFlocking, KindGarbage, KindAdoption:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown report kind: %s", s)
}

func (k Kind) String() string {
	return string(k)
}
