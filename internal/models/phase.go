package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Phase is the lifecycle state of a round.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseCountdown
	PhaseLocked
	PhaseFinished
)

// String returns the wire name of the phase. Locked is presented as "spinning".
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseCountdown:
		return "countdown"
	case PhaseLocked:
		return "spinning"
	case PhaseFinished:
		return "finished"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// AcceptsBets reports whether bets may be placed in this phase.
func (p Phase) AcceptsBets() bool {
	switch p {
	case PhaseWaiting, PhaseCountdown:
		return true
	case PhaseLocked, PhaseFinished:
		return false
	}
	return false
}

// ParsePhase is the inverse of Phase.String.
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "waiting":
		return PhaseWaiting, nil
	case "countdown":
		return PhaseCountdown, nil
	case "spinning", "locked":
		return PhaseLocked, nil
	case "finished":
		return PhaseFinished, nil
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	parsed, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Phase) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(p.String())
}

func (p *Phase) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var s string
	if err := bson.UnmarshalValue(t, data, &s); err != nil {
		return err
	}
	return p.UnmarshalText([]byte(s))
}
