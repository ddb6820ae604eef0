// Package eventtype maps the stats server's numeric event codes to the
// categories the possession tracker acts on.
//
// The table is closed: a code with no entry is an error, never a silent
// fallthrough to a regular event.
package eventtype

import (
	"errors"
	"fmt"
)

// Code is the provider's integer event type (the `t` field).
type Code int

// --------------------------------------------------------------------------
// Provider event codes
// --------------------------------------------------------------------------

const (
	StartDPoint         Code = 1
	StartOPoint         Code = 2
	PullInbounds        Code = 3
	PullOutOfBounds     Code = 4
	Block               Code = 5
	CallahanCaught      Code = 6
	ThrowawayCaused     Code = 7
	StallCaused         Code = 8
	ScoreByOpponent     Code = 9
	PenaltyOnOpponent   Code = 10
	PenaltyOnTeam       Code = 11
	OffsidesOnOpponent  Code = 12
	Throwaway           Code = 13
	CallahanThrown      Code = 14
	Drop                Code = 15
	Stall               Code = 16
	OffsidesOnTeam      Code = 17
	Pass                Code = 18
	Score               Code = 19
	Timeout             Code = 20
	EndOfFirstQuarter   Code = 21
	Halftime            Code = 22
	EndOfThirdQuarter   Code = 23
	EndOfRegulation     Code = 24
	EndOfFirstOvertime  Code = 25
	EndOfSecondOvertime Code = 26
	InjuryTimeout       Code = 27
	OffenseSubstitution Code = 28
	DefenseSubstitution Code = 29
)

// Kind is the behavioural class of an event.
type Kind int

const (
	KindRegular Kind = iota
	KindPossessionStart
	KindSubstitution
	KindPeriodEnd
	KindPossessionChanging
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindPossessionStart:
		return "possession_start"
	case KindSubstitution:
		return "substitution"
	case KindPeriodEnd:
		return "period_end"
	case KindPossessionChanging:
		return "possession_changing"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Role is the line's role for a possession start. Only meaningful when the
// category kind is KindPossessionStart.
type Role int

const (
	RoleNone Role = iota
	RoleOffense
	RoleDefense
)

func (r Role) String() string {
	switch r {
	case RoleOffense:
		return "offense"
	case RoleDefense:
		return "defense"
	default:
		return "none"
	}
}

// Category is the classified form of an event code.
type Category struct {
	Kind Kind
	Role Role
}

// IsPossessionStart reports whether the category opens a point for a team.
func (c Category) IsPossessionStart() bool {
	return c.Kind == KindPossessionStart
}

// IsLine reports whether the category carries a player list (line or
// substitution) instead of producing a domain event.
func (c Category) IsLine() bool {
	return c.Kind == KindPossessionStart || c.Kind == KindSubstitution
}

func (c Category) String() string {
	if c.Kind == KindPossessionStart {
		return c.Kind.String() + "(" + c.Role.String() + ")"
	}
	return c.Kind.String()
}

var (
	possessionStartOffense = Category{Kind: KindPossessionStart, Role: RoleOffense}
	possessionStartDefense = Category{Kind: KindPossessionStart, Role: RoleDefense}
	substitution           = Category{Kind: KindSubstitution}
	periodEnd              = Category{Kind: KindPeriodEnd}
	possessionChanging     = Category{Kind: KindPossessionChanging}
	regular                = Category{Kind: KindRegular}
)

type entry struct {
	name     string
	category Category
}

// Events recorded from the defending team's perspective (block, throwaway
// caused, score by opponent, callahan caught) are regular: the matching
// turnover in the other stream has already passed control over.
var table = map[Code]entry{
	StartDPoint:         {"Start D Point", possessionStartDefense},
	StartOPoint:         {"Start O Point", possessionStartOffense},
	PullInbounds:        {"Pull", possessionChanging},
	PullOutOfBounds:     {"Pull Out Of Bounds", possessionChanging},
	Block:               {"Block", regular},
	CallahanCaught:      {"Callahan", regular},
	ThrowawayCaused:     {"Throwaway Caused", regular},
	StallCaused:         {"Stall Caused", regular},
	ScoreByOpponent:     {"Score By Opponent", regular},
	PenaltyOnOpponent:   {"Penalty On Opponent", regular},
	PenaltyOnTeam:       {"Penalty On Team", regular},
	OffsidesOnOpponent:  {"Offsides On Opponent", regular},
	Throwaway:           {"Throwaway", possessionChanging},
	CallahanThrown:      {"Callahan Thrown", possessionChanging},
	Drop:                {"Drop", possessionChanging},
	Stall:               {"Stall", possessionChanging},
	OffsidesOnTeam:      {"Offsides On Team", regular},
	Pass:                {"Pass", regular},
	Score:               {"Score", possessionChanging},
	Timeout:             {"Timeout", regular},
	EndOfFirstQuarter:   {"End Of First Quarter", periodEnd},
	Halftime:            {"Halftime", periodEnd},
	EndOfThirdQuarter:   {"End Of Third Quarter", periodEnd},
	EndOfRegulation:     {"End Of Regulation", periodEnd},
	EndOfFirstOvertime:  {"End Of First Overtime", periodEnd},
	EndOfSecondOvertime: {"End Of Second Overtime", periodEnd},
	InjuryTimeout:       {"Injury Timeout", regular},
	OffenseSubstitution: {"Offense Substitution", substitution},
	DefenseSubstitution: {"Defense Substitution", substitution},
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// ErrUnknownType matches any *UnknownTypeError via errors.Is.
var ErrUnknownType = errors.New("unknown event type")

// UnknownTypeError reports a code with no entry in the table.
type UnknownTypeError struct {
	Code int
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown event type %d", e.Code)
}

// Is lets errors.Is match ErrUnknownType.
func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownType
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// Classify returns the category for a raw event code.
func Classify(code int) (Category, error) {
	e, ok := table[Code(code)]
	if !ok {
		return Category{}, &UnknownTypeError{Code: code}
	}
	return e.category, nil
}

// String returns the provider's display name for the code, or "Unknown(n)".
func (c Code) String() string {
	if e, ok := table[c]; ok {
		return e.name
	}
	return fmt.Sprintf("Unknown(%d)", int(c))
}
