package eventtype

import (
	"errors"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		code int
		want Category
	}{
		{int(StartDPoint), Category{Kind: KindPossessionStart, Role: RoleDefense}},
		{int(StartOPoint), Category{Kind: KindPossessionStart, Role: RoleOffense}},
		{int(PullInbounds), Category{Kind: KindPossessionChanging}},
		{int(Pass), Category{Kind: KindRegular}},
		{int(Score), Category{Kind: KindPossessionChanging}},
		{int(ScoreByOpponent), Category{Kind: KindRegular}},
		{int(Throwaway), Category{Kind: KindPossessionChanging}},
		{int(Block), Category{Kind: KindRegular}},
		{int(Halftime), Category{Kind: KindPeriodEnd}},
		{int(EndOfRegulation), Category{Kind: KindPeriodEnd}},
		{int(OffenseSubstitution), Category{Kind: KindSubstitution}},
		{int(DefenseSubstitution), Category{Kind: KindSubstitution}},
	}

	for _, tt := range tests {
		t.Run(Code(tt.code).String(), func(t *testing.T) {
			got, err := Classify(tt.code)
			if err != nil {
				t.Fatalf("Classify(%d) error: %v", tt.code, err)
			}
			if got != tt.want {
				t.Errorf("Classify(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestClassifyUnknown(t *testing.T) {
	for _, code := range []int{0, -1, 30, 99, 1000} {
		_, err := Classify(code)
		if err == nil {
			t.Fatalf("Classify(%d) expected error", code)
		}
		if !errors.Is(err, ErrUnknownType) {
			t.Errorf("Classify(%d) error %v does not match ErrUnknownType", code, err)
		}
		var ute *UnknownTypeError
		if !errors.As(err, &ute) || ute.Code != code {
			t.Errorf("Classify(%d) error = %#v, want UnknownTypeError{Code: %d}", code, err, code)
		}
	}
}

func TestCodesAreTotal(t *testing.T) {
	for c := range table {
		if _, err := Classify(int(c)); err != nil {
			t.Errorf("Classify(%d) error: %v", c, err)
		}
		if strings.HasPrefix(c.String(), "Unknown(") {
			t.Errorf("Code(%d) has no display name", c)
		}
	}
	if got := Code(99).String(); got != "Unknown(99)" {
		t.Errorf("Code(99).String() = %q", got)
	}
}

func TestCategoryHelpers(t *testing.T) {
	start, _ := Classify(int(StartOPoint))
	sub, _ := Classify(int(OffenseSubstitution))
	pass, _ := Classify(int(Pass))

	if !start.IsPossessionStart() || !start.IsLine() {
		t.Errorf("StartOPoint: IsPossessionStart=%v IsLine=%v", start.IsPossessionStart(), start.IsLine())
	}
	if sub.IsPossessionStart() || !sub.IsLine() {
		t.Errorf("Substitution: IsPossessionStart=%v IsLine=%v", sub.IsPossessionStart(), sub.IsLine())
	}
	if pass.IsPossessionStart() || pass.IsLine() {
		t.Errorf("Pass: IsPossessionStart=%v IsLine=%v", pass.IsPossessionStart(), pass.IsLine())
	}
	if got := start.String(); got != "possession_start(offense)" {
		t.Errorf("String() = %q", got)
	}
	if got := Code(77).String(); got != "Unknown(77)" {
		t.Errorf("Code(77).String() = %q", got)
	}
}
