package provider

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestExtractInts(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int
		wantErr bool
	}{
		{"array", `[1, 340, 612]`, []int{1, 340, 612}, false},
		{"encoded string", `"[1, 340, 612]"`, []int{1, 340, 612}, false},
		{"numeric strings", `["1", "45"]`, []int{1, 45}, false},
		{"whole floats", `[1.0, 2.0]`, []int{1, 2}, false},
		{"null", `null`, nil, false},
		{"empty string", `""`, nil, false},
		{"empty array", `[]`, []int{}, false},
		{"fractional", `[1.5]`, nil, true},
		{"object", `{"a": 1}`, nil, true},
		{"bad element", `[1, "x"]`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractInts(json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractInts(%s) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractInts(%s) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestExtractInt(t *testing.T) {
	tests := []struct {
		val    interface{}
		want   int
		wantOK bool
	}{
		{float64(7), 7, true},
		{7, 7, true},
		{int64(9), 9, true},
		{"12", 12, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}

	for _, tt := range tests {
		got, ok := ExtractInt(tt.val)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ExtractInt(%v) = (%d, %v), want (%d, %v)", tt.val, got, ok, tt.want, tt.wantOK)
		}
	}
}
