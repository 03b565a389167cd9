package similarity

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"TCP handshake", []string{"tcp", "handshake"}},
		{"area-0_design", []string{"area", "0_design"}},
		{"  spaced   out  ", []string{"spaced", "out"}},
		{"", []string{}},
		{"!!!", []string{}},
	}
	for _, tt := range tests {
		if got := Tokenize(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSignificantTokens(t *testing.T) {
	got := SignificantTokens("the law of large numbers")
	want := []string{"law", "large", "numbers"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SignificantTokens = %v, want %v", got, want)
	}
}

func TestSharedSignificantTokens(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"BGP path selection", "OSPF path selection", 2},
		{"TCP handshake", "DNS resolution", 0},
		{"the TCP handshake", "TCP handshake of doom", 2},
		{"congestion control", "congestion congestion control", 2},
	}
	for _, tt := range tests {
		if got := SharedSignificantTokens(tt.a, tt.b); got != tt.want {
			t.Errorf("SharedSignificantTokens(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestConceptsRelated(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"subnetting basics", "subnetting advanced", true}, // shared 5-char prefix
		{"BGP path selection", "OSPF path selection", true},
		{"TCP handshake", "DNS resolution", false},
		{"", "anything", false},
		{"same", "same", true},
	}
	for _, tt := range tests {
		if got := ConceptsRelated(tt.a, tt.b); got != tt.want {
			t.Errorf("ConceptsRelated(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
