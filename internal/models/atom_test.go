package models

import (
	"testing"
	"time"
)

func TestGroupKey(t *testing.T) {
	tests := []struct {
		name string
		atom Atom
		want string
	}{
		{"concept wins", Atom{Concept: "TCP handshake", Module: "transport"}, "TCP handshake"},
		{"module fallback", Atom{Module: "transport"}, "transport"},
		{"both empty", Atom{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.atom.GroupKey(); got != tt.want {
				t.Errorf("GroupKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActiveContextIsZero(t *testing.T) {
	if !(ActiveContext{}).IsZero() {
		t.Error("empty context should be zero")
	}
	// UpdatedAt alone does not make a context active.
	if !(ActiveContext{UpdatedAt: time.Now()}).IsZero() {
		t.Error("timestamp-only context should be zero")
	}
	cases := []ActiveContext{
		{Course: "CS-201"},
		{Concepts: []string{"TCP handshake"}},
		{Keywords: []string{"routing"}},
	}
	for _, c := range cases {
		if c.IsZero() {
			t.Errorf("context %+v should not be zero", c)
		}
	}
}
