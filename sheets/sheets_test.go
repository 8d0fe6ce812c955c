package sheets

import (
	"reflect"
	"testing"
)

func TestExtractEmails(t *testing.T) {
	tests := []struct {
		name   string
		values [][]interface{}
		want   []string
	}{
		{
			name: "basic roster",
			values: [][]interface{}{
				{"Name", "Email"},
				{"Alice", "alice@example.com"},
				{"Bob", "bob@example.com"},
			},
			want: []string{"alice@example.com", "bob@example.com"},
		},
		{
			name: "whitespace and case normalized",
			values: [][]interface{}{
				{"Email"},
				{"  Alice@Example.COM  "},
			},
			want: []string{"alice@example.com"},
		},
		{
			name: "rows without an at sign dropped",
			values: [][]interface{}{
				{"Email"},
				{"not-an-address"},
				{"ok@example.com"},
				{""},
			},
			want: []string{"ok@example.com"},
		},
		{
			name: "email column found by header not position",
			values: [][]interface{}{
				{"Joined", "Notes", "email"},
				{"2024-01-02", "vip", "c@example.com"},
			},
			want: []string{"c@example.com"},
		},
		{
			name: "short rows skipped",
			values: [][]interface{}{
				{"Name", "Email"},
				{"row-with-no-email-cell"},
				{"Dana", "dana@example.com"},
			},
			want: []string{"dana@example.com"},
		},
		{
			name: "no email header yields nothing",
			values: [][]interface{}{
				{"Name", "Phone"},
				{"Alice", "555-0100"},
			},
			want: nil,
		},
		{
			name: "numeric cells are not addresses",
			values: [][]interface{}{
				{"Email"},
				{3.14},
			},
			want: nil,
		},
		{
			name:   "empty sheet",
			values: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractEmails(tt.values)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("extractEmails() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"User@Example.com", "user@example.com"},
		{"  padded@example.com\t", "padded@example.com"},
		{"already@example.com", "already@example.com"},
	}

	for _, tt := range tests {
		if got := normalizeEmail(tt.in); got != tt.want {
			t.Errorf("normalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
