package models

import (
	"strings"
	"testing"
)

func TestValidateCommentText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr error
	}{
		{"plain text", "nice count!", "nice count!", nil},
		{"trims whitespace", "  well done \n", "well done", nil},
		{"empty", "", "", ErrCommentEmpty},
		{"whitespace only", " \t\n ", "", ErrCommentEmpty},
		{"exactly 256 runes", strings.Repeat("a", 256), strings.Repeat("a", 256), nil},
		{"257 runes", strings.Repeat("a", 257), "", ErrCommentTooLong},
		{"256 emoji count as runes not bytes", strings.Repeat("🎉", 256), strings.Repeat("🎉", 256), nil},
		{"257 emoji", strings.Repeat("🎉", 257), "", ErrCommentTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateCommentText(tt.text)
			if err != tt.wantErr {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("trimmed = %q, want %q", got, tt.want)
			}
		})
	}
}
