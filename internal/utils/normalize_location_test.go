package utils

import (
	"testing"
)

func TestNormalizeDistrict(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "city prefix",
			input:    "市東區",
			expected: "東區",
		},
		{
			name:     "full city name",
			input:    "臺南市安南區",
			expected: "安南區",
		},
		{
			name:     "simplified tai variant",
			input:    "台南市安南區",
			expected: "安南區",
		},
		{
			name:     "already normalized",
			input:    "永康區",
			expected: "永康區",
		},
		{
			name:     "surrounding whitespace",
			input:    "  新化區 ",
			expected: "新化區",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeDistrict(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeDistrict(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeLocation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "irregular spacing",
			input:    "中山路  x  中正路口",
			expected: "中山路 x 中正路口",
		},
		{
			name:     "full-width spaces",
			input:    "中山路　x　中正路口",
			expected: "中山路 x 中正路口",
		},
		{
			name:     "leading and trailing whitespace",
			input:    "  金華路三段  ",
			expected: "金華路三段",
		},
		{
			name:     "already normalized",
			input:    "安中路一段",
			expected: "安中路一段",
		},
		{
			name:     "blank",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeLocation(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeLocation(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
