package config

import (
	"testing"
	"time"
)

func TestValidatorRequireNonEmpty(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{
			name:      "non-empty value",
			value:     "valid",
			wantError: false,
		},
		{
			name:      "empty value",
			value:     "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.RequireNonEmpty("test_field", tt.value)
			hasError := v.HasErrors()
			if hasError != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v", hasError, tt.wantError)
			}
		})
	}
}

func TestValidatorRequirePositiveDuration(t *testing.T) {
	tests := []struct {
		name      string
		value     time.Duration
		wantError bool
	}{
		{
			name:      "positive duration",
			value:     3 * time.Second,
			wantError: false,
		},
		{
			name:      "zero duration",
			value:     0,
			wantError: true,
		},
		{
			name:      "negative duration",
			value:     -time.Second,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.RequirePositiveDuration("test_field", tt.value)
			hasError := v.HasErrors()
			if hasError != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v", hasError, tt.wantError)
			}
		})
	}
}

func TestValidatorValidateRange(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		min       int
		max       int
		wantError bool
	}{
		{
			name:      "value in range",
			value:     4,
			min:       1,
			max:       64,
			wantError: false,
		},
		{
			name:      "value below minimum",
			value:     0,
			min:       1,
			max:       64,
			wantError: true,
		},
		{
			name:      "value above maximum",
			value:     65,
			min:       1,
			max:       64,
			wantError: true,
		},
		{
			name:      "value at minimum boundary",
			value:     1,
			min:       1,
			max:       64,
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			v.ValidateRange("test_field", tt.value, tt.min, tt.max)
			hasError := v.HasErrors()
			if hasError != tt.wantError {
				t.Errorf("HasErrors() = %v, want %v", hasError, tt.wantError)
			}
		})
	}
}

func TestValidatorAggregatesErrors(t *testing.T) {
	v := NewValidator()
	v.RequireNonEmpty("a", "")
	v.RequirePositive("b", -1)

	if got := len(v.Errors()); got != 2 {
		t.Fatalf("Errors() length = %d, want 2", got)
	}
	if v.Error() == nil {
		t.Error("Error() = nil, want aggregated error")
	}
}
