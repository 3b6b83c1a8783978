package validation

import "testing"

func TestValidateDateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		date    string
		wantErr bool
	}{
		{"valid", "2024-03-11", false},
		{"leap day", "2024-02-29", false},
		{"empty", "", true},
		{"wrong format", "11-03-2024", true},
		{"not a date", "2024-13-40", true},
		{"trailing garbage", "2024-03-11T00:00:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateDateString(tt.date)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDateString(%q) error = %v, wantErr %v", tt.date, err, tt.wantErr)
			}
		})
	}
}

func TestValidateWeekday(t *testing.T) {
	t.Parallel()

	for _, day := range []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"} {
		if err := ValidateWeekday(day); err != nil {
			t.Errorf("ValidateWeekday(%q) = %v, want nil", day, err)
		}
	}
	for _, day := range []string{"", "Monday", "funday", "mon"} {
		if err := ValidateWeekday(day); err == nil {
			t.Errorf("ValidateWeekday(%q) = nil, want error", day)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  deep work  ", "deep work"},
		{"strips control chars", "run\x00fast", "runfast"},
		{"keeps unicode", "café ☕", "café ☕"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestClockTag(t *testing.T) {
	t.Parallel()

	type payload struct {
		Start string `validate:"clock"`
	}

	for _, clock := range []string{"00:00", "09:30", "23:59"} {
		if err := Validate.Struct(payload{Start: clock}); err != nil {
			t.Errorf("clock %q rejected: %v", clock, err)
		}
	}
	for _, clock := range []string{"24:00", "abc", "12:60", "-1:30"} {
		if err := Validate.Struct(payload{Start: clock}); err == nil {
			t.Errorf("clock %q accepted, want error", clock)
		}
	}
}
