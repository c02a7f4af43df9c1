package event

import "testing"

func TestPhaseOf(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"named", "render_world", "render_world"},
		{"empty is default", "", "default"},
		{"explicit default", "default", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PhaseOf(tt.in).Name(); got != tt.want {
				t.Errorf("PhaseOf(%q).Name() = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPhase_Equality(t *testing.T) {
	if PhaseOf("pre") != PhasePre {
		t.Error("PhaseOf(\"pre\") != PhasePre")
	}
	if PhaseOf("") != PhaseDefault {
		t.Error("PhaseOf(\"\") != PhaseDefault")
	}
	if PhaseOf("pre") == PhasePost {
		t.Error("PhasePre == PhasePost")
	}

	m := map[Phase]int{PhaseOf("join_initialized"): 1}
	if m[PhaseOf("join_initialized")] != 1 {
		t.Error("independently built phases do not share a map key")
	}
}

func TestPhase_ZeroValue(t *testing.T) {
	var zero Phase
	if zero.Name() != "default" {
		t.Errorf("zero Phase Name() = %q, want %q", zero.Name(), "default")
	}
	if zero != PhaseDefault {
		t.Error("zero Phase != PhaseDefault")
	}
	if PhaseOf("default") != zero {
		t.Error("PhaseOf(\"default\") != zero Phase")
	}
	m := map[Phase]int{PhaseDefault: 1}
	if m[zero] != 1 {
		t.Error("zero Phase does not share PhaseDefault's map key")
	}
	if zero.String() != "default" {
		t.Errorf("String() = %q", zero.String())
	}
}
