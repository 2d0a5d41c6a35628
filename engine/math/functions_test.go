package math

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 1, 10); got != 5 {
		t.Fatalf("Clamp(5,1,10) = %d", got)
	}
	if got := Clamp(0, 1, 10); got != 1 {
		t.Fatalf("Clamp(0,1,10) = %d", got)
	}
	if got := Clamp(11, 1, 10); got != 10 {
		t.Fatalf("Clamp(11,1,10) = %d", got)
	}
	if got := Clamp(uint32(9000), 1, 4096); got != 4096 {
		t.Fatalf("Clamp(9000,1,4096) = %d", got)
	}
	if got := Clamp(1.5, 0.0, 1.0); got != 1.0 {
		t.Fatalf("Clamp(1.5,0,1) = %v", got)
	}
}
