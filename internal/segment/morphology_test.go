package segment

import (
	"errors"
	"testing"
)

func mustEllipse(t *testing.T, w, h int) *StructuringElement {
	t.Helper()
	se, err := NewEllipse(w, h)
	if err != nil {
		t.Fatalf("NewEllipse(%d, %d) failed: %v", w, h, err)
	}
	return se
}

func TestDilate_SinglePixel(t *testing.T) {
	m := createMask(t,
		".....",
		".....",
		"..#..",
		".....",
		".....",
	)

	got := Dilate(m, mustEllipse(t, 3, 3))
	want := createMask(t,
		".....",
		"..#..",
		".###.",
		"..#..",
		".....",
	)
	for i := range want.Pix {
		if got.Pix[i] != want.Pix[i] {
			t.Fatalf("pixel (%d,%d): got %d, want %d", i%5, i/5, got.Pix[i], want.Pix[i])
		}
	}
}

func TestDilate_Square(t *testing.T) {
	m := NewMask(30, 30)
	for y := 5; y < 25; y++ {
		for x := 5; x < 25; x++ {
			m.Set(x, y, On)
		}
	}

	got := Dilate(m, mustEllipse(t, 3, 3))
	if n := got.Count(On); n != 480 {
		t.Errorf("On pixels: got %d, want 480", n)
	}
}

func TestErode_EdgeIgnored(t *testing.T) {
	m := createMask(t,
		"###.",
		"###.",
		"###.",
	)

	got := Erode(m, mustEllipse(t, 3, 3))
	// Only the right column of the block borders Off pixels.
	want := createMask(t,
		"##..",
		"##..",
		"##..",
	)
	for i := range want.Pix {
		if got.Pix[i] != want.Pix[i] {
			t.Fatalf("pixel (%d,%d): got %d, want %d", i%4, i/4, got.Pix[i], want.Pix[i])
		}
	}
}

func TestOpen_RemovesThinProtrusion(t *testing.T) {
	m := createMask(t,
		"..........",
		".#####....",
		".#####....",
		".########.",
		".#####....",
		".#####....",
		"..........",
	)

	got := Open(m, mustEllipse(t, 3, 3))
	if got.At(8, 3) != Off || got.At(7, 3) != Off {
		t.Error("one-pixel protrusion survived opening")
	}
	if got.At(3, 3) != On {
		t.Error("block interior was removed")
	}
}

func TestRefine_Inverts(t *testing.T) {
	tests := []struct {
		name string
		op   MorphOp
	}{
		{"open", MorphOpen},
		{"dilate", MorphDilate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMask(20, 20)
			for y := 5; y < 15; y++ {
				for x := 5; x < 15; x++ {
					m.Set(x, y, On)
				}
			}

			got, err := Refine(m, tt.op, mustEllipse(t, 3, 3))
			if err != nil {
				t.Fatalf("Refine failed: %v", err)
			}
			if got.At(10, 10) != Off {
				t.Error("object center should be Off after inversion")
			}
			if got.At(0, 0) != On {
				t.Error("background should be On after inversion")
			}
			if m.At(10, 10) != On {
				t.Error("input mask was modified")
			}
		})
	}
}

func TestRefine_UnsetOperation(t *testing.T) {
	_, err := Refine(NewMask(3, 3), "", mustEllipse(t, 3, 3))
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("error: got %v, want ErrInvalidConfiguration", err)
	}
}

func TestMorphOp_Validate(t *testing.T) {
	if err := MorphOpen.Validate(); err != nil {
		t.Errorf("open: unexpected error %v", err)
	}
	if err := MorphDilate.Validate(); err != nil {
		t.Errorf("dilate: unexpected error %v", err)
	}
	if err := MorphOp("close").Validate(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("close: got %v, want ErrInvalidConfiguration", err)
	}
}
