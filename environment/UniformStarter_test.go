package environment

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r1"
)

func TestUniformStarterRespectsBounds(t *testing.T) {
	bounds := []r1.Interval{
		{Min: -0.5, Max: 0.5},
		{Min: 1.0, Max: 2.0},
	}
	starter := NewUniformStarter(bounds, 42)

	for i := 0; i < 100; i++ {
		state := starter.Start()
		if state.Len() != 2 {
			t.Fatalf("got a state of length %v, want 2", state.Len())
		}
		for j, interval := range bounds {
			if v := state.AtVec(j); v < interval.Min || v > interval.Max {
				t.Errorf("dimension %v: state %v out of [%v, %v]", j, v,
					interval.Min, interval.Max)
			}
		}
	}
}

func TestUniformStarterDeterminism(t *testing.T) {
	bounds := []r1.Interval{{Min: -1.0, Max: 1.0}}
	s1 := NewUniformStarter(bounds, 7)
	s2 := NewUniformStarter(bounds, 7)

	for i := 0; i < 10; i++ {
		if a, b := s1.Start().AtVec(0), s2.Start().AtVec(0); a != b {
			t.Fatalf("draw %v: %v != %v under equal seeds", i, a, b)
		}
	}
}
