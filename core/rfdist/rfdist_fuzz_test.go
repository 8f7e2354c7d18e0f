package rfdist

import (
	"errors"
	"strings"
	"testing"
)

// FuzzParseMatrix fuzzes the matrix parser and checks that accepted matrices cluster cleanly.
func FuzzParseMatrix(f *testing.F) {
	f.Add(threeTrees, 0.1)
	f.Add("1\nT0 0.0\n", 0.0)
	f.Add("2\nA 0 1e-3\nB 1e-3 0\n", 0.5)
	f.Add("3\nT0 0\n", 1.0)
	f.Add("", 0.1)

	f.Fuzz(func(t *testing.T, text string, threshold float64) {
		m, err := ParseMatrix(strings.NewReader(text))
		if err != nil {
			if !errors.Is(err, ErrMalformedMatrix) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			return
		}
		if m.N() > 64 {
			return
		}
		assign, _, err := Cluster(m, threshold)
		if err != nil {
			if !errors.Is(err, ErrInvalidThreshold) {
				t.Fatalf("unexpected cluster error: %v", err)
			}
			return
		}
		total := 0
		for _, c := range assign.Clusters {
			total += len(c)
		}
		if total != m.N() {
			t.Fatalf("clusters cover %d of %d trees", total, m.N())
		}
	})
}
