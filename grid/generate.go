package grid

import (
	"math"

	"github.com/ojrac/opensimplex-go"
)

// GenerateParams configures procedural layout generation.
type GenerateParams struct {
	Rows, Cols        int
	Seed              int64
	Scale             float64 // Base noise frequency across the grid
	Octaves           int
	ObstacleThreshold float64 // Terrain noise below this becomes an obstacle
	ToxicityScale     float64 // Multiplier on toxicity noise before quantizing
}

// Generate builds a layout from two OpenSimplex FBM fields: one decides
// obstacles, the other (offset seed) the toxicity digit of open patches.
func Generate(p GenerateParams) *Layout {
	l := NewLayout(p.Rows, p.Cols)
	terrain := opensimplex.NewNormalized(p.Seed)
	toxin := opensimplex.NewNormalized(p.Seed + 1)

	for row := 0; row < p.Rows; row++ {
		v := (float64(row) + 0.5) / float64(p.Rows)
		for col := 0; col < p.Cols; col++ {
			u := (float64(col) + 0.5) / float64(p.Cols)
			idx := row*p.Cols + col

			if fbm(terrain, u, v, p.Scale, p.Octaves) < p.ObstacleThreshold {
				l.Obstacle[idx] = true
				continue
			}
			t := clamp01(fbm(toxin, u, v, p.Scale*0.5, p.Octaves) * p.ToxicityScale)
			l.Toxicity[idx] = uint8(math.Round(t * MaxToxicityLevel))
		}
	}
	return l
}

// fbm sums octaves of normalized noise and rescales to [0,1].
func fbm(n opensimplex.Noise, u, v, freq float64, octaves int) float64 {
	sum, norm := 0.0, 0.0
	amp := 0.5
	for o := 0; o < octaves; o++ {
		sum += amp * n.Eval2(u*freq, v*freq)
		norm += amp
		freq *= 2
		amp *= 0.5
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
