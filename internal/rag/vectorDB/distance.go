package vectorDB

import (
	"math"

	"github.com/akolanti/DocChat/internal/domain/commonModels"
)

// Score returns cosine similarity or euclidean distance, depending on metric.
func Score(metric commonModels.DistanceMetric, a, b []float32) float64 {
	if metric == commonModels.Euclidean {
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return math.Sqrt(sum)
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Nearer reports whether score a ranks ahead of score b under metric.
func Nearer(metric commonModels.DistanceMetric, a, b float64) bool {
	if metric == commonModels.Euclidean {
		return a < b
	}
	return a > b
}
