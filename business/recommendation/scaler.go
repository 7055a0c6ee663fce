package recommendation

import (
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes feature columns to zero mean and unit variance.
// Its parameters are stored in the artifact so serving-time vectors can be
// placed in the same space as the centroids.
type Scaler struct {
	Mean []float64
	Std  []float64
}

func FitScaler(rows [][]float64) Scaler {
	if len(rows) == 0 {
		return Scaler{}
	}
	dim := len(rows[0])
	s := Scaler{Mean: make([]float64, dim), Std: make([]float64, dim)}
	col := make([]float64, len(rows))
	for j := 0; j < dim; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		var std float64
		s.Mean[j], std = stat.PopMeanStdDev(col, nil)
		if std == 0 || std != std {
			std = 1
		}
		s.Std[j] = std
	}
	return s
}

func (s Scaler) Transform(v []float64) []float64 {
	out := make([]float64, len(v))
	for j, x := range v {
		if j >= len(s.Mean) {
			out[j] = x
			continue
		}
		out[j] = (x - s.Mean[j]) / s.Std[j]
	}
	return out
}
