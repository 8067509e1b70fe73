package tabular

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultLambda is the ridge penalty used when none is configured.
const DefaultLambda = 1.0

// Regressor is a linear model over standardized features.
type Regressor struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// Predict evaluates the model on an already scaled vector.
func (r Regressor) Predict(x []float64) float64 {
	y := r.Intercept
	for j, w := range r.Coefficients {
		y += w * x[j]
	}
	return y
}

// FitRidge solves (XcᵀXc + λI)w = Xcᵀyc on column-centered data with a
// Cholesky factorization, leaving the intercept unpenalized.
func FitRidge(rows [][]float64, y []float64, lambda float64) (Regressor, error) {
	n := len(rows)
	if n == 0 || n != len(y) {
		return Regressor{}, ErrEmptyDataset
	}
	if lambda <= 0 {
		lambda = DefaultLambda
	}
	p := len(rows[0])

	xMean := make([]float64, p)
	yMean := 0.0
	for i, r := range rows {
		for j, v := range r {
			xMean[j] += v
		}
		yMean += y[i]
	}
	for j := range xMean {
		xMean[j] /= float64(n)
	}
	yMean /= float64(n)

	xc := mat.NewDense(n, p, nil)
	yc := mat.NewVecDense(n, nil)
	for i, r := range rows {
		for j, v := range r {
			xc.Set(i, j, v-xMean[j])
		}
		yc.SetVec(i, y[i]-yMean)
	}

	var gram mat.SymDense
	gram.SymOuterK(1, xc.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+lambda)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return Regressor{}, ErrSingular
	}

	var xty mat.VecDense
	xty.MulVec(xc.T(), yc)

	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &xty); err != nil {
		return Regressor{}, fmt.Errorf("ridge solve: %w", err)
	}

	reg := Regressor{Coefficients: make([]float64, p)}
	reg.Intercept = yMean
	for j := 0; j < p; j++ {
		reg.Coefficients[j] = w.AtVec(j)
		reg.Intercept -= reg.Coefficients[j] * xMean[j]
	}
	return reg, nil
}

// R2 is the coefficient of determination of reg on (rows, y).
func R2(reg Regressor, rows [][]float64, y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var ssRes, ssTot float64
	for i, r := range rows {
		d := y[i] - reg.Predict(r)
		ssRes += d * d
		t := y[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
