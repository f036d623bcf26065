// Package models is a collection of linear regression fitting implementations to be used in the
// forecaster
package models

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Model is a linear regression model fit against a design matrix x of m observations and n
// features and a target matrix y of m rows and 1 column.
type Model interface {
	Fit(x, y mat.Matrix) error
	Predict(x mat.Matrix) ([]float64, error)
	Score(x, y mat.Matrix) (float64, error)
	Intercept() float64
	Coef() []float64
}

// withOnes prepends a column of 1.0 to x to fit the intercept as the first coefficient
func withOnes(x mat.Matrix) mat.Matrix {
	m, _ := x.Dims()
	ones := make([]float64, m)
	floats.AddConst(1.0, ones)
	onesMx := mat.NewDense(1, m, ones)

	var xWithOnes mat.Dense
	xWithOnes.Stack(onesMx, x.T())
	return xWithOnes.T()
}

func predict(x mat.Matrix, intercept float64, coef []float64, fitIntercept bool) ([]float64, error) {
	if x == nil {
		return nil, ErrNoDesignMatrix
	}

	if fitIntercept {
		coef = append([]float64{intercept}, coef...)
		x = withOnes(x)
	}
	n := len(coef)

	_, xn := x.Dims()
	if xn != n {
		return nil, ErrFeatureLenMismatch
	}

	coefMx := mat.NewDense(1, n, coef)
	var res mat.Dense
	res.Mul(coefMx, x.T())
	return res.RawRowView(0), nil
}
