package fitting

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const eulerGamma = 0.5772156649015329

var errUnsupportedSample = errors.New("sample outside family support")

// density is a fitted pdf together with the parameters that produced it.
type density struct {
	prob   func(x float64) float64
	params map[string]float64
}

// estimator derives family parameters from a sample by maximum likelihood
// or by matching moments.
type estimator func(x []float64) (density, error)

var estimators = map[string]estimator{
	"norm":        fitNormal,
	"expon":       fitExponential,
	"lognorm":     fitLogNormal,
	"uniform":     fitUniform,
	"gamma":       fitGamma,
	"laplace":     fitLaplace,
	"logistic":    fitLogistic,
	"gumbel_r":    fitGumbelRight,
	"weibull_min": fitWeibull,
}

// DefaultFamilies are used when the configuration names none.
var DefaultFamilies = []string{"norm", "expon", "lognorm", "uniform", "gamma", "laplace", "logistic", "gumbel_r", "weibull_min"}

// Supported reports whether a family name is known.
func Supported(family string) bool {
	_, ok := estimators[family]
	return ok
}

func popMeanStd(x []float64) (float64, float64) {
	return stat.PopMeanStdDev(x, nil)
}

func fitNormal(x []float64) (density, error) {
	mu, sigma := popMeanStd(x)
	if sigma == 0 {
		return density{}, errUnsupportedSample
	}
	d := distuv.Normal{Mu: mu, Sigma: sigma}
	return density{prob: d.Prob, params: map[string]float64{"loc": mu, "scale": sigma}}, nil
}

func fitExponential(x []float64) (density, error) {
	loc := floats.Min(x)
	scale := stat.Mean(x, nil) - loc
	if scale <= 0 {
		return density{}, errUnsupportedSample
	}
	d := distuv.Exponential{Rate: 1 / scale}
	return density{
		prob:   func(v float64) float64 { return d.Prob(v - loc) },
		params: map[string]float64{"loc": loc, "scale": scale},
	}, nil
}

func fitLogNormal(x []float64) (density, error) {
	logs := make([]float64, len(x))
	for i, v := range x {
		if v <= 0 {
			return density{}, errUnsupportedSample
		}
		logs[i] = math.Log(v)
	}
	mu, sigma := popMeanStd(logs)
	if sigma == 0 {
		return density{}, errUnsupportedSample
	}
	d := distuv.LogNormal{Mu: mu, Sigma: sigma}
	return density{prob: d.Prob, params: map[string]float64{"s": sigma, "scale": math.Exp(mu)}}, nil
}

func fitUniform(x []float64) (density, error) {
	lo, hi := floats.Min(x), floats.Max(x)
	if hi <= lo {
		return density{}, errUnsupportedSample
	}
	d := distuv.Uniform{Min: lo, Max: hi}
	return density{prob: d.Prob, params: map[string]float64{"loc": lo, "scale": hi - lo}}, nil
}

func fitGamma(x []float64) (density, error) {
	if floats.Min(x) <= 0 {
		return density{}, errUnsupportedSample
	}
	mean, variance := stat.PopMeanVariance(x, nil)
	if variance == 0 {
		return density{}, errUnsupportedSample
	}
	d := distuv.Gamma{Alpha: mean * mean / variance, Beta: mean / variance}
	return density{prob: d.Prob, params: map[string]float64{"a": d.Alpha, "scale": 1 / d.Beta}}, nil
}

func fitLaplace(x []float64) (density, error) {
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	mu := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	var dev float64
	for _, v := range x {
		dev += math.Abs(v - mu)
	}
	scale := dev / float64(len(x))
	if scale == 0 {
		return density{}, errUnsupportedSample
	}
	d := distuv.Laplace{Mu: mu, Scale: scale}
	return density{prob: d.Prob, params: map[string]float64{"loc": mu, "scale": scale}}, nil
}

func fitLogistic(x []float64) (density, error) {
	mu, sigma := popMeanStd(x)
	if sigma == 0 {
		return density{}, errUnsupportedSample
	}
	d := distuv.Logistic{Mu: mu, S: sigma * math.Sqrt(3) / math.Pi}
	return density{prob: d.Prob, params: map[string]float64{"loc": mu, "scale": d.S}}, nil
}

func fitGumbelRight(x []float64) (density, error) {
	mean, sigma := popMeanStd(x)
	if sigma == 0 {
		return density{}, errUnsupportedSample
	}
	beta := sigma * math.Sqrt(6) / math.Pi
	d := distuv.GumbelRight{Mu: mean - eulerGamma*beta, Beta: beta}
	return density{prob: d.Prob, params: map[string]float64{"loc": d.Mu, "scale": beta}}, nil
}

// fitWeibull matches the coefficient of variation by bisection on the shape.
func fitWeibull(x []float64) (density, error) {
	if floats.Min(x) <= 0 {
		return density{}, errUnsupportedSample
	}
	mean, sigma := popMeanStd(x)
	if sigma == 0 {
		return density{}, errUnsupportedSample
	}
	cv := sigma / mean

	weibullCV := func(k float64) float64 {
		g1 := math.Gamma(1 + 1/k)
		g2 := math.Gamma(1 + 2/k)
		return math.Sqrt(g2/(g1*g1) - 1)
	}
	lo, hi := 0.05, 50.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		// cv decreases with k
		if weibullCV(mid) > cv {
			lo = mid
		} else {
			hi = mid
		}
	}
	k := (lo + hi) / 2
	lambda := mean / math.Gamma(1+1/k)
	d := distuv.Weibull{K: k, Lambda: lambda}
	return density{prob: d.Prob, params: map[string]float64{"c": k, "scale": lambda}}, nil
}
