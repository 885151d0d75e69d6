package projection

import "math"

// rotation maps radians to radians.
type rotation func(lambda, phi float64) (float64, float64)

func newRotation(dl, dp, dg float64) rotation {
	dl = math.Mod(dl, 2*math.Pi)
	lambda := rotationLambda(dl)
	if dp == 0 && dg == 0 {
		if dl == 0 {
			return func(l, p float64) (float64, float64) { return wrapLambda(l), p }
		}
		return lambda
	}
	pg := rotationPhiGamma(dp, dg)
	if dl == 0 {
		return pg
	}
	return func(l, p float64) (float64, float64) {
		return pg(lambda(l, p))
	}
}

func rotationLambda(dl float64) rotation {
	return func(l, p float64) (float64, float64) {
		return wrapLambda(l + dl), p
	}
}

// wrapLambda folds a longitude into [-pi, pi].
func wrapLambda(l float64) float64 {
	for l > math.Pi {
		l -= 2 * math.Pi
	}
	for l < -math.Pi {
		l += 2 * math.Pi
	}
	return l
}

func rotationPhiGamma(dp, dg float64) rotation {
	cosDp, sinDp := math.Cos(dp), math.Sin(dp)
	cosDg, sinDg := math.Cos(dg), math.Sin(dg)
	return func(l, p float64) (float64, float64) {
		cosP := math.Cos(p)
		x := math.Cos(l) * cosP
		y := math.Sin(l) * cosP
		z := math.Sin(p)
		k := z*cosDp + x*sinDp
		return math.Atan2(y*cosDg-k*sinDg, x*cosDp-z*sinDp),
			math.Asin(math.Max(-1, math.Min(1, k*cosDg+y*sinDg)))
	}
}
