// Package domain computes the Geomagnetic Transmission Function (GTF): the
// probability that a charged particle of rigidity R (momentum per unit charge,
// GV) penetrates Earth's magnetic field to a given location, altitude, and
// time.
//
// # Pipeline
//
//	Query ──FieldProvider──▶ FieldVector (East, North, Up; nT)
//	      ──GeomagneticLatitude──▶ λ (deg)
//	      ──CutoffRigidity──▶ Rc (GV)
//	      ──TransmissionCurve──▶ T(R) over a Spectrum
//
// Calculator.ComputeGTF runs the chain and returns a Result. Environment
// classification (ClassifyEnvironment) is a separate step that combines Rc
// with the planetary Kp index.
//
// # Field vector conventions
//
// Components are local East-North-Up in nanotesla as produced by an IGRF
// evaluation. Up is positive away from Earth, so in the northern hemisphere,
// where the field dips downward, Up is negative and the inclination and dip
// latitude come out negative. Cutoff rigidity is even in λ, so the sign does
// not affect Rc or T(R).
//
// # Models
//
// Dip latitude:
//
//	tan(I) = 2·tan(λ),  I = atan2(Up, √(East² + North²))
//
// Störmer vertical cutoff:
//
//	Rc = K·cos⁴(λ),  K = 14.9 GV by default (14.5 in older calibrations)
//
// Transmission:
//
//	T(R) = 1 / (1 + exp(−k·(R − Rc))),  k = 1.2 /GV by default
//
// The hyperbolic-tangent form 0.5·(1 + tanh((R − Rc)/ΔR)) is the same curve
// with k = 2/ΔR; see SteepnessFromWidth.
//
// Environment levels (first match wins):
//
//	Severe:   Kp ≥ 6 or Rc < 5 GV
//	Moderate: Kp ≥ 4 or Rc < 8 GV
//	Nominal:  otherwise
//
// # Errors
//
// Invalid queries, field vectors, and spectra return an *InputError that
// matches ErrInvalidInput. Field provider failures wrap
// ErrUpstreamUnavailable. NaN or infinite stage outputs return
// ErrNumericDegenerate instead of a result.
//
// # References
//
// Smart, D. F. & Shea, M. A. (2005). A review of geomagnetic cutoff
// rigidities for earth-orbiting spacecraft. Advances in Space Research,
// 36(10), 2012–2020.
package domain
