package spin

// Physical constants, CODATA 2018.
const (
	// GFree is the free electron g value, taken positive.
	GFree = 2.00231930436256
	// KBcm is the Boltzmann constant in cm^-1/K.
	KBcm = 0.695034800381
	// MuBcm is the Bohr magneton in cm^-1/T.
	MuBcm = 0.466864477756
	// MuNcm is the nuclear magneton in cm^-1/T.
	MuNcm = 0.000254262341353
	// MuNBohr is the nuclear magneton in Bohr magnetons.
	MuNBohr = MuNcm / MuBcm
	// ChiVVCGS converts a van Vleck susceptibility to cm^3 K/mol, 0.1*muB*muB*NA/kB.
	ChiVVCGS = 0.37514809612
)
