package simd

import (
	"os"
	"strings"
)

// ISA is the vector instruction set the host CPU offers.
type ISA uint8

const (
	Generic ISA = iota
	NEON
	SVE2
	AVX2
	AVX512
)

var isaNames = [...]string{
	Generic: "generic",
	NEON:    "neon",
	SVE2:    "sve2",
	AVX2:    "avx2",
	AVX512:  "avx512",
}

func (i ISA) String() string {
	if int(i) < len(isaNames) {
		return isaNames[i]
	}
	return "unknown"
}

// Lanes returns the float32 lanes of one vector register. SVE2 reports its
// architectural minimum.
func (i ISA) Lanes() int {
	switch i {
	case NEON, SVE2:
		return 4
	case AVX2:
		return 8
	case AVX512:
		return 16
	default:
		return 1
	}
}

// ParseISA parses an ISA name, ignoring case and surrounding space.
func ParseISA(s string) (ISA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range isaNames {
		if name == s {
			return ISA(i), true
		}
	}
	return Generic, false
}

// Features are the CPU flags the ISA choice depends on.
type Features struct {
	ASIMD   bool
	SVE2    bool
	AVX2FMA bool
	AVX512  bool // F and BW

	// PreferNEON is set where SVE2 is emulated.
	PreferNEON bool
}

// Supports reports whether isa can run with f.
func (f Features) Supports(isa ISA) bool {
	switch isa {
	case Generic:
		return true
	case NEON:
		return f.ASIMD
	case SVE2:
		return f.SVE2
	case AVX2:
		return f.AVX2FMA
	case AVX512:
		return f.AVX512
	default:
		return false
	}
}

// Best returns the widest ISA f supports.
func (f Features) Best() ISA {
	switch {
	case f.AVX512:
		return AVX512
	case f.AVX2FMA:
		return AVX2
	case f.SVE2 && !f.PreferNEON:
		return SVE2
	case f.ASIMD:
		return NEON
	default:
		return Generic
	}
}

// EnvOverride names the environment variable that forces an ISA.
const EnvOverride = "CLGPU_SIMD"

var hostFeatures = detectFeatures()

var activeISA, overridden = choose(hostFeatures, os.Getenv(EnvOverride))

// choose applies an override when it names a supported ISA.
func choose(f Features, override string) (ISA, bool) {
	if override != "" {
		if isa, ok := ParseISA(override); ok && f.Supports(isa) {
			return isa, true
		}
	}
	return f.Best(), false
}

// ActiveISA returns the ISA selected for this process.
func ActiveISA() ISA { return activeISA }

// IsOverridden reports whether CLGPU_SIMD selected the ISA.
func IsOverridden() bool { return overridden }

// HostFeatures returns the detected CPU flags.
func HostFeatures() Features { return hostFeatures }
