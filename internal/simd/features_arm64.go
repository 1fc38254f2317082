//go:build arm64

package simd

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

func detectFeatures() Features {
	return Features{
		ASIMD:      cpu.ARM64.HasASIMD,
		SVE2:       cpu.ARM64.HasSVE2,
		PreferNEON: runtime.GOOS == "darwin",
	}
}
