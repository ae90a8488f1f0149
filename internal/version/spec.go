// Package version resolves partial language version specifiers ("3.12",
// "20") into concrete versions using the vendors' official release indexes.
// Fully-qualified versions short-circuit and never touch the network.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape classifies a version specifier. Downstream logic matches on the
// shape instead of re-probing the string.
type Shape int

const (
	// Invalid is a specifier that matches none of the accepted forms.
	Invalid Shape = iota
	// Full is X.Y.Z.
	Full
	// MajorMinor is X.Y.
	MajorMinor
	// MajorOnly is X.
	MajorOnly
)

// String returns the shape name for log and error messages.
func (s Shape) String() string {
	switch s {
	case Full:
		return "full"
	case MajorMinor:
		return "major.minor"
	case MajorOnly:
		return "major"
	default:
		return "invalid"
	}
}

// Spec is a parsed version specifier.
type Spec struct {
	Shape Shape
	Major int
	Minor int
	Patch int
	Raw   string
}

// ParseSpec parses a version specifier. Only digits-and-dots forms with one,
// two, or three components are accepted; anything else is an error.
func ParseSpec(raw string) (Spec, error) {
	if raw == "" {
		return Spec{}, fmt.Errorf("version specifier is empty")
	}

	parts := strings.Split(raw, ".")
	if len(parts) > 3 {
		return Spec{Raw: raw}, fmt.Errorf("invalid version specifier %q: too many components", raw)
	}

	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || p == "" || (len(p) > 1 && p[0] == '0') {
			return Spec{Raw: raw}, fmt.Errorf("invalid version specifier %q", raw)
		}
		nums[i] = n
	}

	spec := Spec{Raw: raw, Major: nums[0]}
	switch len(nums) {
	case 1:
		spec.Shape = MajorOnly
	case 2:
		spec.Shape = MajorMinor
		spec.Minor = nums[1]
	case 3:
		spec.Shape = Full
		spec.Minor = nums[1]
		spec.Patch = nums[2]
	}

	return spec, nil
}

// Matches reports whether a concrete version falls inside the specifier's
// prefix. A Full spec matches only itself.
func (s Spec) Matches(concrete string) bool {
	parts := strings.Split(concrete, ".")
	if len(parts) < 1 {
		return false
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil || major != s.Major {
		return false
	}

	switch s.Shape {
	case MajorOnly:
		return true
	case MajorMinor, Full:
		if len(parts) < 2 {
			return false
		}
		minor, err := strconv.Atoi(parts[1])
		if err != nil || minor != s.Minor {
			return false
		}
		if s.Shape == MajorMinor {
			return true
		}
		if len(parts) < 3 {
			return false
		}
		patch, err := strconv.Atoi(parts[2])
		return err == nil && patch == s.Patch
	default:
		return false
	}
}

// Compare orders two dotted version strings numerically. Non-numeric
// suffixes ("1rc1") compare by their leading digits, which is enough to keep
// pre-releases from outranking finals in the indexes we consume.
func Compare(a, b string) int {
	ap := strings.Split(a, ".")
	bp := strings.Split(b, ".")

	n := len(ap)
	if len(bp) > n {
		n = len(bp)
	}

	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(ap) {
			av = leadingInt(ap[i])
		}
		if i < len(bp) {
			bv = leadingInt(bp[i])
		}
		if av != bv {
			if av > bv {
				return 1
			}
			return -1
		}
	}
	return 0
}

func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}
