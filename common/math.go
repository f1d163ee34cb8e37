package common

import (
	"cmp"
	"math"
	"unsafe"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Clamp limits v to the closed range [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// DegToRad converts degrees to radians.
func DegToRad(deg float32) float32 {
	return deg * (math.Pi / 180)
}

// SinCos returns the sine and cosine of an angle given in degrees.
//
// Parameters:
//   - deg: the angle in degrees
//
// Returns:
//   - float32: sine of the angle
//   - float32: cosine of the angle
func SinCos(deg float32) (float32, float32) {
	s, c := math.Sincos(float64(DegToRad(deg)))
	return float32(s), float32(c)
}

// WrapDegrees normalizes an angle to the range (-180, 180].
func WrapDegrees(deg float32) float32 {
	deg = float32(math.Mod(float64(deg), 360))
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}
