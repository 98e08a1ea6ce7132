package terrain

import "math"

// Deterministic value noise on a 32-bit integer lattice. Arithmetic is kept
// to uint32 and float32 so the compute shaders can reproduce it.

// fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3.
func fade(t float32) float32 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}

// hash32 is a 32-bit integer finaliser (lowbias32).
func hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

func hash2(x, z int32, seed uint32) uint32 {
	return hash32(uint32(x) ^ hash32(uint32(z)^seed))
}

func hash3(x, y, z int32, seed uint32) uint32 {
	return hash32(uint32(x) ^ hash32(uint32(y)^hash32(uint32(z)^seed)))
}

// unit maps a hash onto [0,1].
func unit(h uint32) float32 {
	return float32(h>>8) * (1.0 / 16777215.0)
}

func floor32(v float32) float32 {
	return float32(math.Floor(float64(v)))
}

func valueNoise2D(x, z float32, seed uint32) float32 {
	x0 := floor32(x)
	z0 := floor32(z)
	ix, iz := int32(x0), int32(z0)

	fx := fade(x - x0)
	fz := fade(z - z0)

	v00 := unit(hash2(ix, iz, seed))
	v10 := unit(hash2(ix+1, iz, seed))
	v01 := unit(hash2(ix, iz+1, seed))
	v11 := unit(hash2(ix+1, iz+1, seed))

	i0 := lerp(v00, v10, fx)
	i1 := lerp(v01, v11, fx)
	return lerp(i0, i1, fz)
}

func valueNoise3D(x, y, z float32, seed uint32) float32 {
	x0 := floor32(x)
	y0 := floor32(y)
	z0 := floor32(z)
	ix, iy, iz := int32(x0), int32(y0), int32(z0)

	fx := fade(x - x0)
	fy := fade(y - y0)
	fz := fade(z - z0)

	v000 := unit(hash3(ix, iy, iz, seed))
	v100 := unit(hash3(ix+1, iy, iz, seed))
	v010 := unit(hash3(ix, iy+1, iz, seed))
	v110 := unit(hash3(ix+1, iy+1, iz, seed))
	v001 := unit(hash3(ix, iy, iz+1, seed))
	v101 := unit(hash3(ix+1, iy, iz+1, seed))
	v011 := unit(hash3(ix, iy+1, iz+1, seed))
	v111 := unit(hash3(ix+1, iy+1, iz+1, seed))

	i00 := lerp(v000, v100, fx)
	i10 := lerp(v010, v110, fx)
	i01 := lerp(v001, v101, fx)
	i11 := lerp(v011, v111, fx)

	i0 := lerp(i00, i10, fy)
	i1 := lerp(i01, i11, fy)
	return lerp(i0, i1, fz)
}

// octaveNoise2D sums octaves with halving amplitude and doubling frequency,
// normalised to [0,1].
func octaveNoise2D(x, z float32, seed uint32, octaves int) float32 {
	amplitude := float32(1)
	frequency := float32(1)
	var sum, norm float32
	for i := range octaves {
		sum += valueNoise2D(x*frequency, z*frequency, seed+uint32(i)*131) * amplitude
		norm += amplitude
		amplitude *= 0.5
		frequency *= 2
	}
	return sum / norm
}

func octaveNoise3D(x, y, z float32, seed uint32, octaves int) float32 {
	amplitude := float32(1)
	frequency := float32(1)
	var sum, norm float32
	for i := range octaves {
		sum += valueNoise3D(x*frequency, y*frequency, z*frequency, seed+uint32(i)*131) * amplitude
		norm += amplitude
		amplitude *= 0.5
		frequency *= 2
	}
	return sum / norm
}
