package gfx

// Full-screen effects operate directly on the composed buffer. They use a
// position-seeded hash instead of a random source so a replayed session
// produces byte-identical frames.

// dissolveHash mixes pixel coordinates and a seed into a pseudo-random
// 32-bit value. Constants are the usual multiplicative hashing primes.
func dissolveHash(x, y int, seed uint32) uint32 {
	h := uint32(x)*2654435761 ^ uint32(y)*2246822519 ^ seed*3266489917
	h ^= h >> 15
	h *= 2654435761
	h ^= h >> 13
	return h
}

// Dissolve knocks out a progress-proportional share of pixels to a palette
// color. progress 0 leaves the screen untouched, 1 floods it entirely.
func (s *Screen) Dissolve(progress float64, seed uint32, index uint8) {
	if progress <= 0 {
		return
	}
	if progress > 1 {
		progress = 1
	}
	threshold := uint32(progress * float64(1<<32-1))
	c := s.palette.Color(index)
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			if dissolveHash(x, y, seed) <= threshold {
				s.put((y*s.width+x)*4, c)
			}
		}
	}
}

// Scanlines darkens every other row, the cheap CRT look. level is the
// brightness multiplier numerator out of 256 applied to odd rows.
func (s *Screen) Scanlines(level uint8) {
	for y := 1; y < s.height; y += 2 {
		off := y * s.width * 4
		for x := 0; x < s.width; x++ {
			s.buf[off] = uint8(uint16(s.buf[off]) * uint16(level) / 256)
			s.buf[off+1] = uint8(uint16(s.buf[off+1]) * uint16(level) / 256)
			s.buf[off+2] = uint8(uint16(s.buf[off+2]) * uint16(level) / 256)
			off += 4
		}
	}
}
