package services

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// Random yields uniform values in [0, 1). *math/rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

type cryptoRandom struct{}

// CryptoRandom draws from the operating system CSPRNG.
func CryptoRandom() Random { return cryptoRandom{} }

func (cryptoRandom) Float64() float64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	// 53 random bits scaled into [0, 1)
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}
