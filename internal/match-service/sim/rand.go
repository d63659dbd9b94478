package sim

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Rand é a fonte de aleatoriedade do simulador; injetável para testes.
// *rand.Rand (math/rand/v2) já satisfaz a interface.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// NewRand cria um PRNG não criptográfico determinístico a partir da seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewSeed gera uma seed via crypto/rand; a seed vai para os logs da partida
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
