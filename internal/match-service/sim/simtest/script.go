// Package simtest fornece fontes de aleatoriedade roteirizadas para testes.
package simtest

import (
	"fmt"
	"sync"
)

// Script devolve valores pré-definidos, em ordem; IntN reduz módulo n.
// Estoura (panic) quando o roteiro acaba.
type Script struct {
	mu     sync.Mutex
	Ints   []int
	Floats []float64
}

func (s *Script) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Ints) == 0 {
		panic("simtest: script ran out of ints")
	}
	v := s.Ints[0]
	s.Ints = s.Ints[1:]
	if v < 0 || v >= n {
		panic(fmt.Sprintf("simtest: scripted int %d outside [0,%d)", v, n))
	}
	return v
}

func (s *Script) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Floats) == 0 {
		panic("simtest: script ran out of floats")
	}
	v := s.Floats[0]
	s.Floats = s.Floats[1:]
	return v
}

// HomeWin roteiriza cinco lances (offsets 5, 15, 35, 55, 75) que terminam 2x1
// para o mandante quando os perfis são 80 (casa) e 60 (fora) em todos os setores.
//
//	5'  gol casa (atacante 0)
//	15' defesa do goleiro da casa
//	35' gol fora (meia 1)
//	55' gol casa (atacante 2)
//	75' defesa do zagueiro 3 de fora
func HomeWin() *Script {
	return &Script{
		Ints: []int{
			0,                 // 5 lances
			0, 10, 30, 50, 70, // offsets
			0, 0, 0,           // gol: setor, jogador, narração
			1,                 // defesa do goleiro: narração
			2, 1, 2,           // gol: meia, jogador, narração
			1, 2, 3,           // gol
			3, 0,              // defesa do zagueiro: jogador, narração
		},
		Floats: []float64{
			0.1, 0.5, 0.5,
			0.9, 0.5, 0.5, 0.1,
			0.9, 0.999, 0.0,
			0.2, 0.5, 0.5,
			0.3, 0.0, 0.999, 0.7,
		},
	}
}

// Goalless roteiriza cinco defesas seguidas do goleiro: 0x0, empate.
func Goalless() *Script {
	return &Script{
		Ints: []int{0, 0, 1, 2, 3, 4, 0, 0, 0, 0, 0},
		Floats: []float64{
			0.1, 0.0, 0.999, 0.1,
			0.1, 0.0, 0.999, 0.1,
			0.1, 0.0, 0.999, 0.1,
			0.1, 0.0, 0.999, 0.1,
			0.1, 0.0, 0.999, 0.1,
		},
	}
}
