package main

import "sync"

type ZobristTable struct {
	cells []uint64
	side  uint64
}

var (
	zobristOnce  sync.Once
	zobristTable *ZobristTable
)

func getZobrist() *ZobristTable {
	zobristOnce.Do(func() {
		rng := splitmix64{state: uint64(0x9e3779b97f4a7c15) ^ uint64(BoardSize)}
		table := &ZobristTable{cells: make([]uint64, BoardSize*BoardSize*2)}
		for i := range table.cells {
			table.cells[i] = rng.next()
		}
		table.side = rng.next()
		zobristTable = table
	})
	return zobristTable
}

func (z *ZobristTable) stone(x, y int, player PlayerColor) uint64 {
	idx := (y*BoardSize + x) * 2
	if player == PlayerWhite {
		idx++
	}
	return z.cells[idx]
}

// ComputeHash covers board occupancy and side to move. Move number is mixed
// in separately where a key needs it (PVS transposition entries).
func ComputeHash(state GameState) uint64 {
	z := getZobrist()
	var hash uint64
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			cell := state.Board.At(x, y)
			if cell == CellEmpty {
				continue
			}
			player := PlayerBlack
			if cell == CellWhite {
				player = PlayerWhite
			}
			hash ^= z.stone(x, y, player)
		}
	}
	if state.ToMove == PlayerWhite {
		hash ^= z.side
	}
	return hash
}

// ttKeyFor keys PVS transposition entries by (board, side, move number):
// the stone quota depends on the move number, so positions that differ only
// there are not interchangeable.
func ttKeyFor(state GameState) uint64 {
	return state.Hash ^ mixKey(uint64(state.MoveNumber))
}

// mctsKeyFor keys MCTS transposition nodes by (board, side) only.
func mctsKeyFor(state GameState) uint64 {
	return state.Hash
}

func mixKey(v uint64) uint64 {
	v += 0x9e3779b97f4a7c15
	v = (v ^ (v >> 30)) * 0xbf58476d1ce4e5b9
	v = (v ^ (v >> 27)) * 0x94d049bb133111eb
	return v ^ (v >> 31)
}

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
