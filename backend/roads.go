package main

import "sync"

// A road is one of the length-6 lines a six-in-a-row can occupy. The table
// is built once and shared; per-cell lookup drives the evaluator, VCDT and
// the candidate generator.
type Road struct {
	ID    int
	Cells [6]Pos
}

type RoadTable struct {
	roads  []Road
	byCell [][]int
}

var (
	roadOnce  sync.Once
	roadTable *RoadTable
)

func Roads() *RoadTable {
	roadOnce.Do(func() {
		table := &RoadTable{byCell: make([][]int, BoardSize*BoardSize)}
		for _, dir := range lineDirections {
			dx, dy := dir[0], dir[1]
			for y := 0; y < BoardSize; y++ {
				for x := 0; x < BoardSize; x++ {
					endX := x + dx*(WinLength-1)
					endY := y + dy*(WinLength-1)
					if endX < 0 || endX >= BoardSize || endY < 0 || endY >= BoardSize {
						continue
					}
					road := Road{ID: len(table.roads)}
					for i := 0; i < WinLength; i++ {
						road.Cells[i] = Pos{X: x + dx*i, Y: y + dy*i}
					}
					table.roads = append(table.roads, road)
					for _, cell := range road.Cells {
						idx := cell.Index()
						table.byCell[idx] = append(table.byCell[idx], road.ID)
					}
				}
			}
		}
		roadTable = table
	})
	return roadTable
}

func (t *RoadTable) All() []Road {
	return t.roads
}

func (t *RoadTable) Through(p Pos) []Road {
	ids := t.byCell[p.Index()]
	roads := make([]Road, 0, len(ids))
	for _, id := range ids {
		roads = append(roads, t.roads[id])
	}
	return roads
}

func (t *RoadTable) Count() int {
	return len(t.roads)
}

// EncodeRoad packs a road's occupancy into 12 bits, two per cell:
// 00 empty, 01 black, 10 white.
func EncodeRoad(state GameState, road Road) uint16 {
	var code uint16
	for i, cell := range road.Cells {
		var bits uint16
		switch state.Board.AtPos(cell) {
		case CellBlack:
			bits = 1
		case CellWhite:
			bits = 2
		}
		code |= bits << (2 * i)
	}
	return code
}

type roadCounts struct {
	black   int
	white   int
	empties int
}

func countRoad(board Board, road Road) roadCounts {
	var counts roadCounts
	for _, cell := range road.Cells {
		switch board.AtPos(cell) {
		case CellBlack:
			counts.black++
		case CellWhite:
			counts.white++
		default:
			counts.empties++
		}
	}
	return counts
}

func (c roadCounts) forPlayer(player PlayerColor) (mine, theirs int) {
	if player == PlayerBlack {
		return c.black, c.white
	}
	return c.white, c.black
}

// IsHighValueRoadCell reports whether some road through pos carries at
// least minSameColor stones of a single color.
func IsHighValueRoadCell(state GameState, pos Pos, minSameColor int) bool {
	table := Roads()
	for _, id := range table.byCell[pos.Index()] {
		counts := countRoad(state.Board, table.roads[id])
		if counts.black >= minSameColor || counts.white >= minSameColor {
			return true
		}
	}
	return false
}
