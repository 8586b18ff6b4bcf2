package main

const WinLength = 6

var lineDirections = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// checkWinner scans the whole board for a six-in-a-row run and returns the
// resulting status plus the winning line when one exists. Draw means no
// empties remain and nobody connected six.
func checkWinner(board Board) (GameStatus, []Pos) {
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			cell := board.At(x, y)
			if cell == CellEmpty {
				continue
			}
			for _, dir := range lineDirections {
				dx, dy := dir[0], dir[1]
				// Only count runs from their first stone to visit each once.
				px, py := x-dx, y-dy
				if board.InBounds(px, py) && board.At(px, py) == cell {
					continue
				}
				run := collectRun(board, x, y, dx, dy, cell)
				if len(run) >= WinLength {
					if cell == CellBlack {
						return StatusBlackWon, run
					}
					return StatusWhiteWon, run
				}
			}
		}
	}
	if board.CountEmpty() == 0 {
		return StatusDraw, nil
	}
	return StatusRunning, nil
}

func collectRun(board Board, x, y, dx, dy int, target Cell) []Pos {
	run := []Pos{}
	for board.InBounds(x, y) && board.At(x, y) == target {
		run = append(run, Pos{X: x, Y: y})
		x += dx
		y += dy
	}
	return run
}

func countDirection(board Board, x, y, dx, dy int, target Cell) int {
	count := 0
	x += dx
	y += dy
	for board.InBounds(x, y) && board.At(x, y) == target {
		count++
		x += dx
		y += dy
	}
	return count
}
