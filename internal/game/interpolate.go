package game

// Interpolate blends two consecutive snapshots of the same match for
// rendering between server ticks. alpha is clamped to [0,1]. Positions are
// blended; everything discrete (ids, scores, status, winner, config) comes
// from next. A point scored between the snapshots (ball jumped back to
// center) is not blended.
func Interpolate(prev, next Snapshot, alpha float64) Snapshot {
	alpha = clampF(alpha, 0, 1)
	out := next
	out.Paddles = make([]PaddleState, len(next.Paddles))
	copy(out.Paddles, next.Paddles)
	out.Scores = make(map[string]int, len(next.Scores))
	for k, v := range next.Scores {
		out.Scores[k] = v
	}

	if prev.MatchID != next.MatchID {
		return out
	}

	for i, p := range out.Paddles {
		for _, q := range prev.Paddles {
			if q.ID == p.ID && q.Side == p.Side {
				out.Paddles[i].Y = q.Y + (p.Y-q.Y)*alpha
				break
			}
		}
	}

	if scoreTotal(prev) == scoreTotal(next) {
		from := NewVec2(prev.Ball.X, prev.Ball.Y)
		to := NewVec2(next.Ball.X, next.Ball.Y)
		pos := from.Lerp(to, alpha)
		out.Ball.X, out.Ball.Y = pos.X, pos.Y
	}
	return out
}

func scoreTotal(s Snapshot) int {
	total := 0
	for _, v := range s.Scores {
		total += v
	}
	return total
}
