package game

import (
	"encoding/json"
	"slices"
	"sort"
)

// Stroke is one entry of a room's drawing log.
type Stroke struct {
	Sequence int             `json:"sequence"`
	Data     json.RawMessage `json:"data"`
}

// DrawingLog is the append-only stroke history of a room. Sequence numbers
// start at 1 and only grow. A log restored from storage keeps the stored
// numbers, gaps included.
type DrawingLog struct {
	strokes []Stroke
}

func (d *DrawingLog) Append(data json.RawMessage) Stroke {
	stroke := Stroke{
		Sequence: d.Last() + 1,
		Data:     append(json.RawMessage(nil), data...),
	}
	d.strokes = append(d.strokes, stroke)
	return stroke
}

func (d *DrawingLog) Len() int {
	return len(d.strokes)
}

// Last is the highest sequence number in the log, or 0 when it is empty.
func (d *DrawingLog) Last() int {
	if len(d.strokes) == 0 {
		return 0
	}
	return d.strokes[len(d.strokes)-1].Sequence
}

// Replay returns every stroke with a sequence number above known.
func (d *DrawingLog) Replay(known int) []Stroke {
	from := sort.Search(len(d.strokes), func(i int) bool {
		return d.strokes[i].Sequence > known
	})
	out := make([]Stroke, len(d.strokes)-from)
	copy(out, d.strokes[from:])
	return out
}

// restore replaces the log with stored strokes in sequence order. Repeated
// sequence numbers keep the first copy.
func (d *DrawingLog) restore(strokes []Stroke) {
	sorted := slices.Clone(strokes)
	slices.SortStableFunc(sorted, func(a, b Stroke) int { return a.Sequence - b.Sequence })
	d.strokes = make([]Stroke, 0, len(sorted))
	for _, stroke := range sorted {
		if stroke.Sequence <= d.Last() {
			continue
		}
		d.strokes = append(d.strokes, Stroke{
			Sequence: stroke.Sequence,
			Data:     append(json.RawMessage(nil), stroke.Data...),
		})
	}
}
