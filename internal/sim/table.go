package sim

// Table is an append-only, ordered collection of rows.
type Table struct {
	rows []Row
}

func NewTable() *Table { return &Table{} }

func (t *Table) Append(r Row) { t.rows = append(t.rows, r) }

func (t *Table) Len() int { return len(t.rows) }

// Rows returns a copy.
func (t *Table) Rows() []Row { return append([]Row(nil), t.rows...) }

// Missing counts rows without a goodput reading.
func (t *Table) Missing() int {
	n := 0
	for _, r := range t.rows {
		if r.Missing {
			n++
		}
	}
	return n
}

type Group struct {
	Key  string
	Rows []Row
}

// GroupBy partitions rows by key. Groups come out in order of first
// appearance and keep row order inside each group.
func (t *Table) GroupBy(key func(Row) string) []Group {
	idx := make(map[string]int)
	var groups []Group
	for _, r := range t.rows {
		k := key(r)
		i, ok := idx[k]
		if !ok {
			i = len(groups)
			idx[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}

// XY returns the non-missing points of the group.
func (g Group) XY() (xs, ys []float64) {
	for _, r := range g.Rows {
		if r.Missing {
			continue
		}
		xs = append(xs, r.X)
		ys = append(ys, r.GoodputMbps)
	}
	return xs, ys
}
