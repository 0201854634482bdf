package record

// OutOfOrder returns the 1-based line numbers of records whose key sorts
// before the key of the preceding record. An empty result means Upsert will
// keep the file globally sorted.
func OutOfOrder(f File) []int {
	var (
		out  []int
		prev string
		seen bool
	)
	for i, l := range f.lines {
		if l.Kind != LineRecord {
			continue
		}
		k := l.Record.Key()
		if seen && k < prev {
			out = append(out, i+1)
		}
		prev, seen = k, true
	}
	return out
}
