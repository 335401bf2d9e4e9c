package sm2ec

import "sync"

var (
	generatorTablesOnce sync.Once
	generatorTables     *[2 * ElementSize]window
)

// baseTables returns 64 windows; window i holds the multiples of 16^i·G.
func baseTables() *[2 * ElementSize]window {
	generatorTablesOnce.Do(func() {
		tables := new([2 * ElementSize]window)
		base := NewGenerator()
		for i := range tables {
			tables[i][0] = NewPoint().Set(base)
			for j := 1; j < 15; j++ {
				tables[i][j] = NewPoint().Add(tables[i][j-1], base)
			}
			base.Double(base)
			base.Double(base)
			base.Double(base)
			base.Double(base)
		}
		generatorTables = tables
	})
	return generatorTables
}

// ScalarBaseMult sets p = k·G. The doublings of the windowed method are
// folded into the precomputed tables, leaving one constant-time lookup and
// one addition per nibble.
func (p *Point) ScalarBaseMult(k *Scalar) *Point {
	tables := baseTables()
	t := NewPoint()
	acc := NewPoint()
	index := len(tables) - 1
	for _, b := range k.Bytes() {
		tables[index].lookup(t, b>>4)
		acc.Add(acc, t)
		index--

		tables[index].lookup(t, b&0x0f)
		acc.Add(acc, t)
		index--
	}
	return p.Set(acc)
}
