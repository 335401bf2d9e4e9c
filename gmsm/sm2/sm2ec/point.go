package sm2ec

import (
	"crypto/subtle"
)

// Point is a point on the SM2 curve in projective coordinates (X:Y:Z),
// where x = X/Z and y = Y/Z. The identity has Z = 0. Use NewPoint or
// NewGenerator, the zero value is not a valid point.
type Point struct {
	x, y, z *FieldElement
}

// NewPoint returns the identity.
func NewPoint() *Point {
	return &Point{
		x: NewFieldElement(),
		y: NewFieldElement().One(),
		z: NewFieldElement(),
	}
}

// NewGenerator returns the base point G.
func NewGenerator() *Point {
	return NewPoint().SetGenerator()
}

func (p *Point) SetGenerator() *Point {
	params := P256()
	p.x.Set(fieldFromBytes(params.gx))
	p.y.Set(fieldFromBytes(params.gy))
	p.z.One()
	return p
}

func (p *Point) Set(q *Point) *Point {
	p.x.Set(q.x)
	p.y.Set(q.y)
	p.z.Set(q.z)
	return p
}

// SetAffine sets p to (x, y) given as 32-byte big-endian coordinates.
func (p *Point) SetAffine(x, y []byte) (*Point, error) {
	xe, err := new(FieldElement).SetBytes(x)
	if err != nil {
		return nil, err
	}
	ye, err := new(FieldElement).SetBytes(y)
	if err != nil {
		return nil, err
	}
	if err = checkOnCurve(xe, ye); err != nil {
		return nil, err
	}
	p.x.Set(xe)
	p.y.Set(ye)
	p.z.One()
	return p, nil
}

// SetBytes decodes the SEC 1 encodings of b: 0x00 for the identity, 0x04
// uncompressed, 0x02/0x03 compressed and 0x06/0x07 hybrid. The receiver is
// unchanged on error.
func (p *Point) SetBytes(b []byte) (*Point, error) {
	switch {
	case len(b) == 1 && b[0] == 0:
		return p.Set(NewPoint()), nil
	case len(b) == 1+2*ElementSize && b[0] == 4:
		return p.SetAffine(b[1:1+ElementSize], b[1+ElementSize:])
	case len(b) == 1+2*ElementSize && (b[0] == 6 || b[0] == 7):
		q, err := new(Point).init().SetAffine(b[1:1+ElementSize], b[1+ElementSize:])
		if err != nil {
			return nil, err
		}
		if q.y.IsOdd() != int(b[0]&1) {
			return nil, ErrInvalidEncoding
		}
		return p.Set(q), nil
	case len(b) == 1+ElementSize && (b[0] == 2 || b[0] == 3):
		x, err := new(FieldElement).SetBytes(b[1:])
		if err != nil {
			return nil, err
		}
		y := polynomial(new(FieldElement), x)
		if _, ok := y.Sqrt(y); ok != 1 {
			return nil, ErrPointNotOnCurve
		}
		otherRoot := new(FieldElement).Negate(y)
		cond := y.IsOdd() ^ int(b[0]&1)
		y.Select(otherRoot, y, cond)
		p.x.Set(x)
		p.y.Set(y)
		p.z.One()
		return p, nil
	default:
		return nil, ErrInvalidEncoding
	}
}

func (p *Point) init() *Point {
	p.x = NewFieldElement()
	p.y = NewFieldElement().One()
	p.z = NewFieldElement()
	return p
}

// polynomial sets y2 to x³ - 3x + b.
func polynomial(y2, x *FieldElement) *FieldElement {
	x3 := new(FieldElement).Square(x)
	x3.Mul(x3, x)
	threeX := new(FieldElement).Add(x, x)
	threeX.Add(threeX, x)
	x3.Sub(x3, threeX)
	return y2.Add(x3, curveB())
}

func checkOnCurve(x, y *FieldElement) error {
	rhs := polynomial(new(FieldElement), x)
	lhs := new(FieldElement).Square(y)
	if rhs.Equal(lhs) != 1 {
		return ErrPointNotOnCurve
	}
	return nil
}

// IsOnCurve reports whether the affine coordinates x and y, 32 bytes each,
// are reduced and satisfy the curve equation.
func IsOnCurve(x, y []byte) bool {
	xe, err := new(FieldElement).SetBytes(x)
	if err != nil {
		return false
	}
	ye, err := new(FieldElement).SetBytes(y)
	if err != nil {
		return false
	}
	return checkOnCurve(xe, ye) == nil
}

func (p *Point) IsIdentity() int {
	return p.z.IsZero()
}

// Equal returns 1 if p and q represent the same point.
func (p *Point) Equal(q *Point) int {
	// X1·Z2 == X2·Z1 and Y1·Z2 == Y2·Z1, which also holds between identities.
	lx := new(FieldElement).Mul(p.x, q.z)
	rx := new(FieldElement).Mul(q.x, p.z)
	ly := new(FieldElement).Mul(p.y, q.z)
	ry := new(FieldElement).Mul(q.y, p.z)
	return lx.Equal(rx) & ly.Equal(ry)
}

// Affine returns the affine coordinates of p, or an error for the identity.
func (p *Point) Affine() (x, y []byte, err error) {
	if p.z.IsZero() == 1 {
		err = ErrInvalidEncoding
		return
	}
	xe, ye := p.affine()
	x = xe.Bytes()
	y = ye.Bytes()
	return
}

func (p *Point) affine() (x, y *FieldElement) {
	zinv := new(FieldElement).invert(p.z)
	x = new(FieldElement).Mul(p.x, zinv)
	y = new(FieldElement).Mul(p.y, zinv)
	return
}

// Bytes returns the uncompressed encoding of p, or the single byte 0x00 for
// the identity.
func (p *Point) Bytes() []byte {
	if p.z.IsZero() == 1 {
		return []byte{0}
	}
	x, y := p.affine()
	buf := make([]byte, 0, 1+2*ElementSize)
	buf = append(buf, 4)
	buf = append(buf, x.Bytes()...)
	return append(buf, y.Bytes()...)
}

// BytesCompressed returns 0x02 or 0x03 followed by x, or 0x00 for the
// identity.
func (p *Point) BytesCompressed() []byte {
	if p.z.IsZero() == 1 {
		return []byte{0}
	}
	x, y := p.affine()
	buf := make([]byte, 0, 1+ElementSize)
	buf = append(buf, 2|byte(y.IsOdd()))
	return append(buf, x.Bytes()...)
}

// BytesHybrid returns 0x06 or 0x07 followed by x and y.
func (p *Point) BytesHybrid() []byte {
	if p.z.IsZero() == 1 {
		return []byte{0}
	}
	x, y := p.affine()
	buf := make([]byte, 0, 1+2*ElementSize)
	buf = append(buf, 6|byte(y.IsOdd()))
	buf = append(buf, x.Bytes()...)
	return append(buf, y.Bytes()...)
}

// BytesX returns the 32-byte affine x coordinate of p.
func (p *Point) BytesX() ([]byte, error) {
	if p.z.IsZero() == 1 {
		return nil, ErrInvalidEncoding
	}
	x, _ := p.affine()
	return x.Bytes(), nil
}

// Negate sets p = -q.
func (p *Point) Negate(q *Point) *Point {
	p.x.Set(q.x)
	p.y.Negate(q.y)
	p.z.Set(q.z)
	return p
}

// Add sets q = p1 + p2. The points may overlap.
func (q *Point) Add(p1, p2 *Point) *Point {
	// Complete addition for a = -3, eprint 2015/1060 algorithm 4.
	b := curveB()
	t0 := new(FieldElement).Mul(p1.x, p2.x)
	t1 := new(FieldElement).Mul(p1.y, p2.y)
	t2 := new(FieldElement).Mul(p1.z, p2.z)
	t3 := new(FieldElement).Add(p1.x, p1.y)
	t4 := new(FieldElement).Add(p2.x, p2.y)
	t3.Mul(t3, t4)
	t4.Add(t0, t1)
	t3.Sub(t3, t4)
	t4.Add(p1.y, p1.z)
	x3 := new(FieldElement).Add(p2.y, p2.z)
	t4.Mul(t4, x3)
	x3.Add(t1, t2)
	t4.Sub(t4, x3)
	x3.Add(p1.x, p1.z)
	y3 := new(FieldElement).Add(p2.x, p2.z)
	x3.Mul(x3, y3)
	y3.Add(t0, t2)
	y3.Sub(x3, y3)
	z3 := new(FieldElement).Mul(b, t2)
	x3.Sub(y3, z3)
	z3.Add(x3, x3)
	x3.Add(x3, z3)
	z3.Sub(t1, x3)
	x3.Add(t1, x3)
	y3.Mul(b, y3)
	t1.Add(t2, t2)
	t2.Add(t1, t2)
	y3.Sub(y3, t2)
	y3.Sub(y3, t0)
	t1.Add(y3, y3)
	y3.Add(t1, y3)
	t1.Add(t0, t0)
	t0.Add(t1, t0)
	t0.Sub(t0, t2)
	t1.Mul(t4, y3)
	t2.Mul(t0, y3)
	y3.Mul(x3, z3)
	y3.Add(y3, t2)
	x3.Mul(t3, x3)
	x3.Sub(x3, t1)
	z3.Mul(t4, z3)
	t1.Mul(t3, t0)
	z3.Add(z3, t1)

	q.x.Set(x3)
	q.y.Set(y3)
	q.z.Set(z3)
	return q
}

// Double sets q = p + p. The points may overlap.
func (q *Point) Double(p *Point) *Point {
	// Complete doubling for a = -3, eprint 2015/1060 algorithm 6.
	b := curveB()
	t0 := new(FieldElement).Square(p.x)
	t1 := new(FieldElement).Square(p.y)
	t2 := new(FieldElement).Square(p.z)
	t3 := new(FieldElement).Mul(p.x, p.y)
	t3.Add(t3, t3)
	z3 := new(FieldElement).Mul(p.x, p.z)
	z3.Add(z3, z3)
	y3 := new(FieldElement).Mul(b, t2)
	y3.Sub(y3, z3)
	x3 := new(FieldElement).Add(y3, y3)
	y3.Add(x3, y3)
	x3.Sub(t1, y3)
	y3.Add(t1, y3)
	y3.Mul(x3, y3)
	x3.Mul(x3, t3)
	t3.Add(t2, t2)
	t2.Add(t2, t3)
	z3.Mul(b, z3)
	z3.Sub(z3, t2)
	z3.Sub(z3, t0)
	t3.Add(z3, z3)
	z3.Add(z3, t3)
	t3.Add(t0, t0)
	t0.Add(t3, t0)
	t0.Sub(t0, t2)
	t0.Mul(t0, z3)
	y3.Add(y3, t0)
	t0.Mul(p.y, p.z)
	t0.Add(t0, t0)
	z3.Mul(t0, z3)
	x3.Sub(x3, z3)
	z3.Mul(t0, t1)
	z3.Add(z3, z3)
	z3.Add(z3, z3)

	q.x.Set(x3)
	q.y.Set(y3)
	q.z.Set(z3)
	return q
}

// Select sets q to p1 if cond == 1, and to p2 if cond == 0.
func (q *Point) Select(p1, p2 *Point, cond int) *Point {
	q.x.Select(p1.x, p2.x, cond)
	q.y.Select(p1.y, p2.y, cond)
	q.z.Select(p1.z, p2.z, cond)
	return q
}

// window holds [1]P through [15]P; [0]P is the identity and is not stored.
type window [15]*Point

// lookup copies [n]P into p, reading every entry so the access pattern does
// not depend on n.
func (w *window) lookup(p *Point, n uint8) {
	if n >= 16 {
		panic("sm2ec: internal error: window lookup out of range")
	}
	p.Set(NewPoint())
	for i, f := range w {
		cond := subtle.ConstantTimeByteEq(uint8(i+1), n)
		p.Select(f, p, cond)
	}
}

func newWindow(q *Point) *window {
	w := new(window)
	for i := range w {
		w[i] = NewPoint()
	}
	w[0].Set(q)
	for i := 1; i < 15; i += 2 {
		w[i].Double(w[i/2])
		w[i+1].Add(w[i], q)
	}
	return w
}

// ScalarMult sets p = k·q with a fixed 4-bit window. Every window performs
// the same four doublings, one table scan and one addition, so the
// sequence of operations is independent of k.
func (p *Point) ScalarMult(q *Point, k *Scalar) *Point {
	w := newWindow(q)
	t := NewPoint()
	acc := NewPoint()
	for i, b := range k.Bytes() {
		if i != 0 {
			acc.Double(acc)
			acc.Double(acc)
			acc.Double(acc)
			acc.Double(acc)
		}
		w.lookup(t, b>>4)
		acc.Add(acc, t)

		acc.Double(acc)
		acc.Double(acc)
		acc.Double(acc)
		acc.Double(acc)
		w.lookup(t, b&0x0f)
		acc.Add(acc, t)
	}
	return p.Set(acc)
}
