package concordance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeVectorRoundTrips(t *testing.T) {
	v := Vector{{Index: 3, Weight: 1.5}, {Index: 1, Weight: 0.25}}
	blob := EncodeVector(v)
	got := DecodeVector(blob)

	assert.Len(t, got, 2)
	assert.Equal(t, uint32(1), got[0].Index)
	assert.Equal(t, uint32(3), got[1].Index)
	assert.InDelta(t, 0.25, got[0].Weight, 1e-6)
}

func TestEncodeVectorEmptyIsZeroLengthBlob(t *testing.T) {
	assert.Len(t, EncodeVector(nil), 0)
	assert.Nil(t, DecodeVector(nil))
}

func TestWeightDropsNonPositive(t *testing.T) {
	assert.Equal(t, 0.0, Weight(0, 5, 10))
	assert.Equal(t, 0.0, Weight(5, 0, 10))
	assert.Equal(t, 0.0, Weight(5, 10, 0))
}

func TestWeightMatchesFormula(t *testing.T) {
	got := Weight(2, 5, 100)
	want := (1 + math.Log(2)) * math.Log(100.0/5)
	assert.InDelta(t, want, got, 1e-9)
}

func TestCosineZeroNorm(t *testing.T) {
	assert.Equal(t, 0.0, Cosine(nil, Vector{{Index: 1, Weight: 1}}))
	assert.Equal(t, 0.0, Cosine(Vector{{Index: 1, Weight: 1}}, nil))
}

func TestCosineIntersectionOnly(t *testing.T) {
	a := Vector{{Index: 1, Weight: 1}, {Index: 2, Weight: 2}}
	b := Vector{{Index: 2, Weight: 2}, {Index: 3, Weight: 3}}
	got := Cosine(a, b)
	wantDot := 2.0 * 2.0
	wantNormA := math.Sqrt(1*1 + 2*2)
	wantNormB := math.Sqrt(2*2 + 3*3)
	assert.InDelta(t, wantDot/(wantNormA*wantNormB), got, 1e-9)
}

func TestCosineIdenticalVectorsIsOne(t *testing.T) {
	a := Vector{{Index: 1, Weight: 2}, {Index: 5, Weight: 3}}
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
}
