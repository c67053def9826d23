package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight/internal/record"
)

func TestApplyTransformations_GroupOrder(t *testing.T) {
	recs := []record.Record{
		{"c_dept": record.String("math"), "c_avg": record.Number(70)},
		{"c_dept": record.String("cpsc"), "c_avg": record.Number(80)},
		{"c_dept": record.String("math"), "c_avg": record.Number(90)},
	}
	trans := &Transformations{
		Group: []string{"c_dept"},
		Apply: []ApplyRule{{Name: "maxAvg", Token: TokenMax, Key: "c_avg"}},
	}

	got := ApplyTransformations(trans, recs)
	require.Len(t, got, 2)

	// Insertion order of first occurrence determines group order.
	assert.Equal(t, record.String("math"), got[0]["c_dept"])
	assert.Equal(t, record.Number(90), got[0]["maxAvg"])
	assert.Equal(t, record.String("cpsc"), got[1]["c_dept"])
	assert.Equal(t, record.Number(80), got[1]["maxAvg"])
}

func TestApplyTransformations_MinMax(t *testing.T) {
	recs := []record.Record{
		{"c_dept": record.String("cpsc"), "c_avg": record.Number(62.1)},
		{"c_dept": record.String("cpsc"), "c_avg": record.Number(88.4)},
		{"c_dept": record.String("cpsc"), "c_avg": record.Number(71.3)},
	}
	trans := &Transformations{
		Group: []string{"c_dept"},
		Apply: []ApplyRule{
			{Name: "hi", Token: TokenMax, Key: "c_avg"},
			{Name: "lo", Token: TokenMin, Key: "c_avg"},
		},
	}

	got := ApplyTransformations(trans, recs)
	require.Len(t, got, 1)
	assert.Equal(t, record.Number(88.4), got[0]["hi"])
	assert.Equal(t, record.Number(62.1), got[0]["lo"])
}

func TestApplyTransformations_SumDecimalAccumulation(t *testing.T) {
	// 1.005 + 1.005 + 1.00 must come out 3.01, not 3.0099999....
	recs := []record.Record{
		{"c_dept": record.String("x"), "c_avg": record.Number(1.005)},
		{"c_dept": record.String("x"), "c_avg": record.Number(1.005)},
		{"c_dept": record.String("x"), "c_avg": record.Number(1.00)},
	}
	trans := &Transformations{
		Group: []string{"c_dept"},
		Apply: []ApplyRule{{Name: "total", Token: TokenSum, Key: "c_avg"}},
	}

	got := ApplyTransformations(trans, recs)
	require.Len(t, got, 1)
	assert.Equal(t, record.Number(3.01), got[0]["total"])
}

func TestApplyTransformations_AvgRounding(t *testing.T) {
	recs := []record.Record{
		{"c_dept": record.String("x"), "c_avg": record.Number(70)},
		{"c_dept": record.String("x"), "c_avg": record.Number(80)},
		{"c_dept": record.String("x"), "c_avg": record.Number(91)},
	}
	trans := &Transformations{
		Group: []string{"c_dept"},
		Apply: []ApplyRule{{Name: "mean", Token: TokenAvg, Key: "c_avg"}},
	}

	got := ApplyTransformations(trans, recs)
	require.Len(t, got, 1)
	// 241 / 3 = 80.333..., rounded to 2 decimal places.
	assert.Equal(t, record.Number(80.33), got[0]["mean"])
}

func TestApplyTransformations_CountDistinct(t *testing.T) {
	recs := []record.Record{
		{"c_dept": record.String("x"), "c_instructor": record.String("smith")},
		{"c_dept": record.String("x"), "c_instructor": record.String("jones")},
		{"c_dept": record.String("x"), "c_instructor": record.String("smith")},
		{"c_dept": record.String("x"), "c_instructor": record.String("")},
	}
	trans := &Transformations{
		Group: []string{"c_dept"},
		Apply: []ApplyRule{{Name: "teachers", Token: TokenCount, Key: "c_instructor"}},
	}

	got := ApplyTransformations(trans, recs)
	require.Len(t, got, 1)
	assert.Equal(t, record.Number(3), got[0]["teachers"])
}

func TestApplyTransformations_MultiKeyGroupNoCollision(t *testing.T) {
	// ("ab", "c") and ("a", "bc") are distinct tuples.
	recs := []record.Record{
		{"c_dept": record.String("ab"), "c_id": record.String("c"), "c_avg": record.Number(1)},
		{"c_dept": record.String("a"), "c_id": record.String("bc"), "c_avg": record.Number(2)},
	}
	trans := &Transformations{
		Group: []string{"c_dept", "c_id"},
		Apply: []ApplyRule{{Name: "n", Token: TokenCount, Key: "c_avg"}},
	}

	got := ApplyTransformations(trans, recs)
	assert.Len(t, got, 2)
}

func TestApplyTransformations_DoesNotMutateInput(t *testing.T) {
	recs := []record.Record{
		{"c_dept": record.String("x"), "c_avg": record.Number(70)},
	}
	trans := &Transformations{
		Group: []string{"c_dept"},
		Apply: []ApplyRule{{Name: "mean", Token: TokenAvg, Key: "c_avg"}},
	}

	_ = ApplyTransformations(trans, recs)
	_, leaked := recs[0]["mean"]
	assert.False(t, leaked, "aggregate fields must not leak into stored records")
}
