package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"insight/internal/record"
)

func TestApplyOrder_SingleKeyAscending(t *testing.T) {
	recs := []record.Record{
		{"c_id": record.String("b"), "c_avg": record.Number(90)},
		{"c_id": record.String("a"), "c_avg": record.Number(70)},
		{"c_id": record.String("c"), "c_avg": record.Number(80)},
	}
	ApplyOrder(&Order{Dir: DirUp, Keys: []string{"c_avg"}}, recs)

	assert.Equal(t, record.Number(70), recs[0]["c_avg"])
	assert.Equal(t, record.Number(80), recs[1]["c_avg"])
	assert.Equal(t, record.Number(90), recs[2]["c_avg"])
}

func TestApplyOrder_Stability(t *testing.T) {
	recs := []record.Record{
		{"c_id": record.String("first"), "c_avg": record.Number(80)},
		{"c_id": record.String("second"), "c_avg": record.Number(80)},
		{"c_id": record.String("third"), "c_avg": record.Number(80)},
	}
	ApplyOrder(&Order{Dir: DirUp, Keys: []string{"c_avg"}}, recs)

	// Ties keep their original relative order.
	assert.Equal(t, record.String("first"), recs[0]["c_id"])
	assert.Equal(t, record.String("second"), recs[1]["c_id"])
	assert.Equal(t, record.String("third"), recs[2]["c_id"])
}

func TestApplyOrder_MultiKeyDown(t *testing.T) {
	recs := []record.Record{
		{"c_dept": record.String("cpsc"), "c_id": record.String("110")},
		{"c_dept": record.String("math"), "c_id": record.String("100")},
		{"c_dept": record.String("cpsc"), "c_id": record.String("310")},
	}
	ApplyOrder(&Order{Dir: DirDown, Keys: []string{"c_dept", "c_id"}}, recs)

	// DOWN reverses each key comparison: math first, then cpsc with the
	// higher id first.
	assert.Equal(t, record.String("math"), recs[0]["c_dept"])
	assert.Equal(t, record.String("310"), recs[1]["c_id"])
	assert.Equal(t, record.String("110"), recs[2]["c_id"])
}

func TestApplyOrder_NilIsNoop(t *testing.T) {
	recs := []record.Record{
		{"c_id": record.String("b")},
		{"c_id": record.String("a")},
	}
	ApplyOrder(nil, recs)
	assert.Equal(t, record.String("b"), recs[0]["c_id"])
}

func TestCompareValues(t *testing.T) {
	assert.Equal(t, -1, compareValues(record.Number(1), record.Number(2)))
	assert.Equal(t, 1, compareValues(record.Number(2), record.Number(1)))
	assert.Equal(t, 0, compareValues(record.Number(2), record.Number(2)))
	assert.Equal(t, -1, compareValues(record.String("a"), record.String("b")))
	assert.Equal(t, 0, compareValues(record.String("a"), record.String("a")))
	assert.Equal(t, -1, compareValues(nil, record.String("a")))
	assert.Equal(t, -1, compareValues(record.Number(1), record.String("a")))
}

func TestProject(t *testing.T) {
	recs := []record.Record{
		{"c_dept": record.String("cpsc"), "c_avg": record.Number(80), "c_pass": record.Number(100)},
	}
	got := Project([]string{"c_dept", "c_avg"}, recs)

	assert.Equal(t, []record.Record{
		{"c_dept": record.String("cpsc"), "c_avg": record.Number(80)},
	}, got)

	// Projection builds fresh records.
	assert.Len(t, recs[0], 3)
}
