package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight/internal/record"
)

func sections() []record.Record {
	return []record.Record{
		{"c_dept": record.String("cpsc"), "c_id": record.String("110"), "c_avg": record.Number(75.2)},
		{"c_dept": record.String("cpsc"), "c_id": record.String("310"), "c_avg": record.Number(82.5)},
		{"c_dept": record.String("math"), "c_id": record.String("100"), "c_avg": record.Number(68.9)},
		{"c_dept": record.String("math"), "c_id": record.String("200"), "c_avg": record.Number(91.0)},
		{"c_dept": record.String("biol"), "c_id": record.String("112"), "c_avg": record.Number(82.5)},
	}
}

func depts(recs []record.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = string(r["c_dept"].(record.String)) + string(r["c_id"].(record.String))
	}
	return out
}

func TestApplyFilter_EmptyWhereIsIdentity(t *testing.T) {
	recs := sections()
	got := ApplyFilter(All{}, recs)
	assert.Equal(t, recs, got)
}

func TestApplyFilter_Comparisons(t *testing.T) {
	recs := sections()

	got := ApplyFilter(MComparison{Op: OpGT, Key: "c_avg", Value: 80}, recs)
	assert.Equal(t, []string{"cpsc310", "math200", "biol112"}, depts(got))

	got = ApplyFilter(MComparison{Op: OpLT, Key: "c_avg", Value: 70}, recs)
	assert.Equal(t, []string{"math100"}, depts(got))

	got = ApplyFilter(MComparison{Op: OpEQ, Key: "c_avg", Value: 82.5}, recs)
	assert.Equal(t, []string{"cpsc310", "biol112"}, depts(got))
}

func TestApplyFilter_MissingKeyNeverMatches(t *testing.T) {
	recs := sections()
	got := ApplyFilter(MComparison{Op: OpGT, Key: "c_pass", Value: 0}, recs)
	assert.Empty(t, got)
}

func TestApplyFilter_Is(t *testing.T) {
	recs := sections()
	got := ApplyFilter(SComparison{Key: "c_dept", Value: "math"}, recs)
	assert.Equal(t, []string{"math100", "math200"}, depts(got))

	got = ApplyFilter(SComparison{Key: "c_dept", Value: "chem"}, recs)
	assert.Empty(t, got)
}

func TestApplyFilter_And(t *testing.T) {
	recs := sections()
	f := And{Filters: []Filter{
		SComparison{Key: "c_dept", Value: "cpsc"},
		MComparison{Op: OpGT, Key: "c_avg", Value: 80},
	}}
	got := ApplyFilter(f, recs)
	assert.Equal(t, []string{"cpsc310"}, depts(got))

	// AND result is a subset of each branch result.
	left := ApplyFilter(f.Filters[0], recs)
	right := ApplyFilter(f.Filters[1], recs)
	for _, r := range got {
		assert.Contains(t, left, r)
		assert.Contains(t, right, r)
	}
}

func TestApplyFilter_OrIsSetUnion(t *testing.T) {
	recs := sections()
	// Both branches match cpsc310; the union must not duplicate it.
	f := Or{Filters: []Filter{
		SComparison{Key: "c_dept", Value: "cpsc"},
		MComparison{Op: OpGT, Key: "c_avg", Value: 80},
	}}
	got := ApplyFilter(f, recs)
	assert.Equal(t, []string{"cpsc110", "cpsc310", "math200", "biol112"}, depts(got))
}

func TestApplyFilter_Not(t *testing.T) {
	recs := sections()
	got := ApplyFilter(Not{Inner: SComparison{Key: "c_dept", Value: "math"}}, recs)
	assert.Equal(t, []string{"cpsc110", "cpsc310", "biol112"}, depts(got))
}

func TestApplyFilter_DoubleNegation(t *testing.T) {
	recs := sections()
	inner := MComparison{Op: OpGT, Key: "c_avg", Value: 80}
	direct := ApplyFilter(inner, recs)
	doubled := ApplyFilter(Not{Inner: Not{Inner: inner}}, recs)
	assert.Equal(t, direct, doubled)
}

func TestApplyFilter_NestedNotInsideAnd(t *testing.T) {
	recs := sections()
	// NOT complements within the full record set at its level.
	f := And{Filters: []Filter{
		Not{Inner: SComparison{Key: "c_dept", Value: "cpsc"}},
		MComparison{Op: OpGT, Key: "c_avg", Value: 80},
	}}
	got := ApplyFilter(f, recs)
	assert.Equal(t, []string{"math200", "biol112"}, depts(got))
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		s       string
		pattern string
		want    bool
	}{
		{"CPSC110", "CPSC*", true},
		{"MATH100", "CPSC*", false},
		{"Computer Science", "*Science*", true},
		{"Science Fiction", "*Science*", true},
		{"Arts", "*Science*", false},
		{"CPSC110", "*110", true},
		{"CPSC110", "*111", false},
		{"anything", "*", true},
		{"anything", "**", true},
		{"exact", "exact", true},
		{"exact", "exac", false},
		{"", "*", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchPattern(tt.s, tt.pattern), "%q against %q", tt.s, tt.pattern)
	}
}

func TestApplyFilter_InputNotMutated(t *testing.T) {
	recs := sections()
	want := depts(recs)
	_ = ApplyFilter(Not{Inner: MComparison{Op: OpGT, Key: "c_avg", Value: 80}}, recs)
	require.Equal(t, want, depts(recs))
}

func TestApplyFilter_MatchAllResultSortsWithoutMutatingInput(t *testing.T) {
	recs := sections()
	want := depts(recs)

	got := ApplyFilter(All{}, recs)
	ApplyOrder(&Order{Dir: DirUp, Keys: []string{"c_avg"}}, got)

	assert.Equal(t, []string{"math100", "cpsc110", "cpsc310", "biol112", "math200"}, depts(got))
	require.Equal(t, want, depts(recs), "dataset order must survive a sorted match-all query")
}
