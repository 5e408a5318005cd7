package star

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(20240105), DateKey(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(19991231), DateKey(time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)))
	// Time of day does not matter, only the date.
	assert.Equal(t, int64(20240630), DateKey(time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC)))
}

func TestTableColumnIndex(t *testing.T) {
	t.Parallel()

	tbl := Table{
		Name:    "fact_sales",
		Columns: []string{"sales_id", "order_id", "sales_amount"},
		Types:   []string{TypeInteger, TypeText, TypeReal},
	}

	require.Equal(t, 0, tbl.ColumnIndex("sales_id"))
	require.Equal(t, 2, tbl.ColumnIndex("sales_amount"))
	require.Equal(t, -1, tbl.ColumnIndex("discount"))
}

func TestTableEmpty(t *testing.T) {
	t.Parallel()

	tbl := Table{Columns: []string{"a"}, Types: []string{TypeText}}
	assert.True(t, tbl.Empty())

	tbl.Rows = append(tbl.Rows, []any{"x"})
	assert.False(t, tbl.Empty())
}
