package nutrition

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/raseed/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	input := `item,protein,fiber,carbs,fat,calories
Banana,1.1,2.6,22.8,0.3,89
Chicken Breast,31,0,0,3.6,165
,1,1,1,1,1
Oats,not-a-number,10.6,66,6.9,389
`
	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.True(t, table.Available())
	assert.Equal(t, []string{"banana", "chicken breast", "oats"}, table.Keys())

	banana, ok := table.Lookup("BANANA")
	require.True(t, ok)
	assert.InDelta(t, 1.1, banana.Protein, 1e-9)
	assert.InDelta(t, 89, banana.Calories, 1e-9)

	oats, ok := table.Lookup("oats")
	require.True(t, ok)
	assert.Zero(t, oats.Protein)
	assert.InDelta(t, 10.6, oats.Fiber, 1e-9)

	rows := table.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "Banana", rows[0].Item)
	assert.Equal(t, "Oats", rows[2].Item)
}

func TestReadCSV_ColumnOrderAndErrors(t *testing.T) {
	t.Run("reordered columns", func(t *testing.T) {
		table, err := ReadCSV(strings.NewReader("calories,item\n52,Apple\n"))
		require.NoError(t, err)
		apple, ok := table.Lookup("apple")
		require.True(t, ok)
		assert.InDelta(t, 52, apple.Calories, 1e-9)
	})

	t.Run("empty input", func(t *testing.T) {
		table, err := ReadCSV(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, 0, table.Len())
	})

	t.Run("missing item column", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("name,protein\nx,1\n"))
		require.Error(t, err)
	})
}

func TestLoadCSV_Missing(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNilTable(t *testing.T) {
	var table *Table
	assert.False(t, table.Available())
	assert.Equal(t, 0, table.Len())
	assert.Nil(t, table.Keys())
	assert.Nil(t, table.Rows())
	_, ok := table.Lookup("anything")
	assert.False(t, ok)
}

func TestTableAdd(t *testing.T) {
	table := NewTable(
		model.NutritionFacts{Item: "Milk", Protein: 3.4},
		model.NutritionFacts{Item: "Rice", Protein: 2.7},
	)
	table.Add(model.NutritionFacts{Item: "milk", Protein: 3.3})
	table.Add(model.NutritionFacts{Item: "  "})

	assert.Equal(t, 2, table.Len())
	rows := table.Rows()
	assert.Equal(t, "milk", rows[0].Item)
	assert.InDelta(t, 3.3, rows[0].Protein, 1e-9)
}

func TestAppendCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.csv")

	require.NoError(t, AppendCSV(path, model.NutritionFacts{Item: "Tofu", Protein: 8, Fiber: 0.3, Carbs: 1.9, Fat: 4.8, Calories: 76}))
	require.NoError(t, AppendCSV(path, model.NutritionFacts{Item: "Lentils, cooked", Protein: 9.02, Calories: 116}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"item,protein,fiber,carbs,fat,calories\n"+
			"Tofu,8,0.3,1.9,4.8,76\n"+
			"\"Lentils, cooked\",9.02,0,0,0,116\n",
		string(data))

	table, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	lentils, ok := table.Lookup("lentils, cooked")
	require.True(t, ok)
	assert.InDelta(t, 9.02, lentils.Protein, 1e-9)
}
