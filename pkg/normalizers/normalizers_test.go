package normalizers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quriousri/foxglove/pkg/models"
)

func TestReformatDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *string
	}{
		{"valid date", "20240115", strPtr("2024-01-15")},
		{"empty", "", nil},
		{"too short", "2024011", nil},
		{"too long", "202401155", nil},
		{"not validated against calendar", "20241399", strPtr("2024-13-99")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReformatDate(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestFormatSubmissionDate(t *testing.T) {
	got := FormatSubmissionDate("20240115")
	require.NotNil(t, got)
	assert.Equal(t, "15-01-2024", *got)

	assert.Nil(t, FormatSubmissionDate(""))
	assert.Nil(t, FormatSubmissionDate("2024-01-15"))
}

func TestJoinIngredientStrengths(t *testing.T) {
	assert.Equal(t, "", JoinIngredientStrengths(nil))

	got := JoinIngredientStrengths([]models.ActiveIngredient{
		{Name: "ASPIRIN", Strength: "50MG"},
	})
	assert.Equal(t, "ASPIRIN-50MG", got)

	got = JoinIngredientStrengths([]models.ActiveIngredient{
		{Name: "X"},
		{Name: "Y", Strength: "1MG"},
	})
	assert.Equal(t, "X, Y-1MG", got)

	// nameless ingredients are dropped, order preserved
	got = JoinIngredientStrengths([]models.ActiveIngredient{
		{Strength: "5MG"},
		{Name: "B", Strength: "2MG"},
		{Name: "A", Strength: "1MG"},
	})
	assert.Equal(t, "B-2MG, A-1MG", got)
}

func TestJoinIngredientNames(t *testing.T) {
	assert.Equal(t, "", JoinIngredientNames(nil))

	got := JoinIngredientNames([]models.ActiveIngredient{
		{Name: "ACETAMINOPHEN", Strength: "325MG"},
		{Name: "BUTALBITAL", Strength: "50MG"},
		{Name: "CAFFEINE", Strength: "40MG"},
	})
	assert.Equal(t, "ACETAMINOPHEN, BUTALBITAL, CAFFEINE", got)
}

func TestApplicationTypePrefix(t *testing.T) {
	got := ApplicationTypePrefix("NDA021234")
	require.NotNil(t, got)
	assert.Equal(t, "NDA", *got)

	got = ApplicationTypePrefix("ANDA040404")
	require.NotNil(t, got)
	assert.Equal(t, "ANDA", *got)

	assert.Nil(t, ApplicationTypePrefix(""))
	assert.Nil(t, ApplicationTypePrefix("021234"))
	assert.Nil(t, ApplicationTypePrefix("nda021234"))
}

func TestFirstOrNull(t *testing.T) {
	assert.Nil(t, FirstOrNull(nil))
	assert.Nil(t, FirstOrNull(models.FlexStrings{}))

	got := FirstOrNull(models.FlexStrings{"first", "second"})
	require.NotNil(t, got)
	assert.Equal(t, "first", *got)
}

func TestFirstOrNull_ScalarOrArrayJSON(t *testing.T) {
	// openfda fields arrive as either a scalar or an array
	var scalar models.FlexStrings
	require.NoError(t, json.Unmarshal([]byte(`"NDA021234"`), &scalar))
	got := FirstOrNull(scalar)
	require.NotNil(t, got)
	assert.Equal(t, "NDA021234", *got)

	var arr models.FlexStrings
	require.NoError(t, json.Unmarshal([]byte(`["NDA021234","NDA021235"]`), &arr))
	got = FirstOrNull(arr)
	require.NotNil(t, got)
	assert.Equal(t, "NDA021234", *got)

	var other models.FlexStrings
	require.NoError(t, json.Unmarshal([]byte(`{"unexpected":true}`), &other))
	assert.Nil(t, FirstOrNull(other))
}

func strPtr(s string) *string {
	return &s
}
