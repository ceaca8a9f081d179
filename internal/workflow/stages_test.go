package workflow

import (
	"testing"

	"github.com/alexanderramin/jess/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStages_Shape(t *testing.T) {
	set := DefaultStages()

	assert.Equal(t, domain.KindEHCAssessment, set.Kind)
	require.Equal(t, 8, set.Count())
	assert.Equal(t, 7, set.Last())
	assert.Equal(t, "child_information", set.At(0).Key)
	assert.Equal(t, "recommendations", set.At(set.Last()).Key)

	assert.True(t, set.At(0).Owns("child_name"))
	assert.True(t, set.At(1).Owns("family_background"))
	assert.False(t, set.At(0).Owns("family_background"))

	f, ok := set.Field("referral_reason")
	require.True(t, ok)
	assert.True(t, f.Multiline)
}

func TestDefaultStages_KeysDisjoint(t *testing.T) {
	set := DefaultStages()
	owner := make(map[string]string)
	for _, st := range set.Stages {
		for _, k := range st.Keys() {
			prev, dup := owner[k]
			assert.False(t, dup, "key %q owned by %q and %q", k, prev, st.Key)
			owner[k] = st.Key
		}
	}
}

func TestParseStages_RejectsSharedKey(t *testing.T) {
	data := []byte(`
kind: ehc_assessment
stages:
  - key: one
    title: One
    fields:
      - key: shared
  - key: two
    title: Two
    fields:
      - key: shared
`)
	_, err := ParseStages(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already owned")
}

func TestParseStages_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown kind", "kind: iep\nstages:\n  - key: a\n    title: A\n    fields:\n      - key: x\n", "unknown record kind"},
		{"no stages", "kind: ehc_assessment\nstages: []\n", "no stages"},
		{"missing title", "kind: ehc_assessment\nstages:\n  - key: a\n    fields:\n      - key: x\n", "key and title"},
		{"no fields", "kind: ehc_assessment\nstages:\n  - key: a\n    title: A\n", "no fields"},
		{"bad yaml", "kind: [", "decoding stages"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStages([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestField_ReportLabel(t *testing.T) {
	assert.Equal(t, "Child Name", Field{Key: "child_name"}.ReportLabel())
	assert.Equal(t, "Views", Field{Key: "child_views", Label: "Views"}.ReportLabel())
	assert.Equal(t, "Key  Needs", titleKey("key__needs"))
}
