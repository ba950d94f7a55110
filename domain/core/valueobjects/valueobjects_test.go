package valueobjects

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_Unmarshal(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{"epoch seconds", `1709294400`},
		{"fractional epoch", `1709294400.000000000`},
		{"iso string", `"2024-03-01T12:00:00Z"`},
		{"local iso string", `"2024-03-01T12:00:00"`},
		{"numeric string", `"1709294400"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			assert.True(t, want.Equal(ts.Time), "got %s", ts.Time)
		})
	}

	t.Run("null stays zero", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
		assert.True(t, ts.IsZero())
	})

	t.Run("garbage", func(t *testing.T) {
		var ts Timestamp
		assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	})
}

func TestTimestamp_MarshalRoundTrip(t *testing.T) {
	ts := FromEpoch(1709294400)
	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-03-01T12:00:00Z"`, string(data))

	var back Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, ts.Equal(back.Time))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short", 50))
	assert.Equal(t, "abc...", Preview("abcdef", 3))
	assert.Equal(t, "èèè...", Preview("èèèèè", 3))
	assert.Equal(t, "42", Preview(float64(42), 50))
	assert.Equal(t, `{"a":1}`, Preview(map[string]any{"a": 1}, 50))
}

func TestContentKey(t *testing.T) {
	assert.Equal(t, `StringContent-"Inclusion criteria"`, ContentKey("StringContent", "Inclusion criteria"))
	assert.Equal(t, `IntegerContent-120`, ContentKey("IntegerContent", float64(120)))
	assert.Equal(t, `StringContent-"<b>&</b>"`, ContentKey("StringContent", "<b>&</b>"))
	assert.NotEqual(t, ContentKey("StringContent", "120"), ContentKey("IntegerContent", float64(120)))
}

func TestParsers(t *testing.T) {
	r, err := ParseRole("AUDITOR")
	require.NoError(t, err)
	assert.False(t, r.CanAuthor())
	assert.True(t, RoleSponsor.CanAuthor())
	_, err = ParseRole("admin")
	assert.Error(t, err)

	d, err := ParseDocumentType("SAE_REPORT")
	require.NoError(t, err)
	assert.Equal(t, DocTypeSAEReport, d)
	_, err = ParseDocumentType("MEMO")
	assert.Error(t, err)

	k, err := ParseSectionKind(" image ")
	require.NoError(t, err)
	assert.Equal(t, SectionImage, k)
	_, err = ParseSectionKind("VIDEO")
	assert.Error(t, err)

	assert.Equal(t, "transcluded", ContentTranscluded.Kind())
	assert.Equal(t, "default", ContentType("Mystery").Kind())
}
