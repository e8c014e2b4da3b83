package analytics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srikandi-id/harvester/internal/types"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Senin, 12 Feb 2024 10:15 WIB", "2024-02-12"},
		{"Senin, 12 Februari 2024 08:00 WIB", "2024-02-12"},
		{"Selasa, 02 Mei 2025", "2025-05-02"},
		{"5 Agustus 2023", "2023-08-05"},
		{"12/02/2024, 09:00 WIB", "2024-02-12"},
		{"2024-02-12 08:30:00", "2024-02-12"},
		{"Mon, 12 Feb 2024 10:15:00 +0000", "2024-02-12"},
		{"2024/02/12", "2024-02-12"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseDate(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Format(time.DateOnly))
		})
	}

	for _, raw := range []string{"", "2 jam yang lalu", "07:30", "31/02/2024"} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, raw)
	}
}

func TestLengthBucket(t *testing.T) {
	assert.Equal(t, BucketShort, LengthBucket(""))
	assert.Equal(t, BucketShort, LengthBucket(strings.Repeat("a", 200)))
	assert.Equal(t, BucketMedium, LengthBucket(strings.Repeat("a", 201)))
	assert.Equal(t, BucketMedium, LengthBucket(strings.Repeat("é", 500)))
	assert.Equal(t, BucketLong, LengthBucket(strings.Repeat("a", 501)))
}

func TestTopWords(t *testing.T) {
	got := TopWords([]string{
		"Kasus KDRT di Jakarta, korban melapor",
		"Korban KDRT yang lain",
		"No description",
	}, 2)
	assert.Equal(t, []WordCount{{Word: "kdrt", Count: 2}, {Word: "korban", Count: 2}}, got)
}

func TestBuild(t *testing.T) {
	records := []types.ArticleRecord{
		{Title: "Kasus KDRT", Date: "12/02/2024, 09:00 WIB", Content: "pendek", Source: "Kompas.com", KeywordsFound: []string{"kdrt"}},
		{Title: "Korban KDRT", Date: "Senin, 13 Feb 2024", Content: strings.Repeat("x", 300), Source: "Detik.com", KeywordsFound: []string{"kdrt", "korban perempuan"}},
		{Title: "Femicide", Date: "07:30 WIB", Content: strings.Repeat("y", 600), Source: "Detik.com", KeywordsFound: []string{"femicide"}},
	}

	r := Build(records, Options{TopWords: 3})
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 1, r.Undated)
	assert.Equal(t, "2024-02-12", r.FirstDay)
	assert.Equal(t, "2024-02-13", r.LastDay)
	assert.Equal(t, []Count{{"2024-02-12", 1}, {"2024-02-13", 1}}, r.PerDay)
	assert.Equal(t, []Count{{"Detik.com", 2}, {"Kompas.com", 1}}, r.PerSource)
	assert.Equal(t, Count{"kdrt", 2}, r.Keywords[0])
	assert.Len(t, r.Keywords, 3)
	assert.Equal(t, []Count{{BucketShort, 1}, {BucketMedium, 1}, {BucketLong, 1}}, r.Lengths)
	require.NotEmpty(t, r.TopWords)
	assert.Equal(t, "kdrt", r.TopWords[0].Word)
}

func TestBuildEmpty(t *testing.T) {
	r := Build(nil, Options{})
	assert.Zero(t, r.Total)
	assert.Empty(t, r.FirstDay)
	assert.Len(t, r.Lengths, 3)
}
