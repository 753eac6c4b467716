package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillSongMeta(t *testing.T) {
	tests := []struct {
		name   string
		in     Song
		author string
		title  string
	}{
		{"author and title from file name", Song{FileName: "music/Ravel - Bolero.mp3"}, "Ravel", "Bolero"},
		{"windows path", Song{FileName: `C:\music\Ravel - Bolero.flac`}, "Ravel", "Bolero"},
		{"title only file name", Song{FileName: "Bolero.mp3"}, "", "Bolero"},
		{"reported title wins", Song{FileName: "Ravel - Bolero.mp3", Title: " Bolero (live) "}, "", "Bolero (live)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			song := tt.in
			require.NoError(t, FillSongMeta(&song))
			assert.Equal(t, tt.author, song.Author)
			assert.Equal(t, tt.title, song.Title)
			assert.NotEmpty(t, song.Hash)
			assert.NotZero(t, song.PlayedAt)
		})
	}
}

func TestFillSongMetaHashIsStable(t *testing.T) {
	a := Song{FileName: "Ravel - Bolero.mp3"}
	b := Song{FileName: " Ravel - Bolero.mp3 "}
	c := Song{FileName: "Ravel - Pavane.mp3"}
	require.NoError(t, FillSongMeta(&a))
	require.NoError(t, FillSongMeta(&b))
	require.NoError(t, FillSongMeta(&c))

	assert.Equal(t, a.Hash, b.Hash)
	assert.NotEqual(t, a.Hash, c.Hash)
}

func TestFillSongMetaKeepsReportedHash(t *testing.T) {
	song := Song{Hash: " abc123 ", FileName: "x.mp3", PlayedAt: 42}
	require.NoError(t, FillSongMeta(&song))
	assert.Equal(t, "abc123", song.Hash)
	assert.Equal(t, int64(42), song.PlayedAt)
}

func TestFillSongMetaTempo(t *testing.T) {
	for _, mpm := range []float64{-1, math.NaN(), math.Inf(1)} {
		song := Song{Hash: "h", MPM: mpm}
		require.NoError(t, FillSongMeta(&song))
		assert.Zero(t, song.MPM)
	}

	song := Song{Hash: "h", MPM: 128.37}
	require.NoError(t, FillSongMeta(&song))
	assert.Equal(t, 128.37, song.MPM)
}

func TestFillSongMetaNeedsIdentity(t *testing.T) {
	song := Song{Title: "Bolero", Author: "Ravel"}
	assert.ErrorIs(t, FillSongMeta(&song), ErrInvalidSong)
}
