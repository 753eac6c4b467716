package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanshub16/dancevote/feed"
	"github.com/himanshub16/dancevote/vote"
)

func TestTempo(t *testing.T) {
	tests := []struct {
		name string
		mpm  float64
		want string
	}{
		{name: "truncated to one decimal", mpm: 128.37, want: "128.3 MPM"},
		{name: "exact tenth", mpm: 128.3, want: "128.3 MPM"},
		{name: "whole number", mpm: 30, want: "30.0 MPM"},
		{name: "zero is unknown", mpm: 0, want: ""},
		{name: "negative is unknown", mpm: -4, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tempo(tt.mpm))
		})
	}
}

func TestHeading(t *testing.T) {
	assert.Equal(t, "Juan D'Arienzo – La Cumparsita", Heading("Juan D'Arienzo", "La Cumparsita"))
	assert.Equal(t, "La Cumparsita", Heading("", "La Cumparsita"))
	assert.Equal(t, "Juan D'Arienzo", Heading("Juan D'Arienzo", ""))
	assert.Equal(t, "", Heading("", ""))
}

func TestNewBlock(t *testing.T) {
	b := NewBlock(feed.Entry{Index: 7, Hash: "abc123", FileName: "x.flac", Title: "Poema", Genre: "Tango", MPM: 128.37})

	assert.Equal(t, int64(7), b.Index)
	assert.Equal(t, "Poema", b.Heading)
	assert.Equal(t, "x.flac", b.FileName)
	assert.Equal(t, "Tango", b.Genre)
	assert.Equal(t, "128.3 MPM", b.Tempo)

	require.Len(t, b.Groups, 3)
	assert.Equal(t, vote.RhythmClarity, b.Groups[0].Category)
	assert.Equal(t, "Rhythm Clarity", b.Groups[0].Label)
	assert.Equal(t, vote.GenreTypicality, b.Groups[1].Category)
	assert.Equal(t, vote.Popularity, b.Groups[2].Category)

	ids := make(map[string]bool)
	for _, g := range b.Groups {
		require.Len(t, g.Buttons, 5)
		for i, btn := range g.Buttons {
			assert.Equal(t, 5-i, btn.Value)
			assert.Equal(t, vote.Intent{SongHash: "abc123", Category: g.Category, Value: btn.Value}, btn.Intent)
			assert.False(t, ids[btn.ID], "duplicate control id %s", btn.ID)
			ids[btn.ID] = true
		}
	}
	assert.Equal(t, "abc123/popularity/4", b.Groups[2].Buttons[1].ID)
}

func TestNewBlockWithoutTempo(t *testing.T) {
	b := NewBlock(feed.Entry{Index: 1, Hash: "h"})
	assert.Empty(t, b.Tempo)
}

func TestListPrependNewestFirst(t *testing.T) {
	l := NewList()
	l.Prepend(feed.Entry{Index: 1, Hash: "a"})
	l.Prepend(feed.Entry{Index: 2, Hash: "b"})
	l.Prepend(feed.Entry{Index: 3, Hash: "c"})

	blocks := l.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{blocks[0].Index, blocks[1].Index, blocks[2].Index})
	assert.True(t, l.Shows("b"))
	assert.False(t, l.Shows("z"))

	// snapshot is detached from the list
	blocks[0].Heading = "changed"
	assert.NotEqual(t, "changed", l.Blocks()[0].Heading)
}

func TestListWithEngine(t *testing.T) {
	l := NewList()
	e := feed.NewEngine(nil, l)

	e.Merge(&feed.Entry{Index: 0, Hash: "a"})
	e.Merge(&feed.Entry{Index: 0, Hash: "a"})
	e.Merge(nil)
	e.Merge(&feed.Entry{Index: 1, Hash: "b"})

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, int64(1), l.Blocks()[0].Index)
}

func TestPageRender(t *testing.T) {
	l := NewList()
	l.Prepend(feed.Entry{Index: 0, Hash: "abc123", Author: "<Pugliese>", Title: "Recuerdo", MPM: 31.25})

	var buf bytes.Buffer
	err := NewPage().Render(&buf, PageData{
		Title:  "Now dancing",
		Blocks: l.Blocks(),
		Enabled: func(id string) bool {
			return id != "abc123/popularity/4"
		},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "&lt;Pugliese&gt; – Recuerdo")
	assert.Contains(t, html, "31.2 MPM")
	assert.Equal(t, 15, strings.Count(html, `<button type="submit"`))
	assert.Equal(t, 1, strings.Count(html, "disabled"))
	assert.Contains(t, html, `value="abc123/popularity/4"`)
}
