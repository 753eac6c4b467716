package display

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/himanshub16/dancevote/feed"
	"github.com/himanshub16/dancevote/vote"
)

const (
	TempoUnit = "MPM"
	Separator = " – "
)

var labels = map[vote.Category]string{
	vote.RhythmClarity:   "rhythm clarity",
	vote.GenreTypicality: "genre typicality",
	vote.Popularity:      "popularity",
}

// Button is one voting control bound to a single vote intent.
type Button struct {
	ID     string      `json:"id"`
	Intent vote.Intent `json:"-"`
	Value  int         `json:"value"`
}

// Group holds the five buttons of one category, highest value first.
type Group struct {
	Category vote.Category `json:"category"`
	Label    string        `json:"label"`
	Buttons  []Button      `json:"buttons"`
}

// Block is the rendered form of one feed entry.
type Block struct {
	Index    int64   `json:"index"`
	Hash     string  `json:"hash"`
	Heading  string  `json:"heading"`
	FileName string  `json:"fileName"`
	Genre    string  `json:"genre"`
	Tempo    string  `json:"tempo,omitempty"`
	Groups   []Group `json:"groups"`
}

func NewBlock(e feed.Entry) Block {
	b := Block{
		Index:    e.Index,
		Hash:     e.Hash,
		Heading:  Heading(e.Author, e.Title),
		FileName: e.FileName,
		Genre:    e.Genre,
		Tempo:    Tempo(e.MPM),
	}
	for _, c := range vote.Categories() {
		b.Groups = append(b.Groups, newGroup(e.Hash, c))
	}
	return b
}

func newGroup(hash string, c vote.Category) Group {
	g := Group{Category: c, Label: Label(c)}
	for v := vote.MaxValue; v >= vote.MinValue; v-- {
		i := vote.Intent{SongHash: hash, Category: c, Value: v}
		g.Buttons = append(g.Buttons, Button{ID: ControlID(i), Intent: i, Value: v})
	}
	return g
}

// ControlID names the physical control that emits i.
func ControlID(i vote.Intent) string {
	return fmt.Sprintf("%s/%s/%d", i.SongHash, i.Category, i.Value)
}

// Heading joins author and title; an empty author drops its separator too.
func Heading(author, title string) string {
	author = strings.TrimSpace(author)
	title = strings.TrimSpace(title)
	switch {
	case author == "":
		return title
	case title == "":
		return author
	}
	return author + Separator + title
}

// Tempo formats mpm truncated to one decimal place. Unknown tempo gives "".
func Tempo(mpm float64) string {
	if !(mpm > 0) || math.IsInf(mpm, 0) {
		return ""
	}
	// the small epsilon keeps values like 128.3 from flooring to 128.2
	tenths := math.Floor(mpm*10 + 1e-9)
	return fmt.Sprintf("%.1f %s", tenths/10, TempoUnit)
}

func Label(c vote.Category) string {
	l, ok := labels[c]
	if !ok {
		l = string(c)
	}
	return cases.Title(language.English).String(l)
}
