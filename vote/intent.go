package vote

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// Category is one of the fixed rating dimensions a voter can score.
type Category string

const (
	RhythmClarity   Category = "rhythmClarity"
	GenreTypicality Category = "genreTypicality"
	Popularity      Category = "popularity"
)

const (
	MinValue = 1
	MaxValue = 5
)

// Form field names understood by the rating backend.
const (
	FieldSongHash  = "songHash"
	FieldVoteType  = "voteType"
	FieldVoteValue = "voteValue"
)

var (
	ErrInvalidCategory = errors.New("invalid vote category")
	ErrInvalidValue    = errors.New("vote value out of range")
	ErrMissingHash     = errors.New("missing song hash")
)

// Categories returns the categories in display order.
func Categories() []Category {
	return []Category{RhythmClarity, GenreTypicality, Popularity}
}

func (c Category) Valid() bool {
	switch c {
	case RhythmClarity, GenreTypicality, Popularity:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Intent is the ephemeral (songHash, category, value) triple produced by a
// single activation of a rating control.
type Intent struct {
	SongHash string
	Category Category
	Value    int
}

func (i Intent) Validate() error {
	if i.SongHash == "" {
		return ErrMissingHash
	}
	if !i.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, i.Category)
	}
	if i.Value < MinValue || i.Value > MaxValue {
		return fmt.Errorf("%w: %d", ErrInvalidValue, i.Value)
	}
	return nil
}

// Form encodes the intent as the three form fields of a vote request.
func (i Intent) Form() url.Values {
	form := url.Values{}
	form.Set(FieldSongHash, i.SongHash)
	form.Set(FieldVoteType, string(i.Category))
	form.Set(FieldVoteValue, strconv.Itoa(i.Value))
	return form
}

// ParseForm is the inverse of Form. The result is validated.
func ParseForm(form url.Values) (Intent, error) {
	value, err := strconv.Atoi(form.Get(FieldVoteValue))
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %q", ErrInvalidValue, form.Get(FieldVoteValue))
	}
	i := Intent{
		SongHash: form.Get(FieldSongHash),
		Category: Category(form.Get(FieldVoteType)),
		Value:    value,
	}
	return i, i.Validate()
}
