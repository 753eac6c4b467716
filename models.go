// this file defines the data structures used throughout the server
package main

import (
	"github.com/himanshub16/dancevote/feed"
	"github.com/himanshub16/dancevote/vote"
)

// Song is a played song as stored in the playlist. Index is assigned on
// insert and never changes.
type Song struct {
	Index    int64   `db:"idx" json:"index"`
	Hash     string  `db:"hash" json:"hash"`
	FileName string  `db:"file_name" json:"fileName"`
	Author   string  `db:"author" json:"author"`
	Title    string  `db:"title" json:"title"`
	Genre    string  `db:"genre" json:"genre"`
	MPM      float64 `db:"mpm" json:"mpm"`
	PlayedAt int64   `db:"played_at" json:"playedAt"`
}

func (s Song) Entry() feed.Entry {
	return feed.Entry{
		Index:    s.Index,
		Hash:     s.Hash,
		FileName: s.FileName,
		Author:   s.Author,
		Title:    s.Title,
		Genre:    s.Genre,
		MPM:      s.MPM,
	}
}

type Vote struct {
	VoteID    string        `db:"vote_id" json:"vote_id"`
	SongHash  string        `db:"song_hash" json:"song_hash"`
	Category  vote.Category `db:"category" json:"category"`
	Value     int           `db:"value" json:"value"`
	CreatedAt int64         `db:"created_at" json:"created_at"`
}

type CategoryTally struct {
	Category vote.Category `db:"category" json:"category"`
	Votes    int64         `db:"votes" json:"votes"`
	Mean     float64       `db:"mean" json:"mean"`
}
