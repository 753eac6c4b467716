package main

import "errors"

var ErrNotFound = errors.New("not found")

type PlaylistRepository interface {
	// AppendSong stores a played song and returns its feed index. Indices
	// are strictly increasing in commit order.
	AppendSong(song Song) (int64, error)
	SongsFrom(start int64, limit int) ([]Song, error)
	LatestSongs(limit int) ([]Song, error)
	SongByHash(hash string) (*Song, error)
	close()
}

type VoteRepository interface {
	InsertVote(v Vote) error
	TallyForSong(hash string) ([]CategoryTally, error)
	close()
}
