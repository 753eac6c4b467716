package main

import (
	"errors"
	"math"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidSong = errors.New("song needs a hash or a file name")

// songNamespace scopes hashes derived from file names.
var songNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("dancevote/song"))

// FillSongMeta normalises what the playback application reported for a
// played song: it derives a hash from the file name when none is given and
// recovers author and title from "Author - Title.ext" style names.
func FillSongMeta(song *Song) error {
	song.Hash = strings.TrimSpace(song.Hash)
	song.FileName = strings.TrimSpace(song.FileName)
	song.Author = strings.TrimSpace(song.Author)
	song.Title = strings.TrimSpace(song.Title)
	song.Genre = strings.TrimSpace(song.Genre)

	if song.Hash == "" && song.FileName == "" {
		return ErrInvalidSong
	}
	if song.Hash == "" {
		song.Hash = uuid.NewSHA1(songNamespace, []byte(song.FileName)).String()
	}

	if song.Author == "" && song.Title == "" && song.FileName != "" {
		song.Author, song.Title = splitFileName(song.FileName)
	}

	if song.MPM < 0 || math.IsNaN(song.MPM) || math.IsInf(song.MPM, 0) {
		song.MPM = 0
	}
	if song.PlayedAt == 0 {
		song.PlayedAt = time.Now().Unix()
	}
	return nil
}

func splitFileName(fileName string) (author, title string) {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	parts := strings.SplitN(base, " - ", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return "", strings.TrimSpace(base)
}
