package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/gommon/log"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sqlx.DB
}

func (r *SQLiteRepository) AppendSong(song Song) (int64, error) {
	query := `
	  INSERT INTO songs (hash, file_name, author, title, genre, mpm, played_at)
	  VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.Exec(query, song.Hash, song.FileName, song.Author, song.Title,
		song.Genre, song.MPM, song.PlayedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting song: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) SongsFrom(start int64, limit int) ([]Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE idx >= ? ORDER BY idx ASC LIMIT ?`

	songs := make([]Song, 0)
	if err := r.db.Select(&songs, query, start, limit); err != nil {
		return nil, err
	}
	return songs, nil
}

func (r *SQLiteRepository) LatestSongs(limit int) ([]Song, error) {
	query := `
	  SELECT ` + songColumns + ` FROM (
		SELECT ` + songColumns + ` FROM songs ORDER BY idx DESC LIMIT ?
	  ) ORDER BY idx ASC`

	songs := make([]Song, 0)
	if err := r.db.Select(&songs, query, limit); err != nil {
		return nil, err
	}
	return songs, nil
}

func (r *SQLiteRepository) SongByHash(hash string) (*Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE hash = ? ORDER BY idx DESC LIMIT 1`

	s := &Song{}
	err := r.db.Get(s, query, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SQLiteRepository) InsertVote(v Vote) error {
	query := `
	  INSERT INTO votes (vote_id, song_hash, category, value, created_at)
	  VALUES (:vote_id, :song_hash, :category, :value, :created_at)`

	_, err := r.db.NamedExec(query, v)
	return err
}

func (r *SQLiteRepository) TallyForSong(hash string) ([]CategoryTally, error) {
	query := `
	  SELECT category, COUNT(*) AS votes, AVG(value) AS mean
	  FROM votes
	  WHERE song_hash = ?
	  GROUP BY category
	  ORDER BY category`

	tallies := make([]CategoryTally, 0)
	if err := r.db.Select(&tallies, query, hash); err != nil {
		return nil, err
	}
	return tallies, nil
}

func (r *SQLiteRepository) close() {
	r.db.Close()
}

func NewSQLiteRepository(filePath string) (*SQLiteRepository, error) {
	db, err := sqlx.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection also keeps ":memory:"
	// databases from splitting per connection
	db.SetMaxOpenConns(1)

	// make sure the required tables exist
	// if not then create them
	schema := `
	CREATE TABLE IF NOT EXISTS songs (
		idx INTEGER PRIMARY KEY AUTOINCREMENT,
		hash TEXT NOT NULL,
		file_name TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		genre TEXT NOT NULL DEFAULT '',
		mpm REAL NOT NULL DEFAULT 0,
		played_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS songs_hash ON songs (hash);

	CREATE TABLE IF NOT EXISTS votes (
		vote_id TEXT PRIMARY KEY,
		song_hash TEXT NOT NULL,
		category TEXT NOT NULL,
		value INTEGER NOT NULL CHECK (value BETWEEN 1 AND 5),
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS votes_song_hash ON votes (song_hash);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	log.Infof("using sqlite database %s", filePath)
	return &SQLiteRepository{db: db}, nil
}
