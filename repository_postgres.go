package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/gommon/log"
	_ "github.com/lib/pq"
)

type PostgresRepository struct {
	db *sqlx.DB
}

const songColumns = `idx, hash, file_name, author, title, genre, mpm, played_at`

func (r *PostgresRepository) AppendSong(song Song) (int64, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// serial values are handed out before commit; the lock keeps commit
	// order equal to index order so readers never see a gap fill in later
	if _, err := tx.Exec(`lock table songs in exclusive mode;`); err != nil {
		return 0, fmt.Errorf("locking songs: %w", err)
	}

	query := `
	  insert into songs (hash, file_name, author, title, genre, mpm, played_at)
	  values ($1, $2, $3, $4, $5, $6, $7)
	  returning idx;`

	var idx int64
	err = tx.QueryRowx(query, song.Hash, song.FileName, song.Author, song.Title,
		song.Genre, song.MPM, song.PlayedAt,
	).Scan(&idx)
	if err != nil {
		return 0, fmt.Errorf("inserting song: %w", err)
	}
	return idx, tx.Commit()
}

func (r *PostgresRepository) SongsFrom(start int64, limit int) ([]Song, error) {
	query := `
	  select ` + songColumns + `
	  from songs
	  where idx >= $1
	  order by idx asc
	  limit $2;`

	songs := make([]Song, 0)
	if err := r.db.Select(&songs, query, start, limit); err != nil {
		return nil, err
	}
	return songs, nil
}

func (r *PostgresRepository) LatestSongs(limit int) ([]Song, error) {
	query := `
	  select ` + songColumns + ` from (
		select ` + songColumns + ` from songs order by idx desc limit $1
	  ) as latest
	  order by idx asc;`

	songs := make([]Song, 0)
	if err := r.db.Select(&songs, query, limit); err != nil {
		return nil, err
	}
	return songs, nil
}

func (r *PostgresRepository) SongByHash(hash string) (*Song, error) {
	query := `
	  select ` + songColumns + `
	  from songs where hash=$1
	  order by idx desc limit 1;`

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

func (r *PostgresRepository) InsertVote(v Vote) error {
	query := `
	  insert into votes (vote_id, song_hash, category, value, created_at)
	  values (:vote_id, :song_hash, :category, :value, :created_at);`

	_, err := r.db.NamedExec(query, v)
	return err
}

func (r *PostgresRepository) TallyForSong(hash string) ([]CategoryTally, error) {
	query := `
	  select category, count(*) as votes, avg(value)::float8 as mean
	  from votes
	  where song_hash=$1
	  group by category
	  order by category;`

	tallies := make([]CategoryTally, 0)
	if err := r.db.Select(&tallies, query, hash); err != nil {
		return nil, err
	}
	return tallies, nil
}

func (r *PostgresRepository) close() {
	r.db.Close()
}

func NewPostgresRepository(dbUrl string) (*PostgresRepository, error) {
	db, err := sqlx.Open("postgres", dbUrl)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	log.Info("connected to db. creating new tables")

	// make sure the required tables exist
	// if not then create them
	songsTable := `
	  create table if not exists songs (
		idx bigserial primary key,
		hash text not null,
		file_name text not null default '',
		author text not null default '',
		title text not null default '',
		genre text not null default '',
		mpm double precision not null default 0,
		played_at bigint not null
	  );`
	songsHashIndex := `
	  create index if not exists songs_hash on songs (hash);`
	votesTable := `
	  create table if not exists votes (
		vote_id uuid primary key,
		song_hash text not null,
		category text not null,
		value integer not null check (value between 1 and 5),
		created_at bigint not null
	  );`
	votesHashIndex := `
	  create index if not exists votes_song_hash on votes (song_hash);`

	for _, t := range []string{songsTable, songsHashIndex, votesTable, votesHashIndex} {
		if _, err = db.Exec(t); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating tables: %w", err)
		}
	}
	return &PostgresRepository{db: db}, nil
}
