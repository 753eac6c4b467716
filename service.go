package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/himanshub16/dancevote/feed"
	"github.com/himanshub16/dancevote/vote"
)

var ErrUnknownSong = errors.New("unknown song")

type Service interface {
	PullFeed(start int64) ([]feed.Entry, error)
	RecordPlayed(song Song) (feed.Entry, error)
	CastVote(i vote.Intent) error
	SongTally(hash string) ([]CategoryTally, error)
	close()
}

type ServiceImpl struct {
	playlistRepo PlaylistRepository
	voteRepo     VoteRepository
	cache        *FeedCache
	pageSize     int

	// appends go through one writer so indices commit in order
	appendMu sync.Mutex
}

func NewService(playlistRepo PlaylistRepository, voteRepo VoteRepository, cache *FeedCache, pageSize int) *ServiceImpl {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &ServiceImpl{
		playlistRepo: playlistRepo,
		voteRepo:     voteRepo,
		cache:        cache,
		pageSize:     pageSize,
	}
}

func (s *ServiceImpl) PullFeed(start int64) ([]feed.Entry, error) {
	if start < 0 {
		start = 0
	}

	var (
		songs []Song
		ok    bool
	)
	if s.cache != nil {
		songs, ok = s.cache.From(start, s.pageSize)
	}
	if !ok {
		var err error
		songs, err = s.playlistRepo.SongsFrom(start, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("reading playlist from %d: %w", start, err)
		}
	}

	entries := make([]feed.Entry, len(songs))
	for i, song := range songs {
		entries[i] = song.Entry()
	}
	return entries, nil
}

func (s *ServiceImpl) RecordPlayed(song Song) (feed.Entry, error) {
	if err := FillSongMeta(&song); err != nil {
		return feed.Entry{}, err
	}

	s.appendMu.Lock()
	idx, err := s.playlistRepo.AppendSong(song)
	s.appendMu.Unlock()
	if err != nil {
		return feed.Entry{}, fmt.Errorf("appending song: %w", err)
	}
	song.Index = idx

	if s.cache != nil {
		if err := s.cache.Refresh(); err != nil {
			log.Warnf("feed cache refresh after append failed: %v", err)
		}
	}

	log.Infof("song %d played: %s (%s)", idx, song.Title, song.Hash)
	return song.Entry(), nil
}

func (s *ServiceImpl) CastVote(i vote.Intent) error {
	if err := i.Validate(); err != nil {
		return err
	}
	if _, err := s.playlistRepo.SongByHash(i.SongHash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownSong, i.SongHash)
		}
		return err
	}

	v := Vote{
		VoteID:    uuid.New().String(),
		SongHash:  i.SongHash,
		Category:  i.Category,
		Value:     i.Value,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.voteRepo.InsertVote(v); err != nil {
		return fmt.Errorf("recording vote: %w", err)
	}
	log.Debugf("vote %s: %s=%d for %s", v.VoteID, v.Category, v.Value, v.SongHash)
	return nil
}

func (s *ServiceImpl) SongTally(hash string) ([]CategoryTally, error) {
	if _, err := s.playlistRepo.SongByHash(hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSong, hash)
		}
		return nil, err
	}
	return s.voteRepo.TallyForSong(hash)
}

func (s *ServiceImpl) close() {
	if s.cache != nil {
		s.cache.Shutdown()
	}
	// one database usually backs both repositories
	if interface{}(s.voteRepo) != interface{}(s.playlistRepo) {
		s.voteRepo.close()
	}
	s.playlistRepo.close()
}
