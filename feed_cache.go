// this file keeps the tail of the playlist in memory so feed pulls
// from viewers do not hit the database every second
package main

import (
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

type FeedCache struct {
	repo     PlaylistRepository
	capacity int

	mu     sync.RWMutex
	tail   []Song // ascending by index, at most capacity long
	floor  int64  // every song with index >= floor is in tail
	loaded bool

	ticker     *time.Ticker
	tickResSec time.Duration
	done       chan struct{}
	wg         sync.WaitGroup
}

func NewFeedCache(repo PlaylistRepository, capacity int) *FeedCache {
	if capacity <= 0 {
		capacity = 200
	}
	return &FeedCache{
		repo:       repo,
		capacity:   capacity,
		tail:       make([]Song, 0, capacity),
		tickResSec: 1,
		done:       make(chan struct{}),
	}
}

func (c *FeedCache) Engine() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ticker.C:
				if err := c.Refresh(); err != nil {
					log.Warnf("feed cache refresh failed: %v", err)
				}
			case <-c.done:
				log.Info("feed cache stopped")
				return
			}
		}
	}()
}

// Start loads the cache and keeps it fresh in the background.
func (c *FeedCache) Start() error {
	if err := c.Refresh(); err != nil {
		return err
	}
	c.ticker = time.NewTicker(time.Second * c.tickResSec)
	c.Engine()
	return nil
}

// Refresh pulls everything newer than the cached tail.
func (c *FeedCache) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		songs, err := c.repo.LatestSongs(c.capacity)
		if err != nil {
			return err
		}
		c.tail = append(c.tail[:0], songs...)
		c.floor = 0
		if len(songs) == c.capacity {
			c.floor = songs[0].Index
		}
		c.loaded = true
		return nil
	}

	next := c.floor
	if n := len(c.tail); n > 0 {
		next = c.tail[n-1].Index + 1
	}
	for {
		songs, err := c.repo.SongsFrom(next, c.capacity)
		if err != nil {
			return err
		}
		if len(songs) == 0 {
			break
		}
		c.tail = append(c.tail, songs...)
		next = songs[len(songs)-1].Index + 1
		if len(songs) < c.capacity {
			break
		}
	}

	if extra := len(c.tail) - c.capacity; extra > 0 {
		c.tail = append(c.tail[:0], c.tail[extra:]...)
		c.floor = c.tail[0].Index
	}
	return nil
}

// From returns up to limit cached songs with index >= start. ok is false
// when the cache cannot answer for start and the caller must ask the
// repository.
func (c *FeedCache) From(start int64, limit int) (songs []Song, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.loaded || start < c.floor {
		return nil, false
	}

	songs = make([]Song, 0)
	for _, s := range c.tail {
		if s.Index < start {
			continue
		}
		if len(songs) == limit {
			break
		}
		songs = append(songs, s)
	}
	return songs, true
}

func (c *FeedCache) Shutdown() {
	// close and perform cleanup if required
	if c.ticker != nil {
		c.ticker.Stop()
		close(c.done)
		c.wg.Wait()
	}
}
