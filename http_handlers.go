package main

// this file contains implementation of HTTP handlers - REST API

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/labstack/gommon/log"

	"github.com/himanshub16/dancevote/feed"
	"github.com/himanshub16/dancevote/vote"
)

type httpAPI struct {
	service   Service
	jwtSecret []byte
	playerKey string
}

func NewHTTPRouter(service Service, cfg Config) *echo.Echo {
	api := &httpAPI{
		service:   service,
		jwtSecret: []byte(cfg.JWTSecret),
		playerKey: cfg.PlayerKey,
	}

	r := echo.New()
	r.HideBanner = true
	r.Logger.SetLevel(parseLogLevel(cfg.LogLevel))
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}\n",
	}))
	r.Use(middleware.Recover())

	router := r.Group("/api")
	router.GET("/health", api.healthCheckHandler)
	router.POST("/playlist", api.playlistHandler)
	router.POST("/vote", api.voteHandler)
	router.GET("/song/:hash/votes", api.songVotesHandler)

	playerGroup := router.Group("/player")
	playerGroup.POST("/token", api.playerTokenHandler)
	played := playerGroup.Group("/played")
	played.Use(middleware.JWT(api.jwtSecret))
	{
		played.POST("", api.playedHandler)
	}

	return r
}

func (a *httpAPI) healthCheckHandler(c echo.Context) error {
	return c.String(http.StatusOK, "I am up and running!")
}

// playlistHandler serves the feed. A missing or unparsable start index is
// read as 0, i.e. the whole playlist.
func (a *httpAPI) playlistHandler(c echo.Context) error {
	start, err := strconv.ParseInt(strings.TrimSpace(c.Request().Header.Get(feed.IndexHeader)), 10, 64)
	if err != nil {
		start = 0
	}

	entries, err := a.service.PullFeed(start)
	if err != nil {
		log.Errorf("feed pull from %d failed: %v", start, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "playlist unavailable",
		})
	}
	return c.JSON(http.StatusOK, entries)
}

func (a *httpAPI) voteHandler(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Missing form data",
		})
	}
	intent, err := vote.ParseForm(form)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": err.Error(),
		})
	}

	if err := a.service.CastVote(intent); err != nil {
		if errors.Is(err, ErrUnknownSong) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"message": err.Error(),
			})
		}
		log.Errorf("vote failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "vote not recorded",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Done",
	})
}

func (a *httpAPI) songVotesHandler(c echo.Context) error {
	hash := c.Param("hash")
	tallies, err := a.service.SongTally(hash)
	if err != nil {
		if errors.Is(err, ErrUnknownSong) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"message": err.Error(),
			})
		}
		log.Errorf("tally for %s failed: %v", hash, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "tally unavailable",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"hash":    hash,
		"tallies": tallies,
	})
}

// playerTokenHandler issues the token the playback application uses to
// report played songs.
func (a *httpAPI) playerTokenHandler(c echo.Context) error {
	key := c.FormValue("player_key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(a.playerKey)) != 1 {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"message": "invalid player key",
		})
	}

	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["role"] = "player"
	claims["exp"] = time.Now().Add(time.Hour * 72).Unix()
	t, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token": t,
	})
}

func (a *httpAPI) playedHandler(c echo.Context) error {
	if role, _ := getClaimFromContext(c, "role").(string); role != "player" {
		return c.JSON(http.StatusForbidden, echo.Map{
			"message": "not a player token",
		})
	}

	song := Song{}
	if err := c.Bind(&song); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Invalid song",
		})
	}
	// indices are assigned by the playlist, never by the caller
	song.Index = 0

	entry, err := a.service.RecordPlayed(song)
	if err != nil {
		if errors.Is(err, ErrInvalidSong) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"message": err.Error(),
			})
		}
		log.Errorf("recording played song failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "song not recorded",
		})
	}
	return c.JSON(http.StatusOK, entry)
}

func getClaimFromContext(c echo.Context, claim string) interface{} {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return claims[claim]
}
