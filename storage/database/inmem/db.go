// Package inmemdb provides a map-backed storage engine used by tests and
// local development. Each table guards itself with a RWMutex; uniqueness
// checks run under the write lock so they hold without transactions.
package inmemdb

import (
	"sync"

	"github.com/trezcool/edulearn/core/progress"
	"github.com/trezcool/edulearn/core/signup"
	"github.com/trezcool/edulearn/core/user"
	"github.com/trezcool/edulearn/core/video"
)

type (
	DB struct {
		user     *userTable
		signup   *signupTable
		video    *videoTable
		progress *progressTable
	}

	userTable struct {
		t     map[string]*user.User // keyed on User.ID
		mutex sync.RWMutex
	}

	signupTable struct {
		t     map[string]*signup.Request // keyed on Request.ID
		mutex sync.RWMutex
	}

	videoTable struct {
		t     map[string]*video.Video // keyed on Video.ID
		mutex sync.RWMutex
	}

	progressTable struct {
		t     map[string]*progress.Progress // keyed on UserID + "/" + VideoID
		mutex sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:     &userTable{t: make(map[string]*user.User)},
		signup:   &signupTable{t: make(map[string]*signup.Request)},
		video:    &videoTable{t: make(map[string]*video.Video)},
		progress: &progressTable{t: make(map[string]*progress.Progress)},
	}
	return db, nil
}
