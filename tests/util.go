package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/edulearn/core/progress"
	"github.com/trezcool/edulearn/core/signup"
	"github.com/trezcool/edulearn/core/user"
	"github.com/trezcool/edulearn/core/video"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:        name,
		Email:       email,
		Role:        role,
		CollegeName: "Test College",
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSignupRequest(
	t *testing.T,
	repo signup.Repository,
	name, email, role string,
	createdAt ...time.Time,
) signup.Request {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	req, err := repo.CreateRequest(context.Background(), signup.Request{
		Email:       email,
		Name:        name,
		Role:        role,
		CollegeName: "Test College",
		Status:      signup.StatusPending,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateSignupRequest() failed: %v", err)
	}
	return req
}

func CreateVideo(
	t *testing.T,
	repo video.Repository,
	title, subject, uploadedBy string,
	createdAt ...time.Time,
) video.Video {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	vid, err := repo.CreateVideo(context.Background(), video.Video{
		Title:      title,
		Subject:    subject,
		VideoURL:   "https://www.youtube.com/watch?v=" + title,
		VideoType:  video.TypeYouTube,
		UploadedBy: uploadedBy,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("CreateVideo() failed: %v", err)
	}
	return vid
}

func CreateProgress(
	t *testing.T,
	repo progress.Repository,
	userID, videoID string,
	lastWatchedTime int,
	completed bool,
) progress.Progress {
	t.Helper()

	now := time.Now().UTC()
	prog, err := repo.UpsertProgress(context.Background(), progress.Progress{
		UserID:          userID,
		VideoID:         videoID,
		LastWatchedTime: lastWatchedTime,
		Completed:       completed,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateProgress() failed: %v", err)
	}
	return prog
}
