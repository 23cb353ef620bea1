package video_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/user"
	"github.com/trezcool/edulearn/core/video"
	inmemdb "github.com/trezcool/edulearn/storage/database/inmem"
	"github.com/trezcool/edulearn/storage/files"
	testutil "github.com/trezcool/edulearn/tests"
)

func setup(t *testing.T) (video.Service, *inmemdb.DB) {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	svc := video.NewService(inmemdb.NewVideoRepository(db), files.NewDummyStore(), core.NopLogger())
	return svc, db
}

func TestService_Create(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, inmemdb.NewUserRepository(db), "Tea Cher", "tea@test.cd", "", user.RoleTeacher)

	tests := []struct {
		name    string
		data    video.NewVideo
		wantErr bool
	}{
		{
			name:    "missing fields",
			data:    video.NewVideo{Title: "Algebra I"},
			wantErr: true,
		},
		{
			name:    "bad url",
			data:    video.NewVideo{Title: "Algebra I", Subject: "Math", VideoURL: "notaurl", VideoType: video.TypeYouTube},
			wantErr: true,
		},
		{
			name:    "bad video type",
			data:    video.NewVideo{Title: "Algebra I", Subject: "Math", VideoURL: "https://www.youtube.com/watch?v=x", VideoType: "vimeo"},
			wantErr: true,
		},
		{
			name:    "uploaded without storage path",
			data:    video.NewVideo{Title: "Algebra I", Subject: "Math", VideoURL: "https://edulearn.cd/media/videos/x.mp4", VideoType: video.TypeUploaded},
			wantErr: true,
		},
		{
			name: "youtube ok",
			data: video.NewVideo{Title: "Algebra I", Subject: "Math", VideoURL: "https://www.youtube.com/watch?v=x", VideoType: video.TypeYouTube},
		},
		{
			name: "uploaded ok",
			data: video.NewVideo{
				Title:       "Algebra II",
				Subject:     "Math",
				VideoURL:    "https://edulearn.cd/media/videos/x.mp4",
				VideoType:   video.TypeUploaded,
				StoragePath: "videos/x.mp4",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vid, err := svc.Create(ctx, teacher.ID, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Create() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if _, ok := err.(validator.ValidationErrors); !ok {
					t.Errorf("Create() error = %v, want a validation error", err)
				}
				return
			}
			if vid.ID == "" {
				t.Error("Create() did not assign an ID")
			}
			if vid.UploadedBy != teacher.ID {
				t.Errorf("Create() uploadedBy = %v, want %v", vid.UploadedBy, teacher.ID)
			}
		})
	}
}

func TestService_Update(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	vid := testutil.CreateVideo(t, inmemdb.NewVideoRepository(db), "Cells", "Biology", "t1")

	// partial update: untouched fields stay
	updated, err := svc.Update(ctx, vid, video.UpdateVideo{Title: "Cells, revised"})
	if err != nil {
		t.Fatalf("Update() error = %v, wantErr %v", err, nil)
	}
	if updated.Title != "Cells, revised" {
		t.Errorf("Update() title = %v, want %v", updated.Title, "Cells, revised")
	}
	if updated.Subject != vid.Subject || updated.VideoURL != vid.VideoURL {
		t.Error("Update() touched fields that were not provided")
	}
	if updated.VideoType != vid.VideoType {
		t.Error("Update() changed the source kind")
	}

	if _, err = svc.Update(ctx, vid, video.UpdateVideo{VideoURL: "notaurl"}); err == nil {
		t.Fatal("Update() expected an error for a bad url")
	}
}

func TestService_Filter(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	repo := inmemdb.NewVideoRepository(db)

	now := time.Now().UTC()
	algebra := testutil.CreateVideo(t, repo, "Algebra basics", "Math", "t1", now)
	cells := testutil.CreateVideo(t, repo, "Cells", "Biology", "t2", now.Add(time.Second))

	tests := []struct {
		name    string
		filter  video.QueryFilter
		wantIDs []string
	}{
		{name: "all, newest first", filter: video.QueryFilter{}, wantIDs: []string{cells.ID, algebra.ID}},
		{name: "search on title", filter: video.QueryFilter{Search: "algebra"}, wantIDs: []string{algebra.ID}},
		{name: "subject", filter: video.QueryFilter{Subject: "Biology"}, wantIDs: []string{cells.ID}},
		{name: "uploader", filter: video.QueryFilter{UploadedBy: "t1"}, wantIDs: []string{algebra.ID}},
		{name: "no match", filter: video.QueryFilter{Search: "chemistry"}, wantIDs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vids, err := svc.Filter(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Filter() error = %v, wantErr %v", err, nil)
			}
			if len(vids) != len(tt.wantIDs) {
				t.Fatalf("Filter() returned %d videos, want %d", len(vids), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if vids[i].ID != want {
					t.Errorf("Filter()[%d] = %v, want %v", i, vids[i].ID, want)
				}
			}
		})
	}
}

func TestService_Delete(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	vid := testutil.CreateVideo(t, inmemdb.NewVideoRepository(db), "Gone", "Math", "t1")

	if err := svc.Delete(ctx, vid.ID); err != nil {
		t.Fatalf("Delete() error = %v, wantErr %v", err, nil)
	}
	if _, err := svc.GetByID(ctx, vid.ID); err != video.ErrNotFound {
		t.Errorf("GetByID() error = %v, wantErr %v", err, video.ErrNotFound)
	}
	if err := svc.Delete(ctx, vid.ID); err != video.ErrNotFound {
		t.Errorf("Delete() error = %v, wantErr %v", err, video.ErrNotFound)
	}
}

func TestService_Subjects(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	repo := inmemdb.NewVideoRepository(db)

	testutil.CreateVideo(t, repo, "Cells", "Biology", "t1")
	testutil.CreateVideo(t, repo, "Algebra", "Math", "t1")
	testutil.CreateVideo(t, repo, "Calculus", "Math", "t2")

	subjects, err := svc.Subjects(ctx)
	if err != nil {
		t.Fatalf("Subjects() error = %v, wantErr %v", err, nil)
	}
	want := []string{"Biology", "Math"}
	if len(subjects) != len(want) {
		t.Fatalf("Subjects() = %v, want %v", subjects, want)
	}
	for i := range want {
		if subjects[i] != want[i] {
			t.Errorf("Subjects() = %v, want %v", subjects, want)
		}
	}

	n, err := svc.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v, wantErr %v", err, nil)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want %d", n, 3)
	}
}
