package progress_test

import (
	"context"
	"sync"
	"testing"

	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/progress"
	inmemdb "github.com/trezcool/edulearn/storage/database/inmem"
	testutil "github.com/trezcool/edulearn/tests"
)

func setup(t *testing.T) (progress.Service, progress.Repository) {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	repo := inmemdb.NewProgressRepository(db)
	return progress.NewService(repo), repo
}

func TestService_Save(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.Save(ctx, "u1", "v1", -1, false); err == nil {
		t.Fatal("Save() expected an error for a negative position")
	} else if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("Save() error = %T, want *core.ValidationError", err)
	}

	prog, err := svc.Save(ctx, "u1", "v1", 30, false)
	if err != nil {
		t.Fatalf("Save() error = %v, wantErr %v", err, nil)
	}
	if prog.LastWatchedTime != 30 || prog.Completed {
		t.Errorf("Save() = %+v, want position 30, not completed", prog)
	}

	// a later report replaces the position in place
	prog, err = svc.Save(ctx, "u1", "v1", 90, false)
	if err != nil {
		t.Fatalf("Save() error = %v, wantErr %v", err, nil)
	}
	if prog.LastWatchedTime != 90 {
		t.Errorf("Save() position = %d, want 90", prog.LastWatchedTime)
	}

	records, err := svc.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForUser() error = %v, wantErr %v", err, nil)
	}
	if len(records) != 1 {
		t.Errorf("ListForUser() returned %d records, want 1", len(records))
	}

	// position 0 is a legal report (video restarted)
	if prog, err = svc.Save(ctx, "u1", "v1", 0, false); err != nil || prog.LastWatchedTime != 0 {
		t.Errorf("Save(0) = (%+v, %v), want position 0 and no error", prog, err)
	}
}

// concurrent reports for the same pair must collapse into a single record.
func TestService_Save_concurrent(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(pos int) {
			defer wg.Done()
			if _, err := svc.Save(ctx, "u1", "v1", pos, false); err != nil {
				t.Errorf("Save() error = %v, wantErr %v", err, nil)
			}
		}(i)
	}
	wg.Wait()

	records, err := svc.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForUser() error = %v, wantErr %v", err, nil)
	}
	if len(records) != 1 {
		t.Errorf("ListForUser() returned %d records, want 1", len(records))
	}
}

func TestService_MarkCompleted(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	// completion with no prior report is a caller error
	if _, err := svc.MarkCompleted(ctx, "u1", "v1"); err != progress.ErrNotFound {
		t.Errorf("MarkCompleted() error = %v, wantErr %v", err, progress.ErrNotFound)
	}

	if _, err := svc.Save(ctx, "u1", "v1", 120, false); err != nil {
		t.Fatalf("Save() error = %v, wantErr %v", err, nil)
	}
	prog, err := svc.MarkCompleted(ctx, "u1", "v1")
	if err != nil {
		t.Fatalf("MarkCompleted() error = %v, wantErr %v", err, nil)
	}
	if !prog.Completed {
		t.Error("MarkCompleted() did not flag the record")
	}
	if prog.LastWatchedTime != 120 {
		t.Errorf("MarkCompleted() position = %d, want 120 untouched", prog.LastWatchedTime)
	}

	// a follow-up report overwrites the record in full; the last write wins,
	// including the completed flag (e.g. the video was restarted)
	prog, err = svc.Save(ctx, "u1", "v1", 10, false)
	if err != nil {
		t.Fatalf("Save() error = %v, wantErr %v", err, nil)
	}
	if prog.Completed {
		t.Error("Save(completed=false) left the record completed, want the last report applied")
	}
	if prog.LastWatchedTime != 10 {
		t.Errorf("Save() position = %d, want 10", prog.LastWatchedTime)
	}
}

func TestService_Get(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "u1", "v1"); err != progress.ErrNotFound {
		t.Errorf("Get() error = %v, wantErr %v", err, progress.ErrNotFound)
	}

	saved := testutil.CreateProgress(t, repo, "u1", "v1", 42, false)
	prog, err := svc.Get(ctx, "u1", "v1")
	if err != nil {
		t.Fatalf("Get() error = %v, wantErr %v", err, nil)
	}
	if prog.ID != saved.ID || prog.LastWatchedTime != 42 {
		t.Errorf("Get() = %+v, want %+v", prog, saved)
	}
}

func TestService_listsByCompletion(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	testutil.CreateProgress(t, repo, "u1", "v1", 300, true)
	testutil.CreateProgress(t, repo, "u1", "v2", 40, false)
	testutil.CreateProgress(t, repo, "u2", "v1", 10, false)

	ids, err := svc.CompletedVideoIDs(ctx, "u1")
	if err != nil {
		t.Fatalf("CompletedVideoIDs() error = %v, wantErr %v", err, nil)
	}
	if len(ids) != 1 || ids[0] != "v1" {
		t.Errorf("CompletedVideoIDs() = %v, want [v1]", ids)
	}

	inProgress, err := svc.InProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("InProgress() error = %v, wantErr %v", err, nil)
	}
	if len(inProgress) != 1 || inProgress[0].VideoID != "v2" {
		t.Errorf("InProgress() = %+v, want the v2 record", inProgress)
	}
}

func TestService_StatsForVideo(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	// no records yet: all zeroes, not an error
	stats, err := svc.StatsForVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("StatsForVideo() error = %v, wantErr %v", err, nil)
	}
	if stats != (progress.WatchStats{}) {
		t.Errorf("StatsForVideo() = %+v, want zero stats", stats)
	}

	testutil.CreateProgress(t, repo, "u1", "v1", 100, true)
	testutil.CreateProgress(t, repo, "u2", "v1", 50, false)
	testutil.CreateProgress(t, repo, "u3", "v1", 0, false)
	testutil.CreateProgress(t, repo, "u1", "v2", 999, true) // other video

	stats, err = svc.StatsForVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("StatsForVideo() error = %v, wantErr %v", err, nil)
	}
	want := progress.WatchStats{TotalWatches: 3, Completed: 1, InProgress: 2, AvgWatchTime: 50}
	if stats != want {
		t.Errorf("StatsForVideo() = %+v, want %+v", stats, want)
	}
}

func TestService_Delete(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	testutil.CreateProgress(t, repo, "u1", "v1", 10, false)
	if err := svc.Delete(ctx, "u1", "v1"); err != nil {
		t.Fatalf("Delete() error = %v, wantErr %v", err, nil)
	}
	if err := svc.Delete(ctx, "u1", "v1"); err != progress.ErrNotFound {
		t.Errorf("Delete() error = %v, wantErr %v", err, progress.ErrNotFound)
	}
}
