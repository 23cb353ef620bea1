package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/trezcool/edulearn/apps/api/echo"
	"github.com/trezcool/edulearn/core/progress"
	"github.com/trezcool/edulearn/core/user"
	"github.com/trezcool/edulearn/core/video"
	testutil "github.com/trezcool/edulearn/tests"
)

type progressResp struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    progress.Progress `json:"data"`
}

func Test_progressApi_save(t *testing.T) {
	env := setup(t)

	student := testutil.CreateUser(t, env.usrRepo, "Stu Dent", "stu@test.cd", "", user.RoleStudent)
	vid := testutil.CreateVideo(t, env.videoRepo, "Cells", "Biology", "t1")
	token := getToken(t, student)

	// unknown video
	body := marchallObj(t, SaveProgressRequest{LastWatchedTime: 30})
	req, rec := newAuthRequest(http.MethodPut, "/v1/videos/00000000-0000-0000-0000-000000000000/progress", token, body)
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Message: video.ErrNotFound.Error()}),
	}, rec)

	// negative positions are nonsense
	body = marchallObj(t, SaveProgressRequest{LastWatchedTime: -1})
	req, rec = newAuthRequest(http.MethodPut, "/v1/videos/"+vid.ID+"/progress", token, body)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusBadRequest, rec.Body.String())
	}

	var res progressResp
	save := func(position int, completed bool) progressResp {
		body = marchallObj(t, SaveProgressRequest{LastWatchedTime: position, Completed: completed})
		req, rec = newAuthRequest(http.MethodPut, "/v1/videos/"+vid.ID+"/progress", token, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		return res
	}

	res = save(30, false)
	if !res.Success || res.Message != "Progress saved" {
		t.Errorf("unexpected envelope: %+v", res)
	}
	if res.Data.UserID != student.ID || res.Data.VideoID != vid.ID || res.Data.LastWatchedTime != 30 {
		t.Errorf("unexpected progress payload: %+v", res.Data)
	}

	// subsequent reports replace the position
	res = save(90, false)
	if res.Data.LastWatchedTime != 90 {
		t.Errorf("last watched time = %v, want %v", res.Data.LastWatchedTime, 90)
	}

	// the last report wins in full; rewatching clears the completed flag
	res = save(100, true)
	if !res.Data.Completed {
		t.Errorf("completed = %v, want %v", res.Data.Completed, true)
	}
	res = save(10, false)
	if res.Data.Completed || res.Data.LastWatchedTime != 10 {
		t.Errorf("unexpected progress payload after rewatch: %+v", res.Data)
	}
}

func Test_progressApi_complete(t *testing.T) {
	env := setup(t)

	student := testutil.CreateUser(t, env.usrRepo, "Stu Dent", "stu@test.cd", "", user.RoleStudent)
	vid := testutil.CreateVideo(t, env.videoRepo, "Cells", "Biology", "t1")
	token := getToken(t, student)

	// nothing reported yet
	req, rec := newAuthRequest(http.MethodPost, "/v1/videos/"+vid.ID+"/complete", token)
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Message: progress.ErrNotFound.Error()}),
	}, rec)

	testutil.CreateProgress(t, env.progRepo, student.ID, vid.ID, 120, false)

	req, rec = newAuthRequest(http.MethodPost, "/v1/videos/"+vid.ID+"/complete", token)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
	}

	var res progressResp
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if !res.Success || res.Message != "Video completed!" {
		t.Errorf("unexpected envelope: %+v", res)
	}
	if !res.Data.Completed || res.Data.LastWatchedTime != 120 {
		t.Errorf("unexpected progress payload: %+v", res.Data)
	}
}

func Test_progressApi_retrieve(t *testing.T) {
	env := setup(t)

	student := testutil.CreateUser(t, env.usrRepo, "Stu Dent", "stu@test.cd", "", user.RoleStudent)
	vid := testutil.CreateVideo(t, env.videoRepo, "Cells", "Biology", "t1")
	token := getToken(t, student)

	// never watched: zero progress, not an error
	req, rec := newAuthRequest(http.MethodGet, "/v1/videos/"+vid.ID+"/progress", token)
	env.app.ServeHTTP(rec, req)
	want := okResp(t, "", progress.Progress{UserID: student.ID, VideoID: vid.ID})
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: want}, rec)

	testutil.CreateProgress(t, env.progRepo, student.ID, vid.ID, 45, false)

	req, rec = newAuthRequest(http.MethodGet, "/v1/videos/"+vid.ID+"/progress", token)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
	}
	var res progressResp
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if res.Data.LastWatchedTime != 45 {
		t.Errorf("unexpected progress payload: %+v", res.Data)
	}
}

func Test_progressApi_queryMine(t *testing.T) {
	env := setup(t)

	student := testutil.CreateUser(t, env.usrRepo, "Stu Dent", "stu@test.cd", "", user.RoleStudent)
	watched := testutil.CreateVideo(t, env.videoRepo, "Cells", "Biology", "t1")
	finished := testutil.CreateVideo(t, env.videoRepo, "Algebra", "Math", "t1")
	token := getToken(t, student)

	testutil.CreateProgress(t, env.progRepo, student.ID, watched.ID, 45, false)
	testutil.CreateProgress(t, env.progRepo, student.ID, finished.ID, 300, true)

	// all records
	req, rec := newAuthRequest(http.MethodGet, "/v1/me/progress", token)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
	}
	var listRes struct {
		Success bool                `json:"success"`
		Data    []progress.Progress `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listRes); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if len(listRes.Data) != 2 {
		t.Errorf("got %d records, want %d", len(listRes.Data), 2)
	}

	// completed video ids only
	req, rec = newAuthRequest(http.MethodGet, "/v1/me/progress?filter=completed", token)
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: okResp(t, "", []string{finished.ID})}, rec)

	// in-progress records only
	req, rec = newAuthRequest(http.MethodGet, "/v1/me/progress?filter=in-progress", token)
	env.app.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &listRes); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if len(listRes.Data) != 1 || listRes.Data[0].VideoID != watched.ID {
		t.Errorf("unexpected in-progress records: %+v", listRes.Data)
	}
}
