package tests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/trezcool/edulearn/core/progress"
	"github.com/trezcool/edulearn/core/user"
	"github.com/trezcool/edulearn/core/video"
	testutil "github.com/trezcool/edulearn/tests"
)

func Test_videoApi_query(t *testing.T) {
	env := setup(t)

	path := func(search, subject string, mine bool) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if subject != "" {
			v.Add("subject", subject)
		}
		if mine {
			v.Add("mine", "true")
		}
		return "/v1/videos?" + v.Encode()
	}

	student := testutil.CreateUser(t, env.usrRepo, "Stu Dent", "stu@test.cd", "", user.RoleStudent)
	teacher := testutil.CreateUser(t, env.usrRepo, "Tea Cher", "tea@test.cd", "", user.RoleTeacher)
	other := testutil.CreateUser(t, env.usrRepo, "Other Teacher", "other@test.cd", "", user.RoleTeacher)

	now := time.Now().UTC()
	algebra := testutil.CreateVideo(t, env.videoRepo, "Algebra basics", "Math", teacher.ID, now)
	cells := testutil.CreateVideo(t, env.videoRepo, "Cells", "Biology", other.ID, now.Add(time.Second))

	studentToken := getToken(t, student)
	empty := okResp(t, "", []video.Video{})

	tests := []httpTest{
		{name: "auth required", path: "/v1/videos", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "all, newest first", path: "/v1/videos", token: studentToken,
			wantCode: http.StatusOK, wantData: okResp(t, "", []video.Video{cells, algebra}),
		},
		{
			name: "search", path: path("algebra", "", false), token: studentToken,
			wantCode: http.StatusOK, wantData: okResp(t, "", []video.Video{algebra}),
		},
		{
			name: "subject", path: path("", "Biology", false), token: studentToken,
			wantCode: http.StatusOK, wantData: okResp(t, "", []video.Video{cells}),
		},
		{
			name: "mine", path: path("", "", true), token: getToken(t, teacher),
			wantCode: http.StatusOK, wantData: okResp(t, "", []video.Video{algebra}),
		},
		{
			name: "no match", path: path("chemistry", "", false), token: studentToken,
			wantCode: http.StatusOK, wantData: empty,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_videoApi_subjects(t *testing.T) {
	env := setup(t)

	student := testutil.CreateUser(t, env.usrRepo, "Stu Dent", "stu@test.cd", "", user.RoleStudent)
	testutil.CreateVideo(t, env.videoRepo, "Cells", "Biology", "t1")
	testutil.CreateVideo(t, env.videoRepo, "Algebra", "Math", "t1")
	testutil.CreateVideo(t, env.videoRepo, "Calculus", "Math", "t2")

	req, rec := newAuthRequest(http.MethodGet, "/v1/videos/subjects", getToken(t, student))
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: okResp(t, "", []string{"Biology", "Math"})}, rec)
}

func Test_videoApi_create(t *testing.T) {
	env := setup(t)

	student := testutil.CreateUser(t, env.usrRepo, "Stu Dent", "stu@test.cd", "", user.RoleStudent)
	teacher := testutil.CreateUser(t, env.usrRepo, "Tea Cher", "tea@test.cd", "", user.RoleTeacher)

	body := marchallObj(t, video.NewVideo{
		Title:     "Algebra basics",
		Subject:   "Math",
		VideoURL:  "https://www.youtube.com/watch?v=x",
		VideoType: video.TypeYouTube,
	})

	// students may not publish
	req, rec := newAuthRequest(http.MethodPost, "/v1/videos", getToken(t, student), body)
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)}, rec)

	req, rec = newAuthRequest(http.MethodPost, "/v1/videos", getToken(t, teacher), body)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var res struct {
		Success bool        `json:"success"`
		Message string      `json:"message"`
		Data    video.Video `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if !res.Success || res.Message != "Video published!" {
		t.Errorf("unexpected envelope: %+v", res)
	}
	if res.Data.ID == "" || res.Data.UploadedBy != teacher.ID {
		t.Errorf("unexpected video payload: %+v", res.Data)
	}

	// validation failure
	body = marchallObj(t, video.NewVideo{Title: "No subject"})
	req, rec = newAuthRequest(http.MethodPost, "/v1/videos", getToken(t, teacher), body)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func Test_videoApi_upload(t *testing.T) {
	env := setup(t)

	teacher := testutil.CreateUser(t, env.usrRepo, "Tea Cher", "tea@test.cd", "", user.RoleTeacher)
	token := getToken(t, teacher)

	newUploadRequest := func(withFile bool) (*http.Request, *httptest.ResponseRecorder) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		_ = w.WriteField("title", "Recorded lecture")
		_ = w.WriteField("subject", "Physics")
		_ = w.WriteField("description", "Lecture 1")
		if withFile {
			fw, err := w.CreateFormFile("video", "lecture.mp4")
			if err != nil {
				t.Fatalf("CreateFormFile() failed: %v", err)
			}
			_, _ = fw.Write([]byte("not really an mp4"))
		}
		_ = w.Close()

		req := httptest.NewRequest(http.MethodPost, "/v1/videos/upload", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		return req, httptest.NewRecorder()
	}

	// the blob is required
	req, rec := newUploadRequest(false)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusBadRequest, rec.Body.String())
	}

	req, rec = newUploadRequest(true)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var res struct {
		Success bool        `json:"success"`
		Data    video.Video `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if res.Data.VideoType != video.TypeUploaded || res.Data.StoragePath == "" {
		t.Errorf("unexpected video payload: %+v", res.Data)
	}
	if want := "http://" + req.Host + "/media/" + res.Data.StoragePath; res.Data.VideoURL != want {
		t.Errorf("video url = %v, want %v", res.Data.VideoURL, want)
	}
}

func Test_videoApi_update_destroy(t *testing.T) {
	env := setup(t)

	owner := testutil.CreateUser(t, env.usrRepo, "Own Er", "owner@test.cd", "", user.RoleTeacher)
	other := testutil.CreateUser(t, env.usrRepo, "Other Teacher", "other@test.cd", "", user.RoleTeacher)
	admin := testutil.CreateUser(t, env.usrRepo, "Ad Min", "admin@test.cd", "", user.RoleAdmin)

	vid := testutil.CreateVideo(t, env.videoRepo, "Cells", "Biology", owner.ID)
	body := marchallObj(t, video.UpdateVideo{Title: "Cells, revised"})

	// only the uploader (or an admin) may touch it
	req, rec := newAuthRequest(http.MethodPut, "/v1/videos/"+vid.ID, getToken(t, other), body)
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)}, rec)

	req, rec = newAuthRequest(http.MethodPut, "/v1/videos/"+vid.ID, getToken(t, owner), body)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusOK, rec.Body.String())
	}
	var res struct {
		Data video.Video `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if res.Data.Title != "Cells, revised" || res.Data.Subject != vid.Subject {
		t.Errorf("unexpected video payload: %+v", res.Data)
	}

	// admins may delete anyone's video
	req, rec = newAuthRequest(http.MethodDelete, "/v1/videos/"+vid.ID, getToken(t, admin))
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusNoContent, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/videos/"+vid.ID, getToken(t, owner))
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Message: video.ErrNotFound.Error()}),
	}, rec)
}

func Test_videoApi_watchStats(t *testing.T) {
	env := setup(t)

	teacher := testutil.CreateUser(t, env.usrRepo, "Tea Cher", "tea@test.cd", "", user.RoleTeacher)
	student := testutil.CreateUser(t, env.usrRepo, "Stu Dent", "stu@test.cd", "", user.RoleStudent)
	vid := testutil.CreateVideo(t, env.videoRepo, "Cells", "Biology", teacher.ID)

	testutil.CreateProgress(t, env.progRepo, student.ID, vid.ID, 100, true)
	testutil.CreateProgress(t, env.progRepo, teacher.ID, vid.ID, 50, false)

	// students may not see watch stats
	req, rec := newAuthRequest(http.MethodGet, "/v1/videos/"+vid.ID+"/stats", getToken(t, student))
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/videos/"+vid.ID+"/stats", getToken(t, teacher))
	env.app.ServeHTTP(rec, req)
	want := okResp(t, "", progress.WatchStats{TotalWatches: 2, Completed: 1, InProgress: 1, AvgWatchTime: 75})
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: want}, rec)
}
