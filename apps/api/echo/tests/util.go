package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/edulearn/apps/api/echo"
	"github.com/trezcool/edulearn/core"
	"github.com/trezcool/edulearn/core/progress"
	"github.com/trezcool/edulearn/core/signup"
	"github.com/trezcool/edulearn/core/user"
	"github.com/trezcool/edulearn/core/video"
	inmemdb "github.com/trezcool/edulearn/storage/database/inmem"
	"github.com/trezcool/edulearn/storage/files"
)

var (
	errMissingToken     = httpErr{Message: "missing or malformed jwt"}
	errPermissionDenied = httpErr{Message: "permission denied"}
)

type testEnv struct {
	app        Server
	usrRepo    user.Repository
	signupRepo signup.Repository
	videoRepo  video.Repository
	progRepo   progress.Repository
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	env := &testEnv{
		usrRepo:    inmemdb.NewUserRepository(db),
		signupRepo: inmemdb.NewSignupRepository(db),
		videoRepo:  inmemdb.NewVideoRepository(db),
		progRepo:   inmemdb.NewProgressRepository(db),
	}

	// set up services
	logger := core.NopLogger()
	blobs := files.NewDummyStore()

	// set up server
	env.app = NewServer(ServerDeps{
		Logger:         logger,
		UsrSvc:         user.NewService(env.usrRepo, logger),
		SignupSvc:      signup.NewService(nil, env.signupRepo, env.usrRepo),
		VideoSvc:       video.NewService(env.videoRepo, blobs, logger),
		ProgressSvc:    progress.NewService(env.progRepo),
		Blobs:          blobs,
		DisableReqLogs: true,
	})
	return env
}

// httpErr mirrors the envelope failed requests come back in.
type httpErr struct {
	Success bool        `json:"success"`
	Message interface{} `json:"message"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func okResp(t *testing.T, msg string, data interface{}) []byte {
	return marchallObj(t, Response{Success: true, Message: msg, Data: data})
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
