package devicefarm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldcoin/mobench/internal/types"
)

func TestUploadAppRejectsMissingArtifact(t *testing.T) {
	c := New(Auth{Username: "user", AccessKey: "key"}, "")
	_, err := c.UploadApp(context.Background(), types.TargetAndroid, "/tmp/definitely-missing-file")
	assert.Error(t, err)
}

func TestScheduleRunRejectsEmptyDevices(t *testing.T) {
	c := New(Auth{Username: "user", AccessKey: "key"}, "")
	_, err := c.ScheduleRun(context.Background(), types.TargetAndroid, nil, "bs://app123", "bs://test456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestScheduleRunRejectsEmptyAppURL(t *testing.T) {
	c := New(Auth{Username: "user", AccessKey: "key"}, "")
	_, err := c.ScheduleRun(context.Background(), types.TargetAndroid, []string{"Pixel 7-13"}, "", "bs://test456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app_url")
}

func TestScheduleRunAgainstFakeServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/app-automate/espresso/v2/build", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "key", pass)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"build_id":"abc123"}`))
	}))
	defer srv.Close()

	c := New(Auth{Username: "user", AccessKey: "key"}, "").WithBaseURL(srv.URL)
	run, err := c.ScheduleRun(context.Background(), types.TargetAndroid, []string{"Pixel 7-13"}, "bs://app", "bs://test")
	require.NoError(t, err)
	assert.Equal(t, "abc123", run.BuildID)
}

func TestGetBuildStatusAcceptsCamelCaseFieldAliases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"buildId":"abc123","status":"done","devices":[{"device":"Pixel 7-13","sessionId":"s1","status":"passed"}]}`))
	}))
	defer srv.Close()

	c := New(Auth{Username: "user", AccessKey: "key"}, "").WithBaseURL(srv.URL)
	status, err := c.GetBuildStatus(context.Background(), types.TargetAndroid, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", status.BuildID)
	require.Len(t, status.Devices, 1)
	assert.Equal(t, "s1", status.Devices[0].SessionID)
}

func TestUploadAppMultipartRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "app.apk", header.Filename)
		w.Write([]byte(`{"app_url":"bs://uploaded"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	apkPath := filepath.Join(dir, "app.apk")
	require.NoError(t, os.WriteFile(apkPath, []byte("fake apk bytes"), 0o644))

	c := New(Auth{Username: "user", AccessKey: "key"}, "").WithBaseURL(srv.URL)
	upload, err := c.UploadApp(context.Background(), types.TargetAndroid, apkPath)
	require.NoError(t, err)
	assert.Equal(t, "bs://uploaded", upload.AppURL)
}

// TestPollAndFetchLogsAgainstRoutedFakeServer exercises GetBuildStatus and
// GetDeviceLogs together against a mux-routed fake server, standing in
// for the device farm's path-parameterized status/log endpoints.
func TestPollAndFetchLogsAgainstRoutedFakeServer(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/app-automate/{platform}/v2/builds/{id}", func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		assert.Equal(t, "espresso", vars["platform"])
		assert.Equal(t, "build42", vars["id"])
		w.Write([]byte(`{"build_id":"build42","status":"passed","devices":[{"device":"Pixel 7-13","session_id":"sess1","status":"passed"}]}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/app-automate/{platform}/v2/builds/{id}/sessions/{session}/devicelogs", func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		assert.Equal(t, "sess1", vars["session"])
		w.Write([]byte("BENCH_JSON {\"spec\":{\"name\":\"decode\",\"iterations\":1,\"warmup\":0},\"samples\":[1000]}"))
	}).Methods(http.MethodGet)

	srv := httptest.NewServer(router)
	defer srv.Close()

	c := New(Auth{Username: "user", AccessKey: "key"}, "").WithBaseURL(srv.URL)
	status, err := c.GetBuildStatus(context.Background(), types.TargetAndroid, "build42")
	require.NoError(t, err)
	require.Len(t, status.Devices, 1)

	logs, err := c.GetDeviceLogs(context.Background(), types.TargetAndroid, "build42", status.Devices[0].SessionID)
	require.NoError(t, err)
	assert.Contains(t, logs, "BENCH_JSON")
}
