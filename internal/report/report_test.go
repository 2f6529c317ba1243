package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/config"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/result"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testReport() Report {
	c := &config.Config{Name: "ladder-1", MatchID: "match-1"}

	return NewReport(c, result.Result{
		Host:    "bot",
		Outcome: result.Victory,
		Players: map[string]result.Outcome{"bot": result.Victory, "cpu": result.Defeat},
	}, "cmVwbGF5")
}

func Test_Reporter_Send(t *testing.T) {
	t.Parallel()
	var got map[string]interface{}
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer svr.Close()

	r := New(svr.URL, logrus.NewEntry(logrus.New()))
	require.NoError(t, r.Send(context.Background(), testReport()))

	require.Equal(t, "match-1", got["match_id"])
	require.Equal(t, "ladder-1", got["config"])
	require.Equal(t, "cmVwbGF5", got["replay"])

	res, ok := got["result"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "victory", res["Outcome"])
}

func Test_Reporter_Send_status(t *testing.T) {
	t.Parallel()
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer svr.Close()

	r := New(svr.URL, logrus.NewEntry(logrus.New()))
	err := r.Send(context.Background(), testReport())
	require.Equal(t, UnexpectedHTTPStatusError(http.StatusBadGateway), err)
	require.Contains(t, err.Error(), "502")
}

func Test_Reporter_Send_unreachable(t *testing.T) {
	t.Parallel()
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := svr.URL
	svr.Close()

	r := New(url, logrus.NewEntry(logrus.New()))
	require.Error(t, r.Send(context.Background(), testReport()))
}
