//go:build api

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live service: API_BASE_URL=http://localhost:8080 go test -tags api .
func baseURL() string {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

type sessionView struct {
	SessionID  string `json:"session_id"`
	StepNumber int    `json:"step_number"`
	CanGoBack  bool   `json:"can_go_back"`
	State      struct {
		Step          string `json:"step"`
		EntryID       string `json:"entry_id"`
		ReferralCode  string `json:"referral_code"`
		ReferralLink  string `json:"referral_link"`
		ReferralCount int    `json:"referral_count"`
		Error         string `json:"error"`
	} `json:"state"`
}

func TestAPI_WizardFlow(t *testing.T) {
	waitForService(t)
	email := fmt.Sprintf("api-%s@example.com", uuid.NewString()[:8])

	var referrer sessionView
	t.Run("Step1_CreateSession", func(t *testing.T) {
		resp := post(t, baseURL()+"/api/v1/sessions", nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		decodeJSON(t, resp, &referrer)
		assert.Equal(t, "email", referrer.State.Step)
		assert.Equal(t, 1, referrer.StepNumber)
		assert.False(t, referrer.CanGoBack)
	})

	submit := func(t *testing.T, id, value string) (*http.Response, sessionView) {
		resp := post(t, baseURL()+"/api/v1/sessions/"+id+"/submit", map[string]string{"value": value})
		var v sessionView
		decodeJSON(t, resp, &v)
		return resp, v
	}

	t.Run("Step2_InvalidEmail", func(t *testing.T) {
		resp, v := submit(t, referrer.SessionID, "not-an-email")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "email", v.State.Step)
		assert.Equal(t, "Please provide a valid email address.", v.State.Error)
	})

	t.Run("Step3_CompleteWizard", func(t *testing.T) {
		resp, v := submit(t, referrer.SessionID, email)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "twitter", v.State.Step)

		resp, v = submit(t, referrer.SessionID, "@api_user")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "discord", v.State.Step)

		resp, v = submit(t, referrer.SessionID, "api_user#0001")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "confirmation", v.State.Step)
		assert.Len(t, v.State.ReferralCode, 10)
		assert.Contains(t, v.State.ReferralLink, "ref="+v.State.ReferralCode)
		referrer = v
	})

	t.Run("Step4_FriendUsesReferralLink", func(t *testing.T) {
		resp := post(t, baseURL()+"/api/v1/sessions?ref="+referrer.State.ReferralCode, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var friend sessionView
		decodeJSON(t, resp, &friend)

		resp, _ = submit(t, friend.SessionID, "friend-"+email)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = get(t, baseURL()+"/api/v1/waitlist/"+referrer.State.EntryID+"/referral")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var ref struct {
			ReferralCount int `json:"referral_count"`
		}
		decodeJSON(t, resp, &ref)
		assert.Equal(t, 1, ref.ReferralCount)
	})

	t.Run("Step5_ResubmitResumes", func(t *testing.T) {
		resp := post(t, baseURL()+"/api/v1/sessions", nil)
		var again sessionView
		decodeJSON(t, resp, &again)

		resp, v := submit(t, again.SessionID, email)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "confirmation", v.State.Step)
		assert.Equal(t, referrer.State.EntryID, v.State.EntryID)
	})

	t.Run("Step6_DeleteSession", func(t *testing.T) {
		resp := del(t, baseURL()+"/api/v1/sessions/"+referrer.SessionID)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = get(t, baseURL()+"/api/v1/sessions/"+referrer.SessionID)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func waitForService(t *testing.T) {
	t.Helper()
	for i := 0; i < 30; i++ {
		resp, err := http.Get(baseURL() + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(time.Second)
	}
	t.Fatal("service did not become ready in time")
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	return resp
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	return resp
}

func del(t *testing.T, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
