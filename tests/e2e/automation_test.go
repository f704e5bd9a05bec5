package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

const baseURL = "http://localhost:8080/api/v1"

type CreatePathRequest struct {
	Name          string   `json:"name"`
	ContentType   string   `json:"content_type"`
	Category      string   `json:"category"`
	Topics        []string `json:"topics"`
	Mode          string   `json:"mode,omitempty"`
	ScheduleType  string   `json:"schedule_type,omitempty"`
	ScheduleTime  string   `json:"schedule_time,omitempty"`
	ScheduleDay   int      `json:"schedule_day,omitempty"`
	IncludeImages bool     `json:"include_images,omitempty"`
	Languages     []string `json:"languages,omitempty"`
}

type UpdatePathRequest struct {
	Name         *string `json:"name,omitempty"`
	ScheduleTime *string `json:"schedule_time,omitempty"`
	Status       *string `json:"status,omitempty"`
}

type AutomationPath struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ContentType  string   `json:"content_type"`
	Category     string   `json:"category"`
	Topics       []string `json:"topics"`
	Mode         string   `json:"mode"`
	ScheduleType string   `json:"schedule_type"`
	ScheduleTime string   `json:"schedule_time"`
	Status       string   `json:"status"`
	Languages    []string `json:"languages"`
}

type PathListResponse struct {
	Paths []AutomationPath `json:"paths"`
	Total int              `json:"total"`
}

type RunNowResponse struct {
	LogID     string         `json:"log_id"`
	Path      AutomationPath `json:"path"`
	StartedAt string         `json:"started_at"`
}

type CloseRunRequest struct {
	LogID            string  `json:"log_id"`
	Status           string  `json:"status"`
	GeneratedTitle   *string `json:"generated_title,omitempty"`
	GeneratedContent *string `json:"generated_content,omitempty"`
	TokensUsed       *int    `json:"tokens_used,omitempty"`
	ErrorMessage     *string `json:"error_message,omitempty"`
}

type GenerationLog struct {
	ID               string `json:"id"`
	AutomationPathID string `json:"automation_path_id"`
	PathName         string `json:"path_name"`
	Status           string `json:"status"`
	GeneratedTitle   string `json:"generated_title,omitempty"`
	TokensUsed       int    `json:"tokens_used,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

type DailyUsage struct {
	Date               string `json:"date"`
	TotalTokens        int64  `json:"total_tokens"`
	RequestsCount      int64  `json:"requests_count"`
	SuccessfulRequests int64  `json:"successful_requests"`
	FailedRequests     int64  `json:"failed_requests"`
}

// Helper function to create a test automation path
func createTestPath(t *testing.T, name string) AutomationPath {
	t.Helper()

	createReq := CreatePathRequest{
		Name:         name,
		ContentType:  "blog",
		Category:     "Marketing",
		Topics:       []string{"seasonal menus", "local sourcing"},
		ScheduleType: "daily",
		ScheduleTime: "09:00",
	}

	body, _ := json.Marshal(createReq)
	resp, err := http.Post(baseURL+"/automation/paths", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to create path: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d: %s", resp.StatusCode, string(respBody))
	}

	var path AutomationPath
	if err := json.NewDecoder(resp.Body).Decode(&path); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	return path
}

// Helper function to read the usage counter for a date
func fetchDailyUsage(t *testing.T, date string) DailyUsage {
	t.Helper()

	resp, err := http.Get(baseURL + "/automation/usage?date=" + date)
	if err != nil {
		t.Fatalf("Failed to get usage: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, string(respBody))
	}

	var usage DailyUsage
	if err := json.NewDecoder(resp.Body).Decode(&usage); err != nil {
		t.Fatalf("Failed to decode usage: %v", err)
	}

	return usage
}

// Helper function to deactivate a path after the test
func deactivateTestPath(t *testing.T, id string) {
	t.Helper()

	status := "inactive"
	body, _ := json.Marshal(UpdatePathRequest{Status: &status})
	req, _ := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/automation/paths/%s", baseURL, id), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Logf("Warning: Failed to deactivate path %s: %v", id, err)
		return
	}
	defer resp.Body.Close()
}

// TestPathCreate tests POST /automation/paths
func TestPathCreate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	t.Run("create daily path", func(t *testing.T) {
		path := createTestPath(t, "Daily marketing posts #e2e")
		defer deactivateTestPath(t, path.ID)

		if path.ID == "" {
			t.Error("Expected ID to be set")
		}
		if path.Status != "active" {
			t.Errorf("Expected status 'active', got '%s'", path.Status)
		}
		if path.ScheduleTime != "09:00" {
			t.Errorf("Expected schedule_time '09:00', got '%s'", path.ScheduleTime)
		}

		t.Logf("Created path: ID=%s, Status=%s", path.ID, path.Status)
	})

	t.Run("defaults applied", func(t *testing.T) {
		body, _ := json.Marshal(CreatePathRequest{Name: "Defaults #e2e"})
		resp, err := http.Post(baseURL+"/automation/paths", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("Failed to create path: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			respBody, _ := io.ReadAll(resp.Body)
			t.Fatalf("Expected status 201, got %d: %s", resp.StatusCode, string(respBody))
		}

		var path AutomationPath
		json.NewDecoder(resp.Body).Decode(&path)
		defer deactivateTestPath(t, path.ID)

		if path.Mode != "schedule" {
			t.Errorf("Expected mode 'schedule', got '%s'", path.Mode)
		}
		if path.ScheduleType != "daily" {
			t.Errorf("Expected schedule_type 'daily', got '%s'", path.ScheduleType)
		}
		if len(path.Languages) != 1 || path.Languages[0] != "en" {
			t.Errorf("Expected languages ['en'], got %v", path.Languages)
		}
	})

	t.Run("create without name fails", func(t *testing.T) {
		body, _ := json.Marshal(CreatePathRequest{ContentType: "blog"})
		resp, err := http.Post(baseURL+"/automation/paths", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}
	})

	t.Run("create with malformed schedule_time fails", func(t *testing.T) {
		body, _ := json.Marshal(CreatePathRequest{Name: "Bad time #e2e", ScheduleTime: "25:99"})
		resp, err := http.Post(baseURL+"/automation/paths", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}
	})
}

// TestPathList tests GET /automation/paths
func TestPathList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	t.Run("list all paths", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/automation/paths")
		if err != nil {
			t.Fatalf("Failed to list paths: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, string(respBody))
		}

		var listResp PathListResponse
		json.NewDecoder(resp.Body).Decode(&listResp)

		t.Logf("Listed %d paths", listResp.Total)
	})

	t.Run("list with status filter", func(t *testing.T) {
		path := createTestPath(t, "Active filter #e2e")
		defer deactivateTestPath(t, path.ID)

		resp, err := http.Get(baseURL + "/automation/paths?status=active")
		if err != nil {
			t.Fatalf("Failed to list paths: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var listResp PathListResponse
		json.NewDecoder(resp.Body).Decode(&listResp)

		for _, p := range listResp.Paths {
			if p.Status != "active" {
				t.Errorf("Expected status 'active', got '%s'", p.Status)
			}
		}
	})

	t.Run("get non-existent path returns 404", func(t *testing.T) {
		resp, err := http.Get(fmt.Sprintf("%s/automation/paths/%s", baseURL, "non-existent-id"))
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", resp.StatusCode)
		}
	})
}

// TestPathRunLifecycle tests POST + PATCH /automation/paths/{id}/run
func TestPathRunLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	t.Run("manual run opens and closes a log", func(t *testing.T) {
		path := createTestPath(t, "Manual run #e2e")
		defer deactivateTestPath(t, path.ID)

		today := time.Now().Format("2006-01-02")
		before := fetchDailyUsage(t, today)

		// Start the run
		runResp, err := http.Post(fmt.Sprintf("%s/automation/paths/%s/run", baseURL, path.ID), "application/json", nil)
		if err != nil {
			t.Fatalf("Failed to start run: %v", err)
		}
		defer runResp.Body.Close()

		if runResp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(runResp.Body)
			t.Fatalf("Expected status 200, got %d: %s", runResp.StatusCode, string(respBody))
		}

		var run RunNowResponse
		json.NewDecoder(runResp.Body).Decode(&run)

		if run.LogID == "" {
			t.Fatal("Expected log_id to be set")
		}

		// Close the log with a generated result
		title := "Manual run result"
		content := "Body of the manually generated article"
		tokens := 120
		closeBody, _ := json.Marshal(CloseRunRequest{
			LogID:            run.LogID,
			Status:           "completed",
			GeneratedTitle:   &title,
			GeneratedContent: &content,
			TokensUsed:       &tokens,
		})
		closeReq, _ := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/automation/paths/%s/run", baseURL, path.ID), bytes.NewReader(closeBody))
		closeReq.Header.Set("Content-Type", "application/json")

		closeResp, err := http.DefaultClient.Do(closeReq)
		if err != nil {
			t.Fatalf("Failed to close run: %v", err)
		}
		defer closeResp.Body.Close()

		if closeResp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(closeResp.Body)
			t.Fatalf("Expected status 200, got %d: %s", closeResp.StatusCode, string(respBody))
		}

		var log GenerationLog
		json.NewDecoder(closeResp.Body).Decode(&log)

		if log.Status != "completed" {
			t.Errorf("Expected status 'completed', got '%s'", log.Status)
		}
		if log.GeneratedTitle != title {
			t.Errorf("Expected generated_title '%s', got '%s'", title, log.GeneratedTitle)
		}
		if log.TokensUsed != tokens {
			t.Errorf("Expected tokens_used %d, got %d", tokens, log.TokensUsed)
		}

		// The day's usage counter must absorb the closed run
		after := fetchDailyUsage(t, today)
		if after.TotalTokens != before.TotalTokens+int64(tokens) {
			t.Errorf("Expected total_tokens %d, got %d", before.TotalTokens+int64(tokens), after.TotalTokens)
		}
		if after.RequestsCount != before.RequestsCount+1 {
			t.Errorf("Expected requests_count %d, got %d", before.RequestsCount+1, after.RequestsCount)
		}
		if after.SuccessfulRequests != before.SuccessfulRequests+1 {
			t.Errorf("Expected successful_requests %d, got %d", before.SuccessfulRequests+1, after.SuccessfulRequests)
		}
		if after.FailedRequests != before.FailedRequests {
			t.Errorf("Expected failed_requests unchanged at %d, got %d", before.FailedRequests, after.FailedRequests)
		}

		// A second close must be rejected
		retryReq, _ := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/automation/paths/%s/run", baseURL, path.ID), bytes.NewReader(closeBody))
		retryReq.Header.Set("Content-Type", "application/json")

		retryResp, err := http.DefaultClient.Do(retryReq)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer retryResp.Body.Close()

		if retryResp.StatusCode != http.StatusConflict {
			t.Errorf("Expected status 409 on second close, got %d", retryResp.StatusCode)
		}

		t.Logf("Run lifecycle complete: log=%s", run.LogID)
	})

	t.Run("close failed without error message fails", func(t *testing.T) {
		path := createTestPath(t, "Failed close #e2e")
		defer deactivateTestPath(t, path.ID)

		runResp, err := http.Post(fmt.Sprintf("%s/automation/paths/%s/run", baseURL, path.ID), "application/json", nil)
		if err != nil {
			t.Fatalf("Failed to start run: %v", err)
		}
		defer runResp.Body.Close()

		var run RunNowResponse
		json.NewDecoder(runResp.Body).Decode(&run)

		closeBody, _ := json.Marshal(CloseRunRequest{LogID: run.LogID, Status: "failed"})
		closeReq, _ := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/automation/paths/%s/run", baseURL, path.ID), bytes.NewReader(closeBody))
		closeReq.Header.Set("Content-Type", "application/json")

		closeResp, err := http.DefaultClient.Do(closeReq)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer closeResp.Body.Close()

		if closeResp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", closeResp.StatusCode)
		}
	})
}

// TestSettings tests GET + PUT /settings
func TestSettings(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	t.Run("api key is masked on read", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/settings")
		if err != nil {
			t.Fatalf("Failed to get settings: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var raw map[string]json.RawMessage
		json.NewDecoder(resp.Body).Decode(&raw)

		if _, ok := raw["openai_api_key"]; ok {
			t.Error("Expected api key to be absent from response")
		}
		if _, ok := raw["has_api_key"]; !ok {
			t.Error("Expected has_api_key presence flag")
		}
	})

	t.Run("invalid temperature rejected", func(t *testing.T) {
		body := []byte(`{"temperature": 5}`)
		req, _ := http.NewRequest(http.MethodPut, baseURL+"/settings", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}
	})
}
