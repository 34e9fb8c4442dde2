// Minimal end-to-end smoke run against a live raiinmaker-verify API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

var (
	baseURL   = getenv("API_URL", "http://localhost:8080")
	redisURL  = getenv("REDIS_URL", "")
	jwtSecret = getenv("JWT_SECRET", "dev-secret")
	room      = getenv("SMOKE_ROOM", "smoke-test")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	token := mintToken()

	health()
	taskID := submit(token, fmt.Sprintf("smoke test content %d", time.Now().Unix()))
	status(token, taskID)
	latest(token)
	tasks(token)

	if redisURL != "" {
		checkStream()
	}

	fmt.Println("✓ all endpoints passed")
}

func mintToken() string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": room,
		"exp": time.Now().Add(10 * time.Minute).Unix(),
	})
	signed, err := tok.SignedString([]byte(jwtSecret))
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	return signed
}

// ----------------------------- endpoints

func health() {
	doJSON("", http.MethodGet, "/healthz", nil, nil, http.StatusOK)
}

func submit(token, content string) string {
	var resp result
	doJSON(token, http.MethodPost, "/v1/verify", map[string]any{
		"content":      content,
		"skipPreCheck": true,
	}, &resp, http.StatusOK)
	if resp.TaskID == "" {
		log.Fatalf("verify: no task id in %+v", resp)
	}
	fmt.Println("submitted:", resp.Text)
	return resp.TaskID
}

func status(token, taskID string) {
	var resp result
	doJSON(token, http.MethodGet, "/v1/verify/"+taskID, nil, &resp, http.StatusOK)
	if resp.TaskID != taskID {
		log.Fatalf("status: want task %s, got %s", taskID, resp.TaskID)
	}
	fmt.Println("status:", resp.Text)
}

func latest(token string) {
	var resp result
	doJSON(token, http.MethodGet, "/v1/status", nil, &resp, http.StatusOK)
	fmt.Println("latest:", resp.Text)
}

func tasks(token string) {
	var resp result
	doJSON(token, http.MethodGet, "/v1/tasks?status=pending&limit=10", nil, &resp, http.StatusOK)
	fmt.Println("tasks:", resp.Text)
}

func checkStream() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("redis url: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	entries, err := rdb.XRevRangeN(ctx, "raiinmaker.verifications", "+", "-", 1).Result()
	if err != nil {
		log.Fatalf("redis xrevrange: %v", err)
	}
	if len(entries) == 0 {
		log.Fatal("redis: no verification events published")
	}
	fmt.Println("latest event:", entries[0].Values["kind"], entries[0].Values["taskId"])
}

// ----------------------------- helpers

type result struct {
	Text   string `json:"text"`
	TaskID string `json:"taskId"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

func doJSON(token, method, path string, body any, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, baseURL+path, &buf)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
}
