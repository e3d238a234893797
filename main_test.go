package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandPublishes(t *testing.T) {
	isolateEnv(t)
	server, requests := newMockAPI(t, http.StatusCreated, "application/json",
		`{"data":{"id":"42","url":"https://medium.com/p/42"}}`)
	settings := writeSettings(t, "host: "+server.URL+"\nuser_id: user-9\n")
	doc := writeFile(t, "ADQL.md", "# ADQL\n\nQueries.\n")
	t.Setenv(envToken, "env-token")

	out, err := executeRoot(t, "--settings", settings, "--title", "Gaia and ADQL", doc)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if strings.TrimSpace(out) != "Article published successfully! https://medium.com/p/42" {
		t.Errorf("output = %q", out)
	}
	if len(*requests) != 1 {
		t.Fatalf("server received %d requests, want 1", len(*requests))
	}
	req := (*requests)[0]
	if req.Path != "/v1/users/user-9/posts" {
		t.Errorf("Path = %q", req.Path)
	}
	if req.Payload.Title != "Gaia and ADQL" {
		t.Errorf("title = %q, want flag title", req.Payload.Title)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer env-token" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestRootCommandReportsFailureWithoutError(t *testing.T) {
	isolateEnv(t)
	server, _ := newMockAPI(t, http.StatusBadRequest, "application/json",
		`{"errors":[{"message":"Token was invalid.","code":6003}]}`)
	settings := writeSettings(t, "host: "+server.URL+"\nuser_id: user-9\n")
	doc := writeFile(t, "post.md", "# Post\n")

	out, err := executeRoot(t, "--settings", settings, "--token", "bad", doc)
	if err != nil {
		t.Fatalf("Execute() error = %v, a rejected post is not a fault", err)
	}

	if !strings.HasPrefix(out, "Error: 400") {
		t.Errorf("output = %q, want status code reported", out)
	}
	if !strings.Contains(out, "Token was invalid.") {
		t.Errorf("output = %q, want error content reported", out)
	}
	if strings.Contains(out, "successfully") {
		t.Errorf("output = %q, must not report success", out)
	}
}

func TestRootCommandMissingFile(t *testing.T) {
	isolateEnv(t)
	server, requests := newMockAPI(t, http.StatusCreated, "application/json", `{}`)
	settings := writeSettings(t, "host: "+server.URL+"\nuser_id: user-9\n")

	_, err := executeRoot(t, "--settings", settings, "--token", "t", "does-not-exist.md")
	if err == nil {
		t.Fatal("Execute() expected error for missing file")
	}
	if len(*requests) != 0 {
		t.Errorf("server received %d requests, want 0", len(*requests))
	}
}

func TestRootCommandRequiresToken(t *testing.T) {
	isolateEnv(t)
	settings := writeSettings(t, "host: api.example.com\nuser_id: user-9\n")
	doc := writeFile(t, "post.md", "# Post\n")

	_, err := executeRoot(t, "--settings", settings, doc)
	if err == nil || !strings.Contains(err.Error(), envToken) {
		t.Errorf("Execute() error = %v, want missing token error", err)
	}
}

func TestRootCommandRequiresFile(t *testing.T) {
	isolateEnv(t)
	settings := writeSettings(t, "host: api.example.com\nuser_id: user-9\n")

	_, err := executeRoot(t, "--settings", settings, "--token", "t")
	if err == nil || !strings.Contains(err.Error(), "file required") {
		t.Errorf("Execute() error = %v, want file required error", err)
	}
}

func TestRootCommandFileFromSettings(t *testing.T) {
	isolateEnv(t)
	server, requests := newMockAPI(t, http.StatusCreated, "application/json", `{}`)
	doc := writeFile(t, "post.md", "# From Settings\n")
	settings := writeSettings(t, "host: "+server.URL+"\nuser_id: u\nfile: "+doc+"\n")

	out, err := executeRoot(t, "--settings", settings, "--token", "t")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.TrimSpace(out) != "Article published successfully!" {
		t.Errorf("output = %q", out)
	}
	if len(*requests) != 1 || (*requests)[0].Payload.Title != "From Settings" {
		t.Errorf("requests = %+v, want one post titled from the first heading", *requests)
	}
}

func TestRootCommandDryRun(t *testing.T) {
	isolateEnv(t)
	server, requests := newMockAPI(t, http.StatusCreated, "application/json", `{}`)
	settings := writeSettings(t, "host: "+server.URL+"\nuser_id: user-9\n")
	content := "# Dry\n\nNot sent.\n"
	doc := writeFile(t, "dry.md", content)

	out, err := executeRoot(t, "--settings", settings, "--dry-run", doc)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var payload PublishRequest
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("dry run output is not a JSON payload: %v\n%s", err, out)
	}
	if payload.Content != content || payload.Title != "Dry" || payload.ContentFormat != "markdown" {
		t.Errorf("payload = %+v", payload)
	}
	if len(*requests) != 0 {
		t.Errorf("server received %d requests during dry run, want 0", len(*requests))
	}
}
