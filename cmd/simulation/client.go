package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"oss-clearance-be/internal/dto"
	"oss-clearance-be/internal/pkg/serverutils"
)

type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (c *client) Analyze(path string) (*dto.AnalyzeResponse, error) {
	var res dto.AnalyzeResponse
	if err := c.upload("/analyze", path, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *client) AnalyzeContract(sessionID, path string) (*serverutils.Response, error) {
	var res serverutils.Response
	if err := c.upload("/analyze-contract/"+sessionID, path, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *client) Chat(sessionID, message string) (*dto.ChatResponse, error) {
	body, err := json.Marshal(dto.ChatRequest{Message: message})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/chat/"+sessionID, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var res dto.ChatResponse
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *client) upload(route, path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+route, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var e serverutils.ErrorBody
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return fmt.Errorf("%d %s: %s", resp.StatusCode, e.Error, e.Message)
		}
		return fmt.Errorf("%d: %s", resp.StatusCode, string(raw))
	}
	return json.Unmarshal(raw, out)
}
