package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"oss-clearance-be/internal/dto"
	"oss-clearance-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClearanceService struct {
	uploaded string
	chatText string
	chatErr  error
}

func (f *fakeClearanceService) Analyze(_ context.Context, fileName string, html []byte) (*dto.AnalyzeResponse, error) {
	f.uploaded = fileName + ":" + string(html)
	return &dto.AnalyzeResponse{
		SessionId:  uuid.MustParse("6f1c1f3e-8a43-4a56-9a53-0a8d2b6b1e11"),
		Components: []string{"zlib"},
		Message:    "Is the vendor an OEM?",
		Status:     "oem",
	}, nil
}

func (f *fakeClearanceService) AnalyzeContract(_ context.Context, _, fileName string, _ []byte) (*dto.ContractResponse, string, error) {
	return &dto.ContractResponse{FilePath: "downloads/s/contract/" + fileName, Status: "dependency"}, "Let's check dependencies.", nil
}

func (f *fakeClearanceService) Chat(_ context.Context, _, message string) (*dto.ChatResponse, error) {
	f.chatText = message
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	idx := 0
	return &dto.ChatResponse{Status: "contract", Message: "Please upload the contract.", CurrentComponentIdx: &idx}, nil
}

func (f *fakeClearanceService) Session(_ context.Context, sessionID string) (*dto.SessionResponse, error) {
	return nil, serverutils.NotFound(serverutils.CodeSessionNotFound, "Session "+sessionID+" not found")
}

func (f *fakeClearanceService) ReadmePath(context.Context, string) (string, error) {
	return "", serverutils.NotFound(serverutils.CodeNotFound, "Sorry, we have not found the file you wanted")
}

func (f *fakeClearanceService) Report(context.Context, string) (string, error) {
	return "# Product Clearance Report\n", nil
}

func newTestApp(svc *fakeClearanceService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewClearanceController(svc).RegisterRoutes(app)
	return app
}

func multipartBody(t *testing.T, field, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func decode(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(r).Decode(&out))
	return out
}

func TestAnalyze(t *testing.T) {
	svc := &fakeClearanceService{}
	app := newTestApp(svc)

	body, contentType := multipartBody(t, "file", "LicenseInfo.html", "<html></html>")
	req := httptest.NewRequest("POST", "/analyze", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "LicenseInfo.html:<html></html>", svc.uploaded)

	out := decode(t, resp.Body)
	assert.Equal(t, "6f1c1f3e-8a43-4a56-9a53-0a8d2b6b1e11", out["session_id"])
	assert.Equal(t, "oem", out["status"])
	assert.Equal(t, []interface{}{"zlib"}, out["components"])
}

func TestAnalyzeWithoutFile(t *testing.T) {
	app := newTestApp(&fakeClearanceService{})

	req := httptest.NewRequest("POST", "/analyze", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, serverutils.CodeAnalysisFailed, body["error"])
	assert.Equal(t, "Missing upload field \"file\"", body["message"])
}

func TestAnalyzeContractWithoutFile(t *testing.T) {
	app := newTestApp(&fakeClearanceService{})

	req := httptest.NewRequest("POST", "/analyze-contract/s", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, serverutils.CodeBadRequest, decode(t, resp.Body)["error"])
}

func TestAnalyzeContract(t *testing.T) {
	app := newTestApp(&fakeClearanceService{})

	body, contentType := multipartBody(t, "file", "contract.pdf", "%PDF")
	req := httptest.NewRequest("POST", "/analyze-contract/s", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decode(t, resp.Body)
	assert.Equal(t, "Let's check dependencies.", out["message"])
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "downloads/s/contract/contract.pdf", data["file_path"])
}

func TestChat(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		chatErr    error
		wantStatus int
		wantError  string
	}{
		{"turn", `{"message":"yes"}`, nil, fiber.StatusOK, ""},
		{"empty message", `{"message":""}`, nil, fiber.StatusBadRequest, serverutils.CodeValidation},
		{"malformed body", `{`, nil, fiber.StatusBadRequest, serverutils.CodeBadRequest},
		{
			"classifier failure",
			`{"message":"yes"}`,
			serverutils.NewAppError(fiber.StatusInternalServerError, serverutils.CodeChatError, "Sorry", nil),
			fiber.StatusInternalServerError,
			serverutils.CodeChatError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeClearanceService{chatErr: tt.chatErr})

			req := httptest.NewRequest("POST", "/chat/s", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			out := decode(t, resp.Body)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, out["error"])
				return
			}
			assert.Equal(t, "contract", out["status"])
			assert.Equal(t, 0.0, out["current_component_idx"])
		})
	}
}

func TestNotFoundRoutes(t *testing.T) {
	tests := []struct {
		path string
		code string
	}{
		{"/sessions/missing", serverutils.CodeSessionNotFound},
		{"/download/missing", serverutils.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			app := newTestApp(&fakeClearanceService{})
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
			assert.Equal(t, tt.code, decode(t, resp.Body)["error"])
		})
	}
}

func TestReportIsMarkdown(t *testing.T) {
	app := newTestApp(&fakeClearanceService{})
	resp, err := app.Test(httptest.NewRequest("GET", "/report/s", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "# Product Clearance Report\n", string(raw))
}
