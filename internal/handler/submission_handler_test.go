package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/docserver-api/internal/dto"
	"github.com/noah-isme/docserver-api/internal/handler"
	"github.com/noah-isme/docserver-api/internal/service"
)

type mockSubmissionService struct {
	summary dto.SubmissionSummary
	rows    []dto.MySubmissionRow
	result  dto.ReviewResultResponse
	err     error

	createdDocTypeID uint
	createdFields    string
	createdActor     service.Actor
	listMineCalled   bool
	getCalled        bool
}

func (m *mockSubmissionService) Create(_ context.Context, actor service.Actor, docTypeID uint, fieldsJSON string, _ *multipart.FileHeader) (dto.SubmissionSummary, error) {
	m.createdActor = actor
	m.createdDocTypeID = docTypeID
	m.createdFields = fieldsJSON
	return m.summary, m.err
}

func (m *mockSubmissionService) Update(_ context.Context, _ service.Actor, _ uint, _ string, _ *multipart.FileHeader) (dto.SubmissionSummary, error) {
	return m.summary, m.err
}

func (m *mockSubmissionService) Submit(_ context.Context, _ service.Actor, _ uint, _ dto.SubmitRequest) (dto.SubmissionSummary, error) {
	return m.summary, m.err
}

func (m *mockSubmissionService) GetSummary(_ context.Context, _ uint) (dto.SubmissionSummary, error) {
	m.getCalled = true
	return m.summary, m.err
}

func (m *mockSubmissionService) ListMine(_ context.Context, _ service.Actor, _ int, _ string) ([]dto.MySubmissionRow, error) {
	m.listMineCalled = true
	return m.rows, m.err
}

func (m *mockSubmissionService) ReviewResult(_ context.Context, _ uint) (dto.ReviewResultResponse, error) {
	return m.result, m.err
}

func newSubmissionApp(svc service.SubmissionService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/submissions", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_role", "student")
		return c.Next()
	})
	handler.NewSubmissionHandler(svc, zerolog.New(io.Discard)).Register(group)
	return app
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestSubmissionHandler_CreateMultipart(t *testing.T) {
	svc := &mockSubmissionService{summary: dto.SubmissionSummary{SubmissionID: 3, Status: "UNDER_REVIEW"}}
	app := newSubmissionApp(svc)

	body, contentType := multipartBody(t, map[string]string{
		"docTypeId":  "12",
		"fieldsJson": `[{"label":"name","value":"Alice"}]`,
	}, "doc.pdf", []byte("%PDF-1.4"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	require.Equal(t, uint(12), svc.createdDocTypeID)
	require.Equal(t, `[{"label":"name","value":"Alice"}]`, svc.createdFields)
	require.Equal(t, uint(7), svc.createdActor.ID)

	var response struct {
		Success bool                  `json:"success"`
		Data    dto.SubmissionSummary `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, uint(3), response.Data.SubmissionID)
}

func TestSubmissionHandler_CreateRequiresDocTypeID(t *testing.T) {
	svc := &mockSubmissionService{}
	app := newSubmissionApp(svc)

	body, contentType := multipartBody(t, map[string]string{}, "doc.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandler_MyRouteIsNotShadowedByID(t *testing.T) {
	svc := &mockSubmissionService{rows: []dto.MySubmissionRow{{SubmissionID: 1, Status: "APPROVED", FileName: "doc.pdf"}}}
	app := newSubmissionApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/submissions/my?limit=5&status=APPROVED", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, svc.listMineCalled)
	require.False(t, svc.getCalled)
}

func TestSubmissionHandler_InvalidIdentifier(t *testing.T) {
	svc := &mockSubmissionService{}
	app := newSubmissionApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/submissions/abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "not found", err: service.ErrSubmissionNotFound, statusCode: fiber.StatusNotFound},
		{name: "doc type missing", err: service.ErrDocTypeNotFound, statusCode: fiber.StatusNotFound},
		{name: "unknown student", err: service.ErrStudentNotFound, statusCode: fiber.StatusUnauthorized},
		{name: "deadline", err: service.ErrDeadlinePassed, statusCode: fiber.StatusBadRequest},
		{name: "mode", err: service.ErrModeRequired, statusCode: fiber.StatusBadRequest},
		{name: "not editable", err: service.ErrNotEditable, statusCode: fiber.StatusConflict},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSubmissionService{err: tc.err}
			app := newSubmissionApp(svc)

			payload, err := json.Marshal(dto.SubmitRequest{})
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions/1/submit", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}

func TestSubmissionHandler_ReviewResult(t *testing.T) {
	svc := &mockSubmissionService{result: dto.ReviewResultResponse{
		SubmissionID: 9,
		Status:       "NEEDS_FIX",
		DebugTexts:   []string{"student submission", "automated review failed: missing seal"},
		Findings:     []dto.Finding{{Label: "seal", Message: "official seal not found"}},
	}}
	app := newSubmissionApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/submissions/9/review-result", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.ReviewResultResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Len(t, response.Data.DebugTexts, 2)
	require.Len(t, response.Data.Findings, 1)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, target))
}
