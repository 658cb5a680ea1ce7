package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianfending/contact-service/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	return c, w
}

func TestStatusAndMessage(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "nil error",
			err:         nil,
			wantStatus:  http.StatusOK,
			wantMessage: MessageSent,
		},
		{
			name:        "missing fields",
			err:         domain.NewValidationError("", domain.MessageFieldsRequired),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "All fields are required",
		},
		{
			name:        "invalid email",
			err:         domain.NewValidationErrorWithValue("email", domain.MessageInvalidEmail, "nope"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Please enter a valid email address",
		},
		{
			name:        "verification failure hides the reason",
			err:         domain.NewVerificationError("score below threshold", nil),
			wantStatus:  http.StatusBadRequest,
			wantMessage: MessageVerificationFailed,
		},
		{
			name:        "wrapped verification failure",
			err:         fmt.Errorf("verify failed: %w", domain.NewVerificationError("provider call failed", errors.New("timeout"))),
			wantStatus:  http.StatusBadRequest,
			wantMessage: MessageVerificationFailed,
		},
		{
			name:        "persistence failure",
			err:         domain.NewPersistenceError("sheets", errors.New("quota exceeded for project 123")),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MessageInternal,
		},
		{
			name:        "unknown error",
			err:         errors.New("unexpected"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MessageInternal,
		},
		{
			name:        "body too large",
			err:         fmt.Errorf("binding: %w", &http.MaxBytesError{Limit: 10}),
			wantStatus:  http.StatusRequestEntityTooLarge,
			wantMessage: MessageTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := StatusAndMessage(tt.err)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMessage, msg)
		})
	}
}

func TestHandleError_DoesNotLeakCause(t *testing.T) {
	c, w := newTestContext("")

	HandleError(c, domain.NewPersistenceError("jira", errors.New("401 Unauthorized: token abc123 revoked")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "abc123")
	assert.NotContains(t, w.Body.String(), "jira")

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, MessageInternal, resp.Message)
}

func TestHandleError_ResponseShape(t *testing.T) {
	c, w := newTestContext("")

	HandleError(c, domain.NewValidationError("", domain.MessageFieldsRequired))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"All fields are required"}`, w.Body.String())
}

func TestAbortWithMessage(t *testing.T) {
	c, w := newTestContext("")

	AbortWithMessage(c, http.StatusServiceUnavailable, MessageTimeout)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"message":"The request took too long. Please try again."}`, w.Body.String())
}

func TestGetTraceID(t *testing.T) {
	tests := []struct {
		name         string
		setupContext func(*gin.Context)
		want         string
	}{
		{
			name: "trace ID in context",
			setupContext: func(c *gin.Context) {
				c.Set("trace_id", "context-trace-123")
			},
			want: "context-trace-123",
		},
		{
			name: "falls back to request ID header",
			setupContext: func(c *gin.Context) {
				c.Request.Header.Set("X-Request-ID", "header-trace-456")
			},
			want: "header-trace-456",
		},
		{
			name: "trace ID in context takes precedence",
			setupContext: func(c *gin.Context) {
				c.Set("trace_id", "context-trace-123")
				c.Request.Header.Set("X-Request-ID", "header-trace-456")
			},
			want: "context-trace-123",
		},
		{
			name:         "no trace ID",
			setupContext: func(c *gin.Context) {},
			want:         "",
		},
		{
			name: "trace ID in context but wrong type",
			setupContext: func(c *gin.Context) {
				c.Set("trace_id", 12345)
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext("")
			tt.setupContext(c)

			assert.Equal(t, tt.want, GetTraceID(c))
		})
	}
}

func TestBindAndValidate_ContactRequest(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantErr     bool
		wantMessage string
		wantField   string
	}{
		{
			name: "valid body",
			body: `{"name":"Jane Doe","email":"jane@example.com","subject":"Consulting","message":"Let's talk","recaptchaToken":"tok123"}`,
		},
		{
			name: "token omitted",
			body: `{"name":"Jane Doe","email":"jane@example.com","subject":"Consulting","message":"Let's talk"}`,
		},
		{
			name:        "malformed JSON",
			body:        `{"name":`,
			wantErr:     true,
			wantMessage: domain.MessageFieldsRequired,
		},
		{
			name:        "wrong field type",
			body:        `{"name":42}`,
			wantErr:     true,
			wantMessage: domain.MessageFieldsRequired,
		},
		{
			name:        "empty body",
			body:        ``,
			wantErr:     true,
			wantMessage: domain.MessageFieldsRequired,
		},
		{
			name:        "message too long",
			body:        `{"name":"Jane","email":"jane@example.com","subject":"Other","message":"` + strings.Repeat("a", MaxMessageLength+1) + `"}`,
			wantErr:     true,
			wantMessage: "Message must be at most 10000 characters",
			wantField:   "message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(tt.body)

			var req ContactRequest
			err := BindAndValidate(c, &req)

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "Jane Doe", req.Name)
				return
			}

			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))

			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantMessage, validationErr.Message)
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}
}

func TestBindAndValidate_BodyTooLarge(t *testing.T) {
	c, _ := newTestContext(`{"name":"` + strings.Repeat("a", 100) + `"}`)
	c.Request.Body = http.MaxBytesReader(httptest.NewRecorder(), c.Request.Body, 10)

	var req ContactRequest
	err := BindAndValidate(c, &req)

	require.Error(t, err)
	status, _ := StatusAndMessage(err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
}

func TestFieldSentence(t *testing.T) {
	type sample struct {
		Name    string `json:"name"    validate:"required"`
		Email   string `json:"email"   validate:"email"`
		Subject string `json:"subject" validate:"min=3"`
		Tags    []int  `json:"tags"    validate:"max=1"`
		Code    string `json:"code"    validate:"alpha"`
		Secret  string `json:"-"       validate:"max=1"`
	}

	err := Validator().Struct(&sample{Email: "nope", Subject: "Hi", Tags: []int{1, 2}, Code: "123"})

	var fieldErrs validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)

	got := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		got[fe.Field()] = fieldSentence(fe)
	}

	assert.Equal(t, map[string]string{
		"name":    "Name is required",
		"email":   "Email must be a valid email address",
		"subject": "Subject must be at least 3 characters",
		"tags":    "Tags must be at most 1",
		"code":    "Code is invalid",
	}, got)
}
