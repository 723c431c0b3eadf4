package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"petconnect/internal/models"
	"petconnect/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// geminiStub answers generateContent calls with a fixed text part.
type geminiStub struct {
	mu     sync.Mutex
	status int
	reply  string
	path   string
	key    string
	body   []byte
}

func (g *geminiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.path = r.URL.Path
	g.key = r.URL.Query().Get("key")
	g.body, _ = io.ReadAll(r.Body)

	w.Header().Set("Content-Type", "application/json")
	if g.status != 0 {
		w.WriteHeader(g.status)
	}
	_, _ = io.WriteString(w, g.reply)
}

func geminiReply(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
}

func newAIService(t *testing.T, stub *geminiStub, rpm int) (*AIService, *testEnv) {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	env := newTestEnv(t)
	svc := NewAIService(env.products, AIConfig{
		APIKey:            "test-key",
		BaseURL:           srv.URL + "/",
		RequestsPerMinute: rpm,
	})
	return svc, env
}

func TestAIService_Advice(t *testing.T) {
	stub := &geminiStub{reply: geminiReply("```json\n{\"animal_type\":\"dog\"}\n```")}
	svc, _ := newAIService(t, stub, 10)

	out, err := svc.Advice(context.Background(), []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.JSONEq(t, `{"animal_type":"dog"}`, out)

	assert.Equal(t, "/models/gemini-2.5-flash:generateContent", stub.path)
	assert.Equal(t, "test-key", stub.key)
	inline := gjson.GetBytes(stub.body, "contents.0.parts.1.inline_data")
	assert.Equal(t, "image/png", inline.Get("mime_type").String())
	assert.Equal(t, "cG5nLWJ5dGVz", inline.Get("data").String())
}

func TestAIService_AdviceValidation(t *testing.T) {
	svc, _ := newAIService(t, &geminiStub{reply: geminiReply("{}")}, 10)

	_, err := svc.Advice(context.Background(), nil, "image/png")
	assert.Equal(t, models.CodeValidation, errCode(err))
	_, err = svc.Advice(context.Background(), []byte("%PDF"), "application/pdf")
	assert.Equal(t, models.CodeValidation, errCode(err))
}

func TestAIService_DietIncludesCatalogue(t *testing.T) {
	stub := &geminiStub{reply: geminiReply(`{"diet_summary":"ok"}`)}
	svc, env := newAIService(t, stub, 10)
	testutil.CreateProduct(t, env.db, "Puppy Kibble", 12, 4)
	testutil.CreateProduct(t, env.db, "Sold Out Treats", 3, 0)

	out, err := svc.DietAndProducts(context.Background(), DietRequest{
		PetType: "Dog", Breed: "Beagle", AgeYears: 3, WeightKg: 11.5,
		ActivityLevel: "high", Goal: "maintain",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"diet_summary":"ok"}`, out)

	prompt := gjson.GetBytes(stub.body, "contents.0.parts.0.text").String()
	assert.Contains(t, prompt, "- Name: Unknown")
	assert.Contains(t, prompt, "- Weight (kg): 11.5")
	assert.Contains(t, prompt, `"name":"Puppy Kibble"`)
	assert.Contains(t, prompt, `"category":"Food"`)
	assert.NotContains(t, prompt, "Sold Out Treats")
}

func TestDietRequest_Validate(t *testing.T) {
	valid := DietRequest{PetType: "Cat", Breed: "Persian", AgeYears: 2, WeightKg: 4, ActivityLevel: "low", Goal: "lose"}
	tests := []struct {
		name   string
		mutate func(*DietRequest)
		ok     bool
	}{
		{"valid", func(*DietRequest) {}, true},
		{"blank type", func(r *DietRequest) { r.PetType = "  " }, false},
		{"missing breed", func(r *DietRequest) { r.Breed = "" }, false},
		{"negative age", func(r *DietRequest) { r.AgeYears = -1 }, false},
		{"ancient", func(r *DietRequest) { r.AgeYears = 51 }, false},
		{"weightless", func(r *DietRequest) { r.WeightKg = 0 }, false},
		{"too heavy", func(r *DietRequest) { r.WeightKg = 300.5 }, false},
		{"missing activity", func(r *DietRequest) { r.ActivityLevel = "" }, false},
		{"missing goal", func(r *DietRequest) { r.Goal = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, models.CodeValidation, errCode(err))
		})
	}
}

func TestAIService_Failures(t *testing.T) {
	ctx := context.Background()
	image := []byte("jpeg")

	t.Run("not configured", func(t *testing.T) {
		svc := NewAIService(nil, AIConfig{})
		_, err := svc.Advice(ctx, image, "image/jpeg")
		assert.Equal(t, models.CodeUnavailable, errCode(err))
	})

	t.Run("upstream error", func(t *testing.T) {
		svc, _ := newAIService(t, &geminiStub{status: http.StatusBadGateway, reply: `{"error":"boom"}`}, 10)
		_, err := svc.Advice(ctx, image, "image/jpeg")
		assert.Equal(t, models.CodeInternal, errCode(err))
	})

	t.Run("no text part", func(t *testing.T) {
		svc, _ := newAIService(t, &geminiStub{reply: `{"candidates":[]}`}, 10)
		_, err := svc.Advice(ctx, image, "image/jpeg")
		assert.Equal(t, models.CodeInternal, errCode(err))
	})

	t.Run("rate limited", func(t *testing.T) {
		svc, _ := newAIService(t, &geminiStub{reply: geminiReply("{}")}, 1)
		_, err := svc.Advice(ctx, image, "image/jpeg")
		require.NoError(t, err)
		_, err = svc.Advice(ctx, image, "image/jpeg")
		assert.Equal(t, models.CodeTooManyRequests, errCode(err))
	})
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "{}"},
		{"plain", `  {"a":1} `, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "here:\n```\n{\"a\":1}\n```\nbye", `{"a":1}`},
		{"unterminated", "```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, strings.TrimSpace(stripFence(tt.in)))
		})
	}
}
