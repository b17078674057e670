package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Rrens/chatdesk/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name       string
	configured bool
	text       string
	err        error
	prompt     string
	system     string
}

func (s *stubProvider) Name() string              { return s.name }
func (s *stubProvider) DefaultModel() string { return "m" }
func (s *stubProvider) IsConfigured() bool   { return s.configured }

func (s *stubProvider) Generate(ctx context.Context, req llm.Request, model string) (*llm.Response, error) {
	s.prompt = req.Prompt
	s.system = req.System
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Text: s.text, Model: "m"}, nil
}

func TestRouter_GetProvider(t *testing.T) {
	r := llm.NewRouter("gemini")
	r.RegisterProvider(&stubProvider{name: "gemini", configured: true})
	r.RegisterProvider(&stubProvider{name: "ollama", configured: false})

	p, err := r.GetProvider("")
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())

	_, err = r.GetProvider("ollama")
	assert.Error(t, err)

	_, err = r.GetProvider("openai")
	assert.Error(t, err)

	assert.Equal(t, []string{"gemini"}, r.ListProviders())
}

func TestRouter_SuggestTitle(t *testing.T) {
	stub := &stubProvider{name: "gemini", configured: true, text: "\"Key rotation\"\n"}
	r := llm.NewRouter("gemini")
	r.RegisterProvider(stub)

	title, err := r.SuggestTitle(context.Background(), "how do I rotate keys")
	require.NoError(t, err)
	assert.Equal(t, "Key rotation", title)
	assert.Contains(t, stub.prompt, "how do I rotate keys")
	assert.Equal(t, llm.TitleSystemPrompt, stub.system)
}

func TestRouter_SuggestTitle_Errors(t *testing.T) {
	r := llm.NewRouter("gemini")
	r.RegisterProvider(&stubProvider{name: "gemini", configured: true, err: errors.New("quota")})
	_, err := r.SuggestTitle(context.Background(), "x")
	assert.Error(t, err)

	r = llm.NewRouter("gemini")
	r.RegisterProvider(&stubProvider{name: "gemini", configured: true, text: "  "})
	_, err = r.SuggestTitle(context.Background(), "x")
	assert.Error(t, err)

	_, err = llm.NewRouter("none").SuggestTitle(context.Background(), "x")
	assert.Error(t, err)
}
