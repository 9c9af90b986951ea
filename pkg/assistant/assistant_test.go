package assistant

import (
	"context"
	"errors"
	"testing"

	"oss-clearance-be/pkg/llm"
	"oss-clearance-be/pkg/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	replies []string
	calls   [][]llm.Message
	err     error
}

func (p *scriptedProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	p.calls = append(p.calls, append([]llm.Message(nil), history...))
	if p.err != nil {
		return "", p.err
	}
	if len(p.replies) == 0 {
		return "", errors.New("script exhausted")
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	return r, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, in string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: in}}, opts...)
}

func TestAskParsesFencedReply(t *testing.T) {
	p := &scriptedProvider{replies: []string{"```json\n{\"result\":\"Next\",\"talking\":\"ok\",\"is_oem_approved\":true}\n```"}}
	conv := NewClient(p, prompt.Default()).Conversation()

	v, err := conv.Ask(context.Background(), "yes go on", "oem")

	require.NoError(t, err)
	assert.Equal(t, "next", v.Result)
	assert.Equal(t, "ok", v.Talking)
	approved, ok := v.Bool("is_oem_approved")
	assert.True(t, ok)
	assert.True(t, approved)
	require.Len(t, p.calls, 1)
	assert.Equal(t, llm.RoleSystem, p.calls[0][0].Role)
	assert.Contains(t, p.calls[0][0].Content, "OEM")
}

func TestAskRetriesMalformedReplies(t *testing.T) {
	p := &scriptedProvider{replies: []string{
		"not json",
		`{"result":"next"}`,
		`{"result":"continue","talking":"fine"}`,
	}}
	var retries []int
	conv := NewClient(p, prompt.Default(), WithRetryHook(func(_ string, attempt int, _ error) {
		retries = append(retries, attempt)
	})).Conversation()

	v, err := conv.Ask(context.Background(), "hello", "contract")

	require.NoError(t, err)
	assert.Equal(t, "continue", v.Result)
	assert.Equal(t, []int{1, 2}, retries)
	require.Len(t, p.calls, 3)
	last := p.calls[2][len(p.calls[2])-1]
	assert.Equal(t, "Please provide ONLY the exact JSON object as required, no extra text.", last.Content)
}

func TestAskGivesUpAfterFiveAttempts(t *testing.T) {
	p := &scriptedProvider{replies: []string{"a", "b", "c", "d", "e", `{"result":"next","talking":"late"}`}}
	conv := NewClient(p, prompt.Default()).Conversation()

	_, err := conv.Ask(context.Background(), "hello")

	assert.ErrorIs(t, err, ErrMalformedReply)
	assert.Len(t, p.calls, DefaultMaxAttempts)
}

func TestAskSurfacesTransportErrors(t *testing.T) {
	p := &scriptedProvider{err: errors.New("connection refused")}
	conv := NewClient(p, prompt.Default()).Conversation()

	_, err := conv.Ask(context.Background(), "hello")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedReply)
	assert.Len(t, p.calls, 1)
}

func TestConversationCloneIsolatesHistory(t *testing.T) {
	p := &scriptedProvider{replies: []string{`{"result":"next","talking":"a"}`, `{"result":"next","talking":"b"}`}}
	conv := NewClient(p, prompt.Default()).Conversation()
	_, err := conv.Ask(context.Background(), "one")
	require.NoError(t, err)

	clone := conv.Clone()
	_, err = clone.Ask(context.Background(), "two")
	require.NoError(t, err)

	assert.Len(t, conv.History(), 2)
	assert.Len(t, clone.History(), 4)
}

func TestPromptUnknownName(t *testing.T) {
	conv := NewClient(&scriptedProvider{}, prompt.Default()).Conversation()

	_, err := conv.Prompt(context.Background(), "bot/Missing")

	assert.ErrorIs(t, err, prompt.ErrUnknownPrompt)
}
