package letter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"starlight-postoffice/internal/domain"
)

type fakeLLM struct {
	out     string
	err     error
	lastReq domain.ChatRequest
}

func (f *fakeLLM) Chat(_ context.Context, req domain.ChatRequest) (string, error) {
	f.lastReq = req
	return f.out, f.err
}

func TestGenerate_UsesLetterSettings(t *testing.T) {
	llm := &fakeLLM{out: "To. The me of right now,\n\nYou did well."}
	g := NewGenerator(llm, "gpt-mock")

	got, err := g.Generate(context.Background(), Request{
		RoomName: "Room of Regret", StampID: "REG-TICKET", StampMeaning: "The Missed Golden Ticket.",
		UserLines: []string{"I missed the audition"}, Turns: 10,
	})
	require.NoError(t, err)
	require.Equal(t, "To. The me of right now,\n\nYou did well.", got)

	require.Equal(t, "gpt-mock", llm.lastReq.Model)
	require.InDelta(t, 0.8, llm.lastReq.Temperature, 1e-9)
	require.Equal(t, 500, llm.lastReq.MaxTokens)
	require.Len(t, llm.lastReq.Messages, 2)
	require.Contains(t, llm.lastReq.Messages[0].Content, "REG-TICKET")
	require.Contains(t, llm.lastReq.Messages[0].Content, "I missed the audition")
}

func TestGenerate_AddsMissingSalutation(t *testing.T) {
	g := NewGenerator(&fakeLLM{out: "  Dear you, keep going.  "}, "m")
	got, err := g.Generate(context.Background(), Request{})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got, Salutation))
	require.True(t, strings.HasSuffix(got, "keep going."))
}

func TestGenerate_Failures(t *testing.T) {
	_, err := NewGenerator(&fakeLLM{err: errors.New("down")}, "m").Generate(context.Background(), Request{})
	require.ErrorContains(t, err, "down")

	_, err = NewGenerator(&fakeLLM{out: "   "}, "m").Generate(context.Background(), Request{})
	require.ErrorContains(t, err, "empty")

	_, err = NewGenerator(nil, "m").Generate(context.Background(), Request{})
	require.Error(t, err)

	require.True(t, strings.HasPrefix(Fallback(), Salutation))
}

func TestPrompt_QuotesOnlyRecentLines(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, fmt.Sprintf("line-%02d", i))
	}
	p := Prompt(Request{RoomName: "Room of Dreams", Summary: "wants to sail", UserLines: lines, Turns: 30})
	require.NotContains(t, p, "line-09")
	require.Contains(t, p, "line-10")
	require.Contains(t, p, "line-29")
	require.Contains(t, p, "wants to sail")
	require.NotContains(t, p, "Stamp:")
}
