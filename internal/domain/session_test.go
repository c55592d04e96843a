package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecentUserTexts_SkipsUnansweredLines(t *testing.T) {
	s := NewSession("v", time.Unix(0, 0))
	s.Append(RoleUser, "one")
	s.Append(RoleAgent, "reply")
	s.Append(RoleUser, "two")
	s.MarkLastUserUnanswered()
	s.Append(RoleUser, "three")
	s.Append(RoleUser, "four")

	require.Equal(t, []string{"one", "three"}, s.RecentUserTexts(3))
	require.Equal(t, []string{"three"}, s.RecentUserTexts(1))
	require.Equal(t, []string{"one", "two", "three", "four"}, s.UserTexts())
}

func TestRecentUserTexts_Empty(t *testing.T) {
	s := NewSession("v", time.Unix(0, 0))
	require.Nil(t, s.RecentUserTexts(3))
	s.Append(RoleUser, "only")
	require.Empty(t, s.RecentUserTexts(3))
}
