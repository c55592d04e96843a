package crisis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"starlight-postoffice/internal/domain"
)

func TestObserve_EnterAndStick(t *testing.T) {
	var st domain.CrisisState

	require.Equal(t, EventEntered, Observe(&st, "요즘은 그냥 죽고 싶어요"))
	require.True(t, st.Active)
	require.False(t, st.FirstTurnShown)

	require.Equal(t, EventNone, Observe(&st, "I went to school today"))
	require.True(t, st.Active, "crisis mode is sticky")
	require.Equal(t, 0, st.RecoveryCount)
}

func TestObserve_ClearsAfterTwoConsecutiveRecoveryTurns(t *testing.T) {
	st := domain.CrisisState{Active: true}

	require.Equal(t, EventNone, Observe(&st, "I feel better now"))
	require.True(t, st.Active)
	require.Equal(t, 1, st.RecoveryCount)

	require.Equal(t, EventCleared, Observe(&st, "yes, feeling better"))
	require.False(t, st.Active)
	require.Equal(t, 0, st.RecoveryCount)
}

func TestObserve_InterveningTurnResetsRecovery(t *testing.T) {
	st := domain.CrisisState{Active: true}

	Observe(&st, "조금 나아졌어요")
	require.Equal(t, 1, st.RecoveryCount)

	Observe(&st, "but work is hard")
	require.Equal(t, 0, st.RecoveryCount)
	require.True(t, st.Active)

	Observe(&st, "feel better")
	require.True(t, st.Active, "one recovery turn after a reset is not enough")
	Observe(&st, "feel better")
	require.False(t, st.Active)
}

func TestObserve_CrisisDuringRecoveryRearms(t *testing.T) {
	st := domain.CrisisState{Active: true, FirstTurnShown: true}

	Observe(&st, "feel better")
	require.Equal(t, EventNone, Observe(&st, "no, I want to die"))
	require.True(t, st.Active)
	require.Equal(t, 0, st.RecoveryCount)
	require.True(t, st.FirstTurnShown, "re-arming an active state is not a new entry")
}

func TestObserve_RecoveryWithoutCrisisIsIgnored(t *testing.T) {
	var st domain.CrisisState
	require.Equal(t, EventNone, Observe(&st, "feeling better"))
	require.False(t, st.Active)
	require.Equal(t, 0, st.RecoveryCount)
}
