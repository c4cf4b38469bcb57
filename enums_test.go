package speechd

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEnumNames(t *testing.T) {
	require.Equal(t, "important", Important.String())
	require.Equal(t, "progress", Progress.String())
	require.Equal(t, "CHILD_FEMALE", ChildFemale.String())
	require.Equal(t, "some", PunctSome.String())
	require.Equal(t, "icon", CapIcon.String())
	require.Equal(t, "index_marks", NotifyIndexMarks.String())
	require.Equal(t, "all", NotifyAll.String())
	require.Equal(t, "index_mark", EventIndexMark.String())
	require.Equal(t, "threaded", ModeThreaded.String())
	require.Equal(t, "ssml", DataSSML.String())
	require.Equal(t, "Priority(9)", Priority(9).String())
	require.Equal(t, "EventKind(-1)", EventKind(-1).String())
	require.Equal(t, "NotificationKind(7)", NotificationKind(7).String())
}

func TestPriorityAndNotificationKindAreDistinct(t *testing.T) {
	// The priority constant and the notification category type share a stem.
	var n NotificationKind = NotifyPause
	require.Equal(t, "pause", n.String())
	require.Equal(t, "notification", Notification.String())
}

func TestParseEnums(t *testing.T) {
	p, err := ParsePriority("Notification")
	require.NoError(t, err)
	require.Equal(t, Notification, p)
	_, err = ParsePriority("urgent")
	require.Error(t, err)

	v, err := ParseVoiceType(" female3 ")
	require.NoError(t, err)
	require.Equal(t, Female3, v)
	_, err = ParseVoiceType("robot")
	require.Error(t, err)

	m, err := ParseMode("THREADED")
	require.NoError(t, err)
	require.Equal(t, ModeThreaded, m)
	_, err = ParseMode("async")
	require.Error(t, err)

	pu, err := ParsePunctuation("none")
	require.NoError(t, err)
	require.Equal(t, PunctNone, pu)

	cl, err := ParseCapitalLetters("spell")
	require.NoError(t, err)
	require.Equal(t, CapSpell, cl)
}

func TestPropertyEnumStringParse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := Priority(rapid.IntRange(int(Important), int(Progress)).Draw(t, "priority"))
		gotP, err := ParsePriority(p.String())
		if err != nil || gotP != p {
			t.Fatalf("priority %v round-tripped to %v, %v", p, gotP, err)
		}

		v := VoiceType(rapid.IntRange(int(Male1), int(ChildFemale)).Draw(t, "voice"))
		gotV, err := ParseVoiceType(v.String())
		if err != nil || gotV != v {
			t.Fatalf("voice %v round-tripped to %v, %v", v, gotV, err)
		}

		pu := Punctuation(rapid.IntRange(int(PunctAll), int(PunctSome)).Draw(t, "punct"))
		gotPu, err := ParsePunctuation(pu.String())
		if err != nil || gotPu != pu {
			t.Fatalf("punctuation %v round-tripped to %v, %v", pu, gotPu, err)
		}
	})
}
