package speechd

import (
	"fmt"
	"strings"
)

// Mode selects how notifications are delivered.
type Mode int

const (
	// ModeSingle reads on the calling goroutine only. Notifications that arrive
	// while a command waits for its reply are delivered before the command returns.
	ModeSingle Mode = iota
	// ModeThreaded runs a reader goroutine that delivers notifications as they arrive.
	ModeThreaded
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeThreaded:
		return "threaded"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "single":
		return ModeSingle, nil
	case "threaded":
		return ModeThreaded, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// Priority is the message priority class used by the daemon for queue ordering.
type Priority int

const (
	Important Priority = iota
	Message
	Text
	Notification
	Progress
)

var priorityNames = [...]string{"important", "message", "text", "notification", "progress"}

func (p Priority) String() string {
	if p < 0 || int(p) >= len(priorityNames) {
		return fmt.Sprintf("Priority(%d)", int(p))
	}
	return priorityNames[p]
}

// ParsePriority parses a priority name as used on the wire.
func ParsePriority(s string) (Priority, error) {
	for i, n := range priorityNames {
		if strings.EqualFold(s, n) {
			return Priority(i), nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

// VoiceType is a symbolic voice, mapped by the output module to a concrete one.
type VoiceType int

const (
	Male1 VoiceType = iota
	Male2
	Male3
	Female1
	Female2
	Female3
	ChildMale
	ChildFemale
)

var voiceTypeNames = [...]string{"MALE1", "MALE2", "MALE3", "FEMALE1", "FEMALE2", "FEMALE3", "CHILD_MALE", "CHILD_FEMALE"}

func (v VoiceType) String() string {
	if v < 0 || int(v) >= len(voiceTypeNames) {
		return fmt.Sprintf("VoiceType(%d)", int(v))
	}
	return voiceTypeNames[v]
}

// ParseVoiceType parses a voice type name, case-insensitively.
func ParseVoiceType(s string) (VoiceType, error) {
	for i, n := range voiceTypeNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return VoiceType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown voice type %q", s)
}

// Punctuation controls how much punctuation is read.
type Punctuation int

const (
	PunctAll Punctuation = iota
	PunctNone
	PunctSome
)

var punctuationNames = [...]string{"all", "none", "some"}

func (p Punctuation) String() string {
	if p < 0 || int(p) >= len(punctuationNames) {
		return fmt.Sprintf("Punctuation(%d)", int(p))
	}
	return punctuationNames[p]
}

// ParsePunctuation parses a punctuation mode name.
func ParsePunctuation(s string) (Punctuation, error) {
	for i, n := range punctuationNames {
		if strings.EqualFold(s, n) {
			return Punctuation(i), nil
		}
	}
	return 0, fmt.Errorf("unknown punctuation mode %q", s)
}

// CapitalLetters controls how capital letters are signalled.
type CapitalLetters int

const (
	CapNone CapitalLetters = iota
	CapSpell
	CapIcon
)

var capitalLettersNames = [...]string{"none", "spell", "icon"}

func (c CapitalLetters) String() string {
	if c < 0 || int(c) >= len(capitalLettersNames) {
		return fmt.Sprintf("CapitalLetters(%d)", int(c))
	}
	return capitalLettersNames[c]
}

// ParseCapitalLetters parses a capital letter recognition mode name.
func ParseCapitalLetters(s string) (CapitalLetters, error) {
	for i, n := range capitalLettersNames {
		if strings.EqualFold(s, n) {
			return CapitalLetters(i), nil
		}
	}
	return 0, fmt.Errorf("unknown capital letters mode %q", s)
}

// DataMode tells the daemon whether submitted text is plain text or SSML markup.
type DataMode int

const (
	DataText DataMode = iota
	DataSSML
)

func (d DataMode) String() string {
	if d == DataSSML {
		return "ssml"
	}
	return "text"
}

// NotificationKind selects a notification category for SetNotification*.
type NotificationKind int

const (
	NotifyBegin NotificationKind = iota
	NotifyEnd
	NotifyIndexMarks
	NotifyCancel
	NotifyPause
	NotifyResume
	NotifyAll
)

var notificationNames = [...]string{"begin", "end", "index_marks", "cancel", "pause", "resume", "all"}

func (n NotificationKind) String() string {
	if n < 0 || int(n) >= len(notificationNames) {
		return fmt.Sprintf("NotificationKind(%d)", int(n))
	}
	return notificationNames[n]
}

// EventKind identifies the event carried by a notification.
type EventKind int

const (
	EventBegin EventKind = iota
	EventEnd
	EventCancel
	EventPause
	EventResume
	EventIndexMark
)

var eventKindNames = [...]string{"begin", "end", "cancel", "pause", "resume", "index_mark"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventKindNames[k]
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
