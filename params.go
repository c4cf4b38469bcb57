package speechd

import (
	"fmt"
	"strconv"
	"strings"
)

func (c *Connection) set(s scope, param, value string) error {
	if err := checkArg(strings.ToLower(param), value); err != nil {
		return err
	}
	_, err := c.command(fmt.Sprintf("SET %s %s %s", s, param, value))
	return err
}

func (c *Connection) setLevel(s scope, param string, v int) error {
	if v < -100 || v > 100 {
		return fmt.Errorf("%s %d: %w", strings.ToLower(param), v, ErrOutOfRange)
	}
	return c.set(s, param, strconv.Itoa(v))
}

// SetVoiceType selects a symbolic voice for this connection.
func (c *Connection) SetVoiceType(v VoiceType) error { return c.set(scopeSelf, "VOICE_TYPE", v.String()) }

// SetVoiceTypeAll selects a symbolic voice for every client.
func (c *Connection) SetVoiceTypeAll(v VoiceType) error {
	return c.set(scopeAll, "VOICE_TYPE", v.String())
}

// SetVoiceTypeUID selects a symbolic voice for client uid.
func (c *Connection) SetVoiceTypeUID(v VoiceType, uid uint64) error {
	return c.set(uidScope(uid), "VOICE_TYPE", v.String())
}

// SetSynthesisVoice selects a voice of the current output module by name.
// This can override the language setting. Use ListSynthesisVoices to get valid names.
func (c *Connection) SetSynthesisVoice(name string) error {
	return c.set(scopeSelf, "SYNTHESIS_VOICE", name)
}

// SetSynthesisVoiceAll selects a synthesis voice for every client.
func (c *Connection) SetSynthesisVoiceAll(name string) error {
	return c.set(scopeAll, "SYNTHESIS_VOICE", name)
}

// SetSynthesisVoiceUID selects a synthesis voice for client uid.
func (c *Connection) SetSynthesisVoiceUID(name string, uid uint64) error {
	return c.set(uidScope(uid), "SYNTHESIS_VOICE", name)
}

// SetVoiceRate sets the speech rate, within [-100, 100].
func (c *Connection) SetVoiceRate(rate int) error { return c.setLevel(scopeSelf, "RATE", rate) }

// SetVoiceRateAll sets the speech rate for every client.
func (c *Connection) SetVoiceRateAll(rate int) error { return c.setLevel(scopeAll, "RATE", rate) }

// SetVoiceRateUID sets the speech rate for client uid.
func (c *Connection) SetVoiceRateUID(rate int, uid uint64) error {
	return c.setLevel(uidScope(uid), "RATE", rate)
}

// SetVoicePitch sets the voice pitch, within [-100, 100].
func (c *Connection) SetVoicePitch(pitch int) error { return c.setLevel(scopeSelf, "PITCH", pitch) }

// SetVoicePitchAll sets the voice pitch for every client.
func (c *Connection) SetVoicePitchAll(pitch int) error { return c.setLevel(scopeAll, "PITCH", pitch) }

// SetVoicePitchUID sets the voice pitch for client uid.
func (c *Connection) SetVoicePitchUID(pitch int, uid uint64) error {
	return c.setLevel(uidScope(uid), "PITCH", pitch)
}

// SetVolume sets the speech volume, within [-100, 100].
func (c *Connection) SetVolume(volume int) error { return c.setLevel(scopeSelf, "VOLUME", volume) }

// SetVolumeAll sets the speech volume for every client.
func (c *Connection) SetVolumeAll(volume int) error { return c.setLevel(scopeAll, "VOLUME", volume) }

// SetVolumeUID sets the speech volume for client uid.
func (c *Connection) SetVolumeUID(volume int, uid uint64) error {
	return c.setLevel(uidScope(uid), "VOLUME", volume)
}

// SetPunctuation sets how much punctuation is read.
func (c *Connection) SetPunctuation(p Punctuation) error {
	return c.set(scopeSelf, "PUNCTUATION", p.String())
}

// SetPunctuationAll sets the punctuation mode for every client.
func (c *Connection) SetPunctuationAll(p Punctuation) error {
	return c.set(scopeAll, "PUNCTUATION", p.String())
}

// SetPunctuationUID sets the punctuation mode for client uid.
func (c *Connection) SetPunctuationUID(p Punctuation, uid uint64) error {
	return c.set(uidScope(uid), "PUNCTUATION", p.String())
}

// SetCapitalLetters sets how capital letters are signalled.
func (c *Connection) SetCapitalLetters(m CapitalLetters) error {
	return c.set(scopeSelf, "CAP_LET_RECOGN", m.String())
}

// SetCapitalLettersAll sets capital letter recognition for every client.
func (c *Connection) SetCapitalLettersAll(m CapitalLetters) error {
	return c.set(scopeAll, "CAP_LET_RECOGN", m.String())
}

// SetCapitalLettersUID sets capital letter recognition for client uid.
func (c *Connection) SetCapitalLettersUID(m CapitalLetters, uid uint64) error {
	return c.set(uidScope(uid), "CAP_LET_RECOGN", m.String())
}

// SetSpelling switches spelling mode.
func (c *Connection) SetSpelling(v bool) error { return c.set(scopeSelf, "SPELLING", onOff(v)) }

// SetSpellingAll switches spelling mode for every client.
func (c *Connection) SetSpellingAll(v bool) error { return c.set(scopeAll, "SPELLING", onOff(v)) }

// SetSpellingUID switches spelling mode for client uid.
func (c *Connection) SetSpellingUID(v bool, uid uint64) error {
	return c.set(uidScope(uid), "SPELLING", onOff(v))
}

// SetLanguage sets the language as an ISO 639 code. This can change the selected voice.
func (c *Connection) SetLanguage(lang string) error { return c.set(scopeSelf, "LANGUAGE", lang) }

// SetLanguageAll sets the language for every client.
func (c *Connection) SetLanguageAll(lang string) error { return c.set(scopeAll, "LANGUAGE", lang) }

// SetLanguageUID sets the language for client uid.
func (c *Connection) SetLanguageUID(lang string, uid uint64) error {
	return c.set(uidScope(uid), "LANGUAGE", lang)
}

// SetOutputModule selects the output module. Use ListOutputModules to get valid names.
func (c *Connection) SetOutputModule(name string) error {
	return c.set(scopeSelf, "OUTPUT_MODULE", name)
}

// SetOutputModuleAll selects the output module for every client.
func (c *Connection) SetOutputModuleAll(name string) error {
	return c.set(scopeAll, "OUTPUT_MODULE", name)
}

// SetOutputModuleUID selects the output module for client uid.
func (c *Connection) SetOutputModuleUID(name string, uid uint64) error {
	return c.set(uidScope(uid), "OUTPUT_MODULE", name)
}

// SetDataMode tells the daemon whether text passed to Say is plain text or SSML.
func (c *Connection) SetDataMode(m DataMode) error {
	return c.set(scopeSelf, "SSML_MODE", onOff(m == DataSSML))
}

// SetNotification sets the state ("on" or "off") of a notification category.
func (c *Connection) SetNotification(n NotificationKind, state string) error {
	return c.set(scopeSelf, "NOTIFICATION", n.String()+" "+state)
}

// SetNotificationOn enables a notification category.
func (c *Connection) SetNotificationOn(n NotificationKind) error { return c.SetNotification(n, "on") }

// SetNotificationOff disables a notification category.
func (c *Connection) SetNotificationOff(n NotificationKind) error { return c.SetNotification(n, "off") }

// get returns the first data line of a GET reply. Values are never cached.
func (c *Connection) get(param string) (string, error) {
	r, err := c.command("GET " + param)
	if err != nil {
		return "", err
	}
	data := r.Data()
	if len(data) == 0 {
		return "", fmt.Errorf("%w: GET %s returned no value", ErrUnexpectedReply, param)
	}
	return strings.TrimSpace(data[0]), nil
}

func (c *Connection) getInt(param string) (int, error) {
	v, err := c.get(param)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: GET %s: %q is not a number", ErrUnexpectedReply, param, v)
	}
	return n, nil
}

// VoiceRate returns the current speech rate.
func (c *Connection) VoiceRate() (int, error) { return c.getInt("RATE") }

// VoicePitch returns the current voice pitch.
func (c *Connection) VoicePitch() (int, error) { return c.getInt("PITCH") }

// Volume returns the current speech volume.
func (c *Connection) Volume() (int, error) { return c.getInt("VOLUME") }

// VoiceType returns the current symbolic voice.
func (c *Connection) VoiceType() (VoiceType, error) {
	v, err := c.get("VOICE_TYPE")
	if err != nil {
		return 0, err
	}
	vt, err := ParseVoiceType(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnexpectedReply, err)
	}
	return vt, nil
}

// Language returns the current language code.
func (c *Connection) Language() (string, error) { return c.get("LANGUAGE") }

// OutputModule returns the name of the current output module.
func (c *Connection) OutputModule() (string, error) { return c.get("OUTPUT_MODULE") }
