package speechd

import "strings"

// SynthesisVoice describes a voice offered by the current output module.
type SynthesisVoice struct {
	Name     string
	Language string
	Variant  string
}

func (c *Connection) list(what string) ([]string, error) {
	r, err := c.command("LIST " + what)
	if err != nil {
		return nil, err
	}
	return r.Data(), nil
}

// ListOutputModules returns the names of the available output modules.
func (c *Connection) ListOutputModules() ([]string, error) {
	return c.list("OUTPUT_MODULES")
}

// ListVoices returns the symbolic voice names the daemon understands.
func (c *Connection) ListVoices() ([]string, error) {
	return c.list("VOICES")
}

// ListSynthesisVoices returns the voices of the selected output module.
func (c *Connection) ListSynthesisVoices() ([]SynthesisVoice, error) {
	lines, err := c.list("SYNTHESIS_VOICES")
	if err != nil {
		return nil, err
	}
	voices := make([]SynthesisVoice, 0, len(lines))
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		v := SynthesisVoice{Name: strings.TrimSpace(fields[0])}
		if len(fields) > 1 {
			v.Language = strings.TrimSpace(fields[1])
		}
		if len(fields) > 2 {
			v.Variant = strings.TrimSpace(fields[2])
		}
		voices = append(voices, v)
	}
	return voices, nil
}
