package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	speechd "github.com/ilyapashuk/go-speechd/v2"
)

// ErrUnknownParam is returned for parameter names set and get do not know.
var ErrUnknownParam = errors.New("unknown parameter")

// setter applies value with the self, all and uid variants of one Set method.
type setter struct {
	self func(c *speechd.Connection, value string) error
	all  func(c *speechd.Connection, value string) error
	uid  func(c *speechd.Connection, value string, uid uint64) error
}

func intSetter(self func(*speechd.Connection, int) error, all func(*speechd.Connection, int) error,
	uid func(*speechd.Connection, int, uint64) error) setter {
	return setter{
		self: func(c *speechd.Connection, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			return self(c, n)
		},
		all: func(c *speechd.Connection, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			return all(c, n)
		},
		uid: func(c *speechd.Connection, v string, id uint64) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			return uid(c, n, id)
		},
	}
}

func stringSetter(self func(*speechd.Connection, string) error, all func(*speechd.Connection, string) error,
	uid func(*speechd.Connection, string, uint64) error) setter {
	return setter{self: self, all: all, uid: uid}
}

// parsedSetter adapts setters taking an enum or bool parsed from the command line.
func parsedSetter[T any](parse func(string) (T, error), self func(*speechd.Connection, T) error,
	all func(*speechd.Connection, T) error, uid func(*speechd.Connection, T, uint64) error) setter {
	return setter{
		self: func(c *speechd.Connection, v string) error {
			x, err := parse(v)
			if err != nil {
				return err
			}
			return self(c, x)
		},
		all: func(c *speechd.Connection, v string) error {
			x, err := parse(v)
			if err != nil {
				return err
			}
			return all(c, x)
		},
		uid: func(c *speechd.Connection, v string, id uint64) error {
			x, err := parse(v)
			if err != nil {
				return err
			}
			return uid(c, x, id)
		},
	}
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

var setters = map[string]setter{
	"rate": intSetter(
		(*speechd.Connection).SetVoiceRate, (*speechd.Connection).SetVoiceRateAll, (*speechd.Connection).SetVoiceRateUID),
	"pitch": intSetter(
		(*speechd.Connection).SetVoicePitch, (*speechd.Connection).SetVoicePitchAll, (*speechd.Connection).SetVoicePitchUID),
	"volume": intSetter(
		(*speechd.Connection).SetVolume, (*speechd.Connection).SetVolumeAll, (*speechd.Connection).SetVolumeUID),
	"language": stringSetter(
		(*speechd.Connection).SetLanguage, (*speechd.Connection).SetLanguageAll, (*speechd.Connection).SetLanguageUID),
	"output-module": stringSetter(
		(*speechd.Connection).SetOutputModule, (*speechd.Connection).SetOutputModuleAll,
		(*speechd.Connection).SetOutputModuleUID),
	"synthesis-voice": stringSetter(
		(*speechd.Connection).SetSynthesisVoice, (*speechd.Connection).SetSynthesisVoiceAll,
		(*speechd.Connection).SetSynthesisVoiceUID),
	"voice-type": parsedSetter(speechd.ParseVoiceType,
		(*speechd.Connection).SetVoiceType, (*speechd.Connection).SetVoiceTypeAll, (*speechd.Connection).SetVoiceTypeUID),
	"punctuation": parsedSetter(speechd.ParsePunctuation,
		(*speechd.Connection).SetPunctuation, (*speechd.Connection).SetPunctuationAll,
		(*speechd.Connection).SetPunctuationUID),
	"capital-letters": parsedSetter(speechd.ParseCapitalLetters,
		(*speechd.Connection).SetCapitalLetters, (*speechd.Connection).SetCapitalLettersAll,
		(*speechd.Connection).SetCapitalLettersUID),
	"spelling": parsedSetter(parseOnOff,
		(*speechd.Connection).SetSpelling, (*speechd.Connection).SetSpellingAll, (*speechd.Connection).SetSpellingUID),
}

func paramNames[V any](m map[string]V) string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func newSetCmd(a *app) *cobra.Command {
	var scope scopeFlags
	cmd := &cobra.Command{
		Use:   "set <param> <value>",
		Short: "Set a speech parameter",
		Long: `Set a speech parameter for spdctl's connection, for every client (--all)
or for one client (--uid).

Parameters: ` + paramNames(setters) + `.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ok := setters[args[0]]
			if !ok {
				return fmt.Errorf("%w %q", ErrUnknownParam, args[0])
			}
			return a.withConn(func(conn *speechd.Connection) error {
				switch scope.pick(cmd) {
				case "all":
					return s.all(conn, args[1])
				case "uid":
					return s.uid(conn, args[1], scope.uid)
				default:
					return s.self(conn, args[1])
				}
			})
		},
	}
	scope.register(cmd)
	return cmd
}

var getters = map[string]func(*speechd.Connection) (string, error){
	"rate":          intGetter((*speechd.Connection).VoiceRate),
	"pitch":         intGetter((*speechd.Connection).VoicePitch),
	"volume":        intGetter((*speechd.Connection).Volume),
	"language":      (*speechd.Connection).Language,
	"output-module": (*speechd.Connection).OutputModule,
	"voice-type": func(c *speechd.Connection) (string, error) {
		v, err := c.VoiceType()
		return v.String(), err
	},
	"client-id": func(c *speechd.Connection) (string, error) {
		return strconv.FormatUint(c.ClientID(), 10), nil
	},
}

func intGetter(get func(*speechd.Connection) (int, error)) func(*speechd.Connection) (string, error) {
	return func(c *speechd.Connection) (string, error) {
		n, err := get(c)
		return strconv.Itoa(n), err
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <param>",
		Short: "Print a speech parameter",
		Long:  `Print the current value of a parameter. Parameters: ` + paramNames(getters) + `.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			get, ok := getters[args[0]]
			if !ok {
				return fmt.Errorf("%w %q", ErrUnknownParam, args[0])
			}
			return a.withConn(func(conn *speechd.Connection) error {
				v, err := get(conn)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}
}
