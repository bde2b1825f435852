package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ngviethoang/ai-chatbot/lib/sl"
)

const (
	SettingAutoSpeak          = "autoSpeak"
	SettingVoiceName          = "voiceName"
	SettingRecognitionLang    = "recognitionLang"
	SettingRecognitionService = "speechRecognitionService"
	SettingWhisperLang        = "whisperLang"
	SettingAgentsTools        = "agentsTools"
	SettingAgentsActor        = "agentsActor"
)

var settingKeys = []string{
	SettingAutoSpeak,
	SettingVoiceName,
	SettingRecognitionLang,
	SettingRecognitionService,
	SettingWhisperLang,
	SettingAgentsTools,
	SettingAgentsActor,
}

var ErrMalformedSettings = errors.New("malformed settings")

const settingsUsage = "Use /settings --key value to change settings.\n" +
	"Keys: autoSpeak, voiceName, recognitionLang, speechRecognitionService, whisperLang, agentsTools, agentsActor\n\n" +
	"Example:\n/settings --whisperLang vi --autoSpeak true"

// ParseSettings reads "--key value" pairs. Values run until the next
// "--key", so multi-word values are allowed.
func ParseSettings(content string) (map[string]string, error) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return nil, nil
	}
	out := map[string]string{}
	var key string
	var value []string
	flush := func() error {
		if key == "" {
			return nil
		}
		if len(value) == 0 {
			return fmt.Errorf("%w: --%s needs a value", ErrMalformedSettings, key)
		}
		out[key] = normalizeSetting(strings.Join(value, " "))
		key, value = "", nil
		return nil
	}
	for _, f := range fields {
		if name, ok := strings.CutPrefix(f, "--"); ok {
			if err := flush(); err != nil {
				return nil, err
			}
			k, known := canonicalSetting(name)
			if !known {
				return nil, fmt.Errorf("%w: unknown key %q", ErrMalformedSettings, name)
			}
			key = k
			continue
		}
		if key == "" {
			return nil, fmt.Errorf("%w: expected --key before %q", ErrMalformedSettings, f)
		}
		value = append(value, f)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func canonicalSetting(name string) (string, bool) {
	for _, k := range settingKeys {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}

func normalizeSetting(v string) string {
	switch {
	case strings.EqualFold(v, "true"):
		return "true"
	case strings.EqualFold(v, "false"):
		return "false"
	}
	return v
}

// TranscriptionLanguage picks the speech recognition language for a session.
func TranscriptionLanguage(settings map[string]string) string {
	if l := settings[SettingWhisperLang]; l != "" {
		return l
	}
	if l := settings[SettingRecognitionLang]; len(l) >= 2 {
		return strings.ToLower(l[:2])
	}
	return "en"
}

func (t *turn) handleSettings(content string) {
	params, err := ParseSettings(content)
	if err != nil {
		t.log.Debug("bad settings", sl.Err(err))
		t.reply(fmt.Sprintf("Sorry. %s\n\n%s", strings.TrimPrefix(err.Error(), ErrMalformedSettings.Error()+": "), settingsUsage))
		return
	}
	if len(params) == 0 {
		text := settingsUsage
		if len(t.state.Settings) > 0 {
			text += "\n\nCurrent settings:\n" + TruncatedJSON(t.state.Settings)
		}
		t.reply(text)
		return
	}
	for k, v := range params {
		t.state.Settings[k] = v
	}
	t.dirty = true
	t.reply("Settings updated.")
}
