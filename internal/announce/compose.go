package announce

import (
	"context"
	"strings"

	"github.com/roomcast/roomcast-core/internal/directory"
	"github.com/roomcast/roomcast-core/internal/host"
	"github.com/roomcast/roomcast-core/internal/infrastructure/config"
)

// SelectSettings picks the voice settings and addressee name for a
// delivery. Implemented once; every call site goes through here.
//
// Priority: a single explicit target speaks for itself; multiple
// explicit targets or 2+ occupants use the group settings; a sole
// occupant speaks for themselves; group settings are the fallback.
func SelectSettings(targets, occupants []directory.Person, group *directory.GroupSettings) (directory.VoiceSettings, string) {
	groupVoice := directory.VoiceSettings{}
	addressee := ""
	if group != nil {
		groupVoice = group.Voice
		addressee = group.Addressee
	}

	switch {
	case len(targets) == 1:
		return targets[0].Voice, targets[0].Name
	case len(targets) >= 2:
		return groupVoice, addressee
	case len(occupants) >= 2:
		return groupVoice, addressee
	case len(occupants) == 1:
		return occupants[0].Voice, occupants[0].Name
	default:
		return groupVoice, addressee
	}
}

// Personalize substitutes name tokens in the message, or prefixes the
// name when the message carries no token. An empty name leaves the
// message untouched.
func Personalize(message, name string) string {
	if name == "" {
		return message
	}
	if strings.Contains(message, "{{ name }}") || strings.Contains(message, "{{name}}") {
		message = strings.ReplaceAll(message, "{{ name }}", name)
		return strings.ReplaceAll(message, "{{name}}", name)
	}
	return name + ", " + message
}

// Composer produces the final spoken text for a room: settings
// selection, personalisation, and the optional AI pass.
type Composer struct {
	caller host.CapabilityCaller
	cfg    config.AnnounceConfig
	logger Logger
}

// NewComposer creates a composer. Pass nil for logger to disable
// logging.
func NewComposer(caller host.CapabilityCaller, cfg config.AnnounceConfig, logger Logger) *Composer {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Composer{caller: caller, cfg: cfg, logger: logger}
}

// Compose personalises the message for the room and optionally runs it
// through the conversation agent.
//
// The enhance and translate pointers are per-request overrides; nil
// falls back to the selected settings. AI failures never propagate:
// the personalised pre-AI text is spoken instead.
func (c *Composer) Compose(ctx context.Context, message string, targets, occupants []directory.Person, group *directory.GroupSettings, enhance, translate *bool) (string, directory.VoiceSettings) {
	settings, addressee := SelectSettings(targets, occupants, group)
	text := Personalize(message, addressee)

	doEnhance := overrideFlag(enhance, settings.Enhance)
	doTranslate := overrideFlag(translate, settings.Translate)
	if doTranslate && settings.Language == "" {
		c.logger.Debug("translate requested without a language, skipping")
		doTranslate = false
	}
	if !doEnhance && !doTranslate {
		return text, settings
	}

	agent := settings.AIAgent
	if agent == "" {
		agent = c.cfg.DefaultAIAgent
	}
	if agent == "" {
		c.logger.Debug("no conversation agent configured, skipping ai pass")
		return text, settings
	}

	prompt := c.buildPrompt(text, settings.Language, doEnhance, doTranslate)

	callCtx, cancel := withTimeout(ctx, c.cfg.AITimeout())
	defer cancel()

	result, err := c.caller.Call(callCtx, "conversation", "process", map[string]any{
		"agent_id": agent,
		"text":     prompt,
	}, true)
	if err != nil {
		c.logger.Warn("ai pass failed, using original text", "agent", agent, "error", err)
		return text, settings
	}

	speech, ok := speechFromResponse(result)
	if !ok || strings.TrimSpace(speech) == "" {
		c.logger.Warn("ai response carried no speech, using original text", "agent", agent)
		return text, settings
	}

	c.logger.Debug("ai pass rewrote announcement", "from", text, "to", speech)
	return speech, settings
}

// buildPrompt fills exactly one of the three prompt templates.
func (c *Composer) buildPrompt(text, language string, enhance, translate bool) string {
	var template string
	switch {
	case enhance && translate:
		template = c.cfg.Prompts.Both
	case translate:
		template = c.cfg.Prompts.Translate
	default:
		template = c.cfg.Prompts.Enhance
	}

	prompt := strings.ReplaceAll(template, "{language}", language)
	return strings.ReplaceAll(prompt, "{message}", text)
}

// speechFromResponse digs the spoken text out of a conversation
// response: response.speech.plain.speech.
func speechFromResponse(result map[string]any) (string, bool) {
	resp, ok := result["response"].(map[string]any)
	if !ok {
		return "", false
	}
	speech, ok := resp["speech"].(map[string]any)
	if !ok {
		return "", false
	}
	plain, ok := speech["plain"].(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := plain["speech"].(string)
	return s, ok
}

// overrideFlag applies an optional per-request override to a
// configured default.
func overrideFlag(override *bool, def bool) bool {
	if override != nil {
		return *override
	}
	return def
}
