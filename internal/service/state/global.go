package state

import (
	"context"
	"errors"
)

var ErrVoiceUnavailable = errors.New("no tts command configured")

type modelSwitcher interface {
	GetModel() string
	SetModel(ctx context.Context, model string) error
}

type voiceToggle interface {
	Enabled() bool
	SetEnabled(on bool) bool
}

// GlobalState holds the runtime switches shared by every transport.
type GlobalState struct {
	provider modelSwitcher
	voice    voiceToggle
}

func NewGlobalState(provider modelSwitcher, voice voiceToggle) *GlobalState {
	return &GlobalState{
		provider: provider,
		voice:    voice,
	}
}

func (s *GlobalState) Model() string {
	return s.provider.GetModel()
}

func (s *GlobalState) ChangeModel(ctx context.Context, model string) error {
	return s.provider.SetModel(ctx, model)
}

func (s *GlobalState) VoiceEnabled() bool {
	return s.voice != nil && s.voice.Enabled()
}

func (s *GlobalState) SetVoice(on bool) error {
	if s.voice == nil || !s.voice.SetEnabled(on) {
		return ErrVoiceUnavailable
	}
	return nil
}
