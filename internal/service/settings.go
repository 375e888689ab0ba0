package service

import "github.com/Freeeeeet/booking_bot/internal/settings"

// SettingsSource отдаёт актуальный снимок настроек салона
type SettingsSource interface {
	Get() *settings.Settings
}

// StaticSettings неизменяемый источник настроек
type StaticSettings struct {
	S *settings.Settings
}

func (s StaticSettings) Get() *settings.Settings { return s.S }
