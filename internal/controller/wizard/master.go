package wizard

import (
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/Freeeeeet/booking_bot/internal/settings"
)

var ErrNoServices = errors.New("no services selected")

// MasterStep шаг добавления мастера
type MasterStep int

const (
	MasterStepNone MasterStep = iota
	MasterStepName
	MasterStepSpecialization
	MasterStepServices
	MasterStepConfirm
	MasterStepDone
)

// AdvanceMaster следующий шаг добавления мастера
func AdvanceMaster(s MasterStep) MasterStep {
	if s >= MasterStepDone {
		return MasterStepDone
	}
	return s + 1
}

// MasterDraft черновик нового мастера
type MasterDraft struct {
	Name           string
	Specialization string
	ServiceIDs     []string
}

func (d *MasterDraft) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return ErrLongName
	}
	d.Name = name
	return nil
}

// SetSpecialization сохраняет специализацию. "-" оставляет её пустой.
func (d *MasterDraft) SetSpecialization(spec string) {
	spec = strings.TrimSpace(spec)
	if spec == "-" {
		spec = ""
	}
	d.Specialization = spec
}

// ToggleService добавляет услугу в список или убирает её
func (d *MasterDraft) ToggleService(id string) {
	if i := slices.Index(d.ServiceIDs, id); i >= 0 {
		d.ServiceIDs = slices.Delete(d.ServiceIDs, i, i+1)
		return
	}
	d.ServiceIDs = append(d.ServiceIDs, id)
}

func (d *MasterDraft) HasService(id string) bool {
	return slices.Contains(d.ServiceIDs, id)
}

// Build собирает мастера. ID присваивает хранилище настроек.
func (d *MasterDraft) Build() (settings.Master, error) {
	if d.Name == "" {
		return settings.Master{}, ErrEmptyName
	}
	if len(d.ServiceIDs) == 0 {
		return settings.Master{}, ErrNoServices
	}
	return settings.Master{
		Name:           d.Name,
		Specialization: d.Specialization,
		ServiceIDs:     slices.Clone(d.ServiceIDs),
	}, nil
}
