package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Freeeeeet/booking_bot/internal/schedule"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	ErrInvalid        = errors.New("invalid settings")
	ErrMasterNotFound = errors.New("master not found")
)

// Store держит актуальный снимок настроек и сохраняет изменения админ-бота.
// Снимок, полученный через Get, не меняется: правки создают новый.
type Store struct {
	path     string
	v        *viper.Viper
	validate *validator.Validate
	logger   *zap.Logger

	mu      sync.RWMutex
	current *Settings
	writeMu sync.Mutex
}

// Open читает файл настроек. Если файла нет, создаёт его с настройками по умолчанию.
func Open(path string, logger *zap.Logger) (*Store, error) {
	s := &Store{
		path:     path,
		validate: newValidator(),
		logger:   logger,
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		def := Default()
		if err := s.write(&def); err != nil {
			return nil, fmt.Errorf("write default settings: %w", err)
		}
		logger.Info("Default settings created", zap.String("path", path))
	}

	s.v = viper.New()
	s.v.SetConfigFile(path)
	s.v.SetConfigType("json")

	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get возвращает текущий снимок
func (s *Store) Get() *Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Watch перечитывает файл при изменении на диске.
// Невалидный файл игнорируется, остаётся прежний снимок.
func (s *Store) Watch() {
	s.v.OnConfigChange(func(e fsnotify.Event) {
		if err := s.reload(); err != nil {
			s.logger.Error("Failed to reload settings", zap.String("file", e.Name), zap.Error(err))
			return
		}
		s.logger.Info("Settings reloaded", zap.String("file", e.Name))
	})
	s.v.WatchConfig()
}

// AddMaster добавляет мастера и присваивает ему следующий ID
func (s *Store) AddMaster(m Master) (Master, error) {
	var added Master
	err := s.update(func(next *Settings) error {
		var maxID int64
		for _, existing := range next.Masters {
			maxID = max(maxID, existing.ID)
		}
		m.ID = maxID + 1
		next.Masters = append(next.Masters, m)
		added = m
		return nil
	})
	return added, err
}

// AddClosedDate закрывает дату для мастера или, при masterID == nil, для всего салона
func (s *Store) AddClosedDate(masterID *int64, date, reason string) error {
	date, err := schedule.NormalizeDate(date)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return s.update(func(next *Settings) error {
		list, err := closedList(next, masterID)
		if err != nil {
			return err
		}
		for _, c := range *list {
			if c.Date == date {
				return nil
			}
		}
		*list = append(*list, ClosedDate{Date: date, Reason: reason})
		return nil
	})
}

// RemoveClosedDate открывает ранее закрытую дату
func (s *Store) RemoveClosedDate(masterID *int64, date string) error {
	return s.update(func(next *Settings) error {
		list, err := closedList(next, masterID)
		if err != nil {
			return err
		}
		kept := (*list)[:0]
		for _, c := range *list {
			if c.Date != date {
				kept = append(kept, c)
			}
		}
		*list = kept
		return nil
	})
}

func closedList(next *Settings, masterID *int64) (*[]ClosedDate, error) {
	if masterID == nil {
		return &next.ClosedDates, nil
	}
	for i := range next.Masters {
		if next.Masters[i].ID == *masterID {
			return &next.Masters[i].ClosedDates, nil
		}
	}
	return nil, ErrMasterNotFound
}

// update применяет правку к копии снимка, валидирует и сохраняет на диск
func (s *Store) update(fn func(next *Settings) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.Get().clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := s.check(&next); err != nil {
		return err
	}
	if err := s.write(&next); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	s.mu.Lock()
	s.current = &next
	s.mu.Unlock()
	return nil
}

func (s *Store) reload() error {
	if err := s.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	var next Settings
	if err := s.v.Unmarshal(&next); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	if err := s.check(&next); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = &next
	s.mu.Unlock()
	return nil
}

func (s *Store) check(next *Settings) error {
	if err := s.validate.Struct(next); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := next.check(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// write атомарно заменяет файл: пишем во временный и переименовываем
func (s *Store) write(next *Settings) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	return os.Rename(tmp.Name(), s.path)
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}
