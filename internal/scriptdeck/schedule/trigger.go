// Package schedule models the recurrence rules of a scheduled script and
// persists them as one JSON document per script. The trigger set is a closed
// union: an unrecognized type is rejected at deserialization, never ignored.
package schedule

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValidationError reports a trigger or config rejected before persistence
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// onceLayouts are the accepted formats for a one-shot date-time. Anything
// else is a validation error; there is no lenient fallback.
var onceLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"02/01/2006 15:04",
}

// ParseOnceTime parses a one-shot trigger date-time in local time
func ParseOnceTime(s string) (time.Time, error) {
	for _, layout := range onceLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, validationf("unparsable date/time %q (expected 2006-01-02T15:04 or 02/01/2006 15:04)", s)
}

// weekdayOrder is the closed weekday vocabulary, Monday first
var weekdayOrder = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// intervalUnits is the closed unit vocabulary of an interval trigger
var intervalUnits = map[string]bool{"minutes": true, "hours": true, "days": true}

// Trigger is one recurrence rule. The concrete variants are Once, Daily,
// Weekly and Interval; nothing else implements the interface.
type Trigger interface {
	// Kind returns the wire tag of the variant
	Kind() string
	// Validate rejects the trigger before it can reach persistence or the
	// OS scheduler
	Validate() error
}

// Once fires a single time at a local date-time
type Once struct {
	When time.Time `json:"-"`
}

// Kind implements Trigger
func (Once) Kind() string { return "once" }

// Validate implements Trigger
func (t Once) Validate() error {
	if t.When.IsZero() {
		return validationf("once trigger requires a date/time")
	}
	return nil
}

// Daily fires at a time of day every N days
type Daily struct {
	At        string `json:"time"`
	EveryDays int    `json:"every_n_days"`
}

// Kind implements Trigger
func (Daily) Kind() string { return "daily" }

// Validate implements Trigger
func (t Daily) Validate() error {
	if err := validateTimeOfDay(t.At); err != nil {
		return err
	}
	if t.EveryDays < 1 {
		return validationf("daily trigger interval must be >= 1 day, got %d", t.EveryDays)
	}
	return nil
}

// Weekly fires at a time of day on a set of weekdays
type Weekly struct {
	At   string   `json:"time"`
	Days []string `json:"days"`
}

// Kind implements Trigger
func (Weekly) Kind() string { return "weekly" }

// Validate implements Trigger. The empty day set is rejected here, before
// registration is ever attempted.
func (t Weekly) Validate() error {
	if err := validateTimeOfDay(t.At); err != nil {
		return err
	}
	if len(t.Days) == 0 {
		return validationf("weekly trigger requires at least one weekday")
	}
	known := map[string]bool{}
	for _, d := range weekdayOrder {
		known[d] = true
	}
	for _, d := range t.Days {
		if !known[strings.ToLower(d)] {
			return validationf("unknown weekday %q", d)
		}
	}
	return nil
}

// NormalizedDays returns the day set lowercased, deduplicated and in
// Monday-first order
func (t Weekly) NormalizedDays() []string {
	seen := map[string]bool{}
	for _, d := range t.Days {
		seen[strings.ToLower(d)] = true
	}
	var days []string
	for _, d := range weekdayOrder {
		if seen[d] {
			days = append(days, d)
		}
	}
	return days
}

// Interval fires repeatedly at a fixed spacing from registration time
type Interval struct {
	Every int    `json:"every"`
	Unit  string `json:"unit"`
}

// Kind implements Trigger
func (Interval) Kind() string { return "interval" }

// Validate implements Trigger
func (t Interval) Validate() error {
	if t.Every < 1 {
		return validationf("interval trigger spacing must be >= 1, got %d", t.Every)
	}
	if !intervalUnits[t.Unit] {
		return validationf("unknown interval unit %q (expected minutes, hours or days)", t.Unit)
	}
	return nil
}

func validateTimeOfDay(s string) error {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return validationf("invalid time of day %q (expected HH:MM)", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return validationf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return validationf("invalid minute in %q", s)
	}
	return nil
}

// Config is the persisted schedule of one script: a task name and an ordered
// trigger list. It is the single source of truth the wrapper artifact and
// the native task are reconstructable from.
type Config struct {
	TaskName string
	Enabled  bool
	Triggers []Trigger
}

// Validate rejects configs that must never be persisted or registered
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TaskName) == "" {
		return validationf("task name must not be empty")
	}
	if len(c.Triggers) == 0 {
		return validationf("schedule requires at least one trigger; use delete to remove the schedule")
	}
	for i, t := range c.Triggers {
		if err := t.Validate(); err != nil {
			return validationf("trigger %d: %v", i+1, err)
		}
	}
	return nil
}

type triggerEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type configDocument struct {
	TaskName string            `json:"task_name"`
	Enabled  bool              `json:"enabled"`
	Triggers []triggerEnvelope `json:"triggers"`
}

type onceData struct {
	When string `json:"datetime"`
}

// MarshalJSON implements json.Marshaler
func (c Config) MarshalJSON() ([]byte, error) {
	doc := configDocument{TaskName: c.TaskName, Enabled: c.Enabled}
	for _, t := range c.Triggers {
		var payload any = t
		if once, ok := t.(Once); ok {
			payload = onceData{When: once.When.Format(onceLayouts[0])}
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		doc.Triggers = append(doc.Triggers, triggerEnvelope{Type: t.Kind(), Data: data})
	}
	return json.Marshal(doc)
}

// UnmarshalJSON implements json.Unmarshaler. Unknown trigger types are an
// error, not a silently dropped entry.
func (c *Config) UnmarshalJSON(data []byte) error {
	var doc configDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	c.TaskName = doc.TaskName
	c.Enabled = doc.Enabled
	c.Triggers = nil
	for i, env := range doc.Triggers {
		trigger, err := decodeTrigger(env)
		if err != nil {
			return fmt.Errorf("trigger %d: %w", i+1, err)
		}
		c.Triggers = append(c.Triggers, trigger)
	}
	return nil
}

func decodeTrigger(env triggerEnvelope) (Trigger, error) {
	switch env.Type {
	case "once":
		var data onceData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, err
		}
		when, err := ParseOnceTime(data.When)
		if err != nil {
			return nil, err
		}
		return Once{When: when}, nil
	case "daily":
		var t Daily
		if err := json.Unmarshal(env.Data, &t); err != nil {
			return nil, err
		}
		return t, nil
	case "weekly":
		var t Weekly
		if err := json.Unmarshal(env.Data, &t); err != nil {
			return nil, err
		}
		return t, nil
	case "interval":
		var t Interval
		if err := json.Unmarshal(env.Data, &t); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown trigger type %q", env.Type)
	}
}

// SortedWeekdays exposes the closed weekday vocabulary in Monday-first order
func SortedWeekdays() []string {
	return append([]string(nil), weekdayOrder...)
}
