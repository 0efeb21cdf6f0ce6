package taskreg

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"scriptdeck/internal/scriptdeck/schedule"
)

// taskNamespace is the Task Scheduler task-definition schema namespace
const taskNamespace = "http://schemas.microsoft.com/windows/2004/02/mit/task"

const boundaryLayout = "2006-01-02T15:04:05"

// taskDocument is the native task-definition document passed to the
// scheduler's registration tool.
type taskDocument struct {
	XMLName          xml.Name         `xml:"Task"`
	Version          string           `xml:"version,attr"`
	Xmlns            string           `xml:"xmlns,attr"`
	RegistrationInfo registrationInfo `xml:"RegistrationInfo"`
	Triggers         triggerSet       `xml:"Triggers"`
	Principals       principals       `xml:"Principals"`
	Settings         taskSettings     `xml:"Settings"`
	Actions          actions          `xml:"Actions"`
}

type registrationInfo struct {
	Description string `xml:"Description"`
	Author      string `xml:"Author"`
}

// triggerSet groups the trigger blocks. The scheduler fires the task on the
// union of all of them.
type triggerSet struct {
	TimeTriggers     []timeTrigger     `xml:"TimeTrigger"`
	CalendarTriggers []calendarTrigger `xml:"CalendarTrigger"`
}

type timeTrigger struct {
	Repetition    *repetition `xml:"Repetition"`
	StartBoundary string      `xml:"StartBoundary"`
	Enabled       bool        `xml:"Enabled"`
}

type repetition struct {
	Interval          string `xml:"Interval"`
	StopAtDurationEnd bool   `xml:"StopAtDurationEnd"`
}

type calendarTrigger struct {
	StartBoundary  string          `xml:"StartBoundary"`
	Enabled        bool            `xml:"Enabled"`
	ScheduleByDay  *scheduleByDay  `xml:"ScheduleByDay"`
	ScheduleByWeek *scheduleByWeek `xml:"ScheduleByWeek"`
}

type scheduleByDay struct {
	DaysInterval int `xml:"DaysInterval"`
}

type scheduleByWeek struct {
	DaysOfWeek    daysOfWeek `xml:"DaysOfWeek"`
	WeeksInterval int        `xml:"WeeksInterval"`
}

type empty struct{}

type daysOfWeek struct {
	Monday    *empty `xml:"Monday"`
	Tuesday   *empty `xml:"Tuesday"`
	Wednesday *empty `xml:"Wednesday"`
	Thursday  *empty `xml:"Thursday"`
	Friday    *empty `xml:"Friday"`
	Saturday  *empty `xml:"Saturday"`
	Sunday    *empty `xml:"Sunday"`
}

type principals struct {
	Principal principal `xml:"Principal"`
}

type principal struct {
	ID        string `xml:"id,attr"`
	LogonType string `xml:"LogonType"`
	RunLevel  string `xml:"RunLevel"`
}

type taskSettings struct {
	MultipleInstancesPolicy    string       `xml:"MultipleInstancesPolicy"`
	DisallowStartIfOnBatteries bool         `xml:"DisallowStartIfOnBatteries"`
	StopIfGoingOnBatteries     bool         `xml:"StopIfGoingOnBatteries"`
	AllowHardTerminate         bool         `xml:"AllowHardTerminate"`
	StartWhenAvailable         bool         `xml:"StartWhenAvailable"`
	RunOnlyIfNetworkAvailable  bool         `xml:"RunOnlyIfNetworkAvailable"`
	IdleSettings               idleSettings `xml:"IdleSettings"`
	AllowStartOnDemand         bool         `xml:"AllowStartOnDemand"`
	Enabled                    bool         `xml:"Enabled"`
	Hidden                     bool         `xml:"Hidden"`
	RunOnlyIfIdle              bool         `xml:"RunOnlyIfIdle"`
	WakeToRun                  bool         `xml:"WakeToRun"`
	ExecutionTimeLimit         string       `xml:"ExecutionTimeLimit"`
	Priority                   int          `xml:"Priority"`
}

type idleSettings struct {
	StopOnIdleEnd bool `xml:"StopOnIdleEnd"`
	RestartOnIdle bool `xml:"RestartOnIdle"`
}

type actions struct {
	Context string     `xml:"Context,attr"`
	Exec    execAction `xml:"Exec"`
}

type execAction struct {
	Command          string `xml:"Command"`
	Arguments        string `xml:"Arguments"`
	WorkingDirectory string `xml:"WorkingDirectory"`
}

// taskXMLInput collects everything the document needs
type taskXMLInput struct {
	ScriptName  string
	Triggers    []schedule.Trigger
	Interpreter string
	Arguments   string
	WorkingDir  string
	Enabled     bool
	Elevated    bool
	Now         time.Time
}

// buildTaskXML serializes a trigger list into the scheduler's native task
// definition.
func buildTaskXML(in taskXMLInput) ([]byte, error) {
	var set triggerSet
	for _, t := range in.Triggers {
		switch trigger := t.(type) {
		case schedule.Once:
			set.TimeTriggers = append(set.TimeTriggers, timeTrigger{
				StartBoundary: trigger.When.Format(boundaryLayout),
				Enabled:       true,
			})
		case schedule.Daily:
			set.CalendarTriggers = append(set.CalendarTriggers, calendarTrigger{
				StartBoundary: dayBoundary(in.Now, trigger.At),
				Enabled:       true,
				ScheduleByDay: &scheduleByDay{DaysInterval: trigger.EveryDays},
			})
		case schedule.Weekly:
			week := &scheduleByWeek{WeeksInterval: 1}
			for _, day := range trigger.NormalizedDays() {
				week.DaysOfWeek.mark(day)
			}
			set.CalendarTriggers = append(set.CalendarTriggers, calendarTrigger{
				StartBoundary:  dayBoundary(in.Now, trigger.At),
				Enabled:        true,
				ScheduleByWeek: week,
			})
		case schedule.Interval:
			set.TimeTriggers = append(set.TimeTriggers, timeTrigger{
				Repetition: &repetition{
					Interval:          isoDuration(trigger),
					StopAtDurationEnd: false,
				},
				StartBoundary: in.Now.Format(boundaryLayout),
				Enabled:       true,
			})
		default:
			return nil, fmt.Errorf("unknown trigger variant %T", t)
		}
	}

	runLevel := "LeastPrivilege"
	if in.Elevated {
		runLevel = "HighestAvailable"
	}

	doc := taskDocument{
		Version: "1.2",
		Xmlns:   taskNamespace,
		RegistrationInfo: registrationInfo{
			Description: "Esecuzione automatica di " + in.ScriptName,
			Author:      "scriptdeck",
		},
		Triggers: set,
		Principals: principals{
			Principal: principal{ID: "Author", LogonType: "InteractiveToken", RunLevel: runLevel},
		},
		Settings: taskSettings{
			MultipleInstancesPolicy: "IgnoreNew",
			AllowHardTerminate:      true,
			StartWhenAvailable:      true,
			AllowStartOnDemand:      true,
			Enabled:                 in.Enabled,
			ExecutionTimeLimit:      "PT2H",
			Priority:                7,
		},
		Actions: actions{
			Context: "Author",
			Exec: execAction{
				Command:          in.Interpreter,
				Arguments:        in.Arguments,
				WorkingDirectory: in.WorkingDir,
			},
		},
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode task definition: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// dayBoundary anchors a recurring trigger at today's date with the given
// time of day.
func dayBoundary(now time.Time, timeOfDay string) string {
	return now.Format("2006-01-02") + "T" + timeOfDay + ":00"
}

// isoDuration renders the interval spacing as an ISO 8601 duration
func isoDuration(t schedule.Interval) string {
	switch t.Unit {
	case "minutes":
		return fmt.Sprintf("PT%dM", t.Every)
	case "hours":
		return fmt.Sprintf("PT%dH", t.Every)
	default:
		return fmt.Sprintf("P%dD", t.Every)
	}
}

func (d *daysOfWeek) mark(day string) {
	switch strings.ToLower(day) {
	case "mon":
		d.Monday = &empty{}
	case "tue":
		d.Tuesday = &empty{}
	case "wed":
		d.Wednesday = &empty{}
	case "thu":
		d.Thursday = &empty{}
	case "fri":
		d.Friday = &empty{}
	case "sat":
		d.Saturday = &empty{}
	case "sun":
		d.Sunday = &empty{}
	}
}
