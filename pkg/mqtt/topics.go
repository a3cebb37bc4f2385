package mqtt

import (
	"fmt"
	"strings"
)

// Topic constants for the time-of-day agent
const (
	// Context topics (output, retained)
	TopicContextBase     = "automation/context/timeofday"
	TopicContextSky      = "automation/context/timeofday/sky"
	TopicContextDayNight = "automation/context/timeofday/daynight"
	TopicContextBlend    = "automation/context/timeofday/blend"

	// Event topics (output)
	TopicEventBase  = "automation/event/timeofday"
	TopicEventDay   = "automation/event/timeofday/day"
	TopicEventNight = "automation/event/timeofday/night"

	// Command topics (input)
	TopicCommandAll     = "automation/command/timeofday/+"
	TopicCommandPreset  = "automation/command/timeofday/preset"
	TopicCommandTime    = "automation/command/timeofday/time"
	TopicCommandRefresh = "automation/command/timeofday/refresh"

	// Status topics (output, retained, last will)
	TopicStatusBase = "automation/status/timeofday"
	StatusOnline    = "online"
	StatusOffline   = "offline"
)

// StatusTopic constructs the liveness topic of a service
// Pattern: automation/status/timeofday/{service}
func StatusTopic(service string) string {
	return fmt.Sprintf("%s/%s", TopicStatusBase, service)
}

// DayNightEventTopic constructs the event topic for a phase
// Pattern: automation/event/timeofday/{phase}
func DayNightEventTopic(phase string) string {
	return fmt.Sprintf("%s/%s", TopicEventBase, phase)
}

// CommandName extracts the last topic segment of a command topic
// automation/command/timeofday/{name} -> name
func CommandName(topic string) string {
	idx := strings.LastIndex(topic, "/")
	if idx < 0 {
		return topic
	}
	return topic[idx+1:]
}
