package types

import (
	"testing"
	"time"
)

func TestSessionDecisionValid(t *testing.T) {
	for _, d := range []SessionDecision{SessionDecisionComplete, SessionDecisionContinue, SessionDecisionStop} {
		if !d.Valid() {
			t.Fatalf("%s should be valid", d)
		}
	}
	if SessionDecision("done").Valid() {
		t.Fatalf("unknown decision accepted")
	}
	if SessionDecision("").Valid() {
		t.Fatalf("empty decision accepted")
	}
}

func TestWorkSessionStates(t *testing.T) {
	now := time.Now()
	session := &WorkSession{ID: "ws-1", StartedAt: now}
	if !session.Active() || session.Paused() {
		t.Fatalf("open session should be active and unpaused")
	}

	session.PausedAt = &now
	if !session.Paused() || !session.Active() {
		t.Fatalf("paused session is still active until checkout")
	}

	session.EndedAt = &now
	if session.Active() {
		t.Fatalf("ended session should not be active")
	}
}

func TestSnoozeExhausted(t *testing.T) {
	session := &WorkSession{SnoozeCount: SnoozeLimit - 1}
	if session.SnoozeExhausted() {
		t.Fatalf("below the cap should not be exhausted")
	}
	session.SnoozeCount = SnoozeLimit
	if !session.SnoozeExhausted() {
		t.Fatalf("at the cap should be exhausted")
	}
}

func TestNotificationAutoDismiss(t *testing.T) {
	light := &NotificationMessage{ID: "n-1", Level: ReminderLevelLight}
	if !light.AutoDismiss() {
		t.Fatalf("light reminders auto-dismiss")
	}
	for _, level := range []ReminderLevel{ReminderLevelNormal, ReminderLevelUrgent} {
		msg := &NotificationMessage{ID: "n-2", Level: level}
		if msg.AutoDismiss() {
			t.Fatalf("%s reminders need explicit dismissal", level)
		}
	}
}

func TestScheduleEntryTimes(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	entry := ScheduleEntry{Start: "09:30", End: "11:00"}

	start, ok := entry.StartTime(day)
	if !ok || start.Hour() != 9 || start.Minute() != 30 {
		t.Fatalf("start = %v ok=%v", start, ok)
	}
	end, ok := entry.EndTime(day)
	if !ok || end.Hour() != 11 {
		t.Fatalf("end = %v ok=%v", end, ok)
	}

	if _, ok := (ScheduleEntry{Start: "soon"}).StartTime(day); ok {
		t.Fatalf("unparseable start reported ok")
	}
}

func TestRescheduleDecided(t *testing.T) {
	var nilSuggestion *RescheduleSuggestion
	if nilSuggestion.Decided() {
		t.Fatalf("nil suggestion cannot be decided")
	}
	pending := &RescheduleSuggestion{ID: "rs-1", Status: ReschedulePending}
	if pending.Decided() {
		t.Fatalf("pending is not decided")
	}
	accepted := &RescheduleSuggestion{ID: "rs-1", Status: RescheduleAccepted}
	if !accepted.Decided() {
		t.Fatalf("accepted is decided")
	}
}
