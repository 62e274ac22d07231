package timeclock

import (
	"testing"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func officeHours() *attendance.ScheduleWindow {
	return &attendance.ScheduleWindow{
		ShiftStart:         attendance.TimeOfDay{Hour: 8},
		ShiftEnd:           attendance.TimeOfDay{Hour: 17},
		GracePeriodMinutes: 30,
	}
}

func TestClassifyAdherence(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name     string
		input    func() AdherenceInput
		expected attendance.AdherenceStatus
	}{
		{
			name: "manually absent wins over everything",
			input: func() AdherenceInput {
				return AdherenceInput{
					Metrics:        attendance.LiveMetrics{IsActive: true},
					Schedule:       officeHours(),
					Now:            at(t, "2024-05-09 09:00"),
					ManuallyAbsent: true,
				}
			},
			expected: attendance.AdherenceAbsent,
		},
		{
			name: "no schedule is not applicable",
			input: func() AdherenceInput {
				return AdherenceInput{Now: at(t, "2024-05-09 13:00")}
			},
			expected: attendance.AdherenceNone,
		},
		{
			name: "active counts as on time even when late",
			input: func() AdherenceInput {
				return AdherenceInput{
					Metrics:      attendance.LiveMetrics{IsActive: true},
					Schedule:     officeHours(),
					TodaysEvents: []attendance.PunchEvent{punch(t, "emp-1", attendance.EventSignIn, "2024-05-09 10:30")},
					Now:          at(t, "2024-05-09 11:00"),
				}
			},
			expected: attendance.AdherenceOnTime,
		},
		{
			name: "on break counts as on time",
			input: func() AdherenceInput {
				return AdherenceInput{
					Metrics:  attendance.LiveMetrics{IsOnBreak: true},
					Schedule: officeHours(),
					Now:      at(t, "2024-05-09 12:15"),
				}
			},
			expected: attendance.AdherenceOnTime,
		},
		{
			name: "signed in and out today",
			input: func() AdherenceInput {
				return AdherenceInput{
					Schedule: officeHours(),
					TodaysEvents: []attendance.PunchEvent{
						punch(t, "emp-1", attendance.EventSignIn, "2024-05-09 07:00"),
						punch(t, "emp-1", attendance.EventSignOut, "2024-05-09 09:00"),
					},
					Now: at(t, "2024-05-09 15:00"),
				}
			},
			expected: attendance.AdherenceOnTime,
		},
		{
			name: "before shift start",
			input: func() AdherenceInput {
				return AdherenceInput{Schedule: officeHours(), Now: at(t, "2024-05-09 07:30")}
			},
			expected: attendance.AdherencePending,
		},
		{
			name: "inside grace period",
			input: func() AdherenceInput {
				return AdherenceInput{Schedule: officeHours(), Now: at(t, "2024-05-09 08:29")}
			},
			expected: attendance.AdherencePending,
		},
		{
			name: "grace period over",
			input: func() AdherenceInput {
				return AdherenceInput{Schedule: officeHours(), Now: at(t, "2024-05-09 08:30")}
			},
			expected: attendance.AdherenceLate,
		},
		{
			name: "just before absence threshold",
			input: func() AdherenceInput {
				return AdherenceInput{Schedule: officeHours(), Now: at(t, "2024-05-09 11:59")}
			},
			expected: attendance.AdherenceLate,
		},
		{
			name: "absence threshold reached",
			input: func() AdherenceInput {
				return AdherenceInput{Schedule: officeHours(), Now: at(t, "2024-05-09 12:00")}
			},
			expected: attendance.AdherenceAbsent,
		},
		{
			name: "negative grace falls back to default",
			input: func() AdherenceInput {
				w := officeHours()
				w.GracePeriodMinutes = -1
				return AdherenceInput{Schedule: w, Now: at(t, "2024-05-09 08:20")}
			},
			expected: attendance.AdherencePending,
		},
		{
			name: "zero grace means late right after start",
			input: func() AdherenceInput {
				w := officeHours()
				w.GracePeriodMinutes = 0
				return AdherenceInput{Schedule: w, Now: at(t, "2024-05-09 08:01")}
			},
			expected: attendance.AdherenceLate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input()
			in.Timezone = testTZ
			status, err := e.ClassifyAdherence(in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestClassifyAdherence_InvalidTimezone(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ClassifyAdherence(AdherenceInput{Timezone: "Nowhere/Land", Now: at(t, "2024-05-09 09:00")})
	assert.ErrorIs(t, err, attendance.ErrInvalidTimezone)
}

func TestIsEligibleForAbsentMarking(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name     string
		status   attendance.AdherenceStatus
		now      string
		expected bool
	}{
		{"late before noon", attendance.AdherenceLate, "2024-05-09 11:59", false},
		{"late at noon", attendance.AdherenceLate, "2024-05-09 12:00", true},
		{"late in the evening", attendance.AdherenceLate, "2024-05-09 19:00", true},
		{"absent is not eligible", attendance.AdherenceAbsent, "2024-05-09 13:00", false},
		{"pending is not eligible", attendance.AdherencePending, "2024-05-09 13:00", false},
		{"not applicable", attendance.AdherenceNone, "2024-05-09 13:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := e.IsEligibleForAbsentMarking(tt.status, at(t, tt.now), testTZ)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}

func TestIsEligibleForAbsentMarking_UsesLocalClock(t *testing.T) {
	e := newTestEngine(t)
	// 05:30 UTC is 12:30 in Jakarta.
	now := at(t, "2024-05-09 12:30").UTC()

	ok, err := e.IsEligibleForAbsentMarking(attendance.AdherenceLate, now, testTZ)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.IsEligibleForAbsentMarking(attendance.AdherenceLate, now, "UTC")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClassifyArrival(t *testing.T) {
	e := newTestEngine(t)
	night := attendance.ScheduleWindow{
		ShiftStart:         attendance.TimeOfDay{Hour: 22},
		ShiftEnd:           attendance.TimeOfDay{Hour: 6},
		GracePeriodMinutes: 15,
	}

	tests := []struct {
		name       string
		signIn     string
		window     attendance.ScheduleWindow
		wantStatus attendance.AdherenceStatus
		wantLate   int
		wantEarly  int
	}{
		{"well before start", "2024-05-09 07:30", *officeHours(), attendance.AdherenceEarly, 0, 30},
		{"within early threshold", "2024-05-09 07:50", *officeHours(), attendance.AdherenceOnTime, 0, 0},
		{"within grace", "2024-05-09 08:30", *officeHours(), attendance.AdherenceOnTime, 0, 0},
		{"after grace", "2024-05-09 08:45", *officeHours(), attendance.AdherenceLate, 45, 0},
		{"night shift on time", "2024-05-09 22:05", night, attendance.AdherenceOnTime, 0, 0},
		{"night shift after midnight", "2024-05-10 00:30", night, attendance.AdherenceLate, 150, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ClassifyArrival(at(t, tt.signIn), tt.window, testTZ)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantLate, got.LateMinutes)
			assert.Equal(t, tt.wantEarly, got.EarlyMinutes)
		})
	}
}
