package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/clinic-cover/internal/config"
	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
)

// ExpandClinicSessions turns configured clinic schedules into the sessions that
// fall between start and end (both dates inclusive)
func ExpandClinicSessions(clinics []config.ClinicConfig, start, end time.Time) ([]SessionInput, error) {
	if len(clinics) == 0 {
		return nil, fmt.Errorf("no clinics given: %w", coverage.ErrInvalidRequest)
	}

	from := startOfDay(start)
	to := startOfDay(end)
	if from.After(to) {
		return nil, fmt.Errorf("start date must be before end date: %w", coverage.ErrInvalidRequest)
	}

	var sessions []SessionInput
	for _, clinic := range clinics {
		occurrences, err := clinicOccurrences(clinic, from, to)
		if err != nil {
			return nil, err
		}

		startOffset, err := config.ParseClock(clinic.StartTime)
		if err != nil {
			return nil, fmt.Errorf("clinic %s start time: %w", clinic.Name, err)
		}
		endOffset, err := config.ParseClock(clinic.EndTime)
		if err != nil {
			return nil, fmt.Errorf("clinic %s end time: %w", clinic.Name, err)
		}

		for _, day := range occurrences {
			day = startOfDay(day)
			sessions = append(sessions, SessionInput{
				ClinicName: clinic.Name,
				Date:       day,
				StartTime:  day.Add(startOffset),
				EndTime:    day.Add(endOffset),
				Notes:      clinic.Notes,
			})
		}
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].StartTime.Equal(sessions[j].StartTime) {
			return sessions[i].StartTime.Before(sessions[j].StartTime)
		}
		return sessions[i].ClinicName < sessions[j].ClinicName
	})

	return sessions, nil
}

// clinicOccurrences returns the days in [from, to] matched by the clinic's rrule
func clinicOccurrences(clinic config.ClinicConfig, from, to time.Time) ([]time.Time, error) {
	opt, err := rrule.StrToROption(clinic.RRule)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule for clinic %s: %w", clinic.Name, err)
	}
	opt.Dtstart = from

	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build rrule for clinic %s: %w", clinic.Name, err)
	}

	return rule.Between(from, to, true), nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ExpandNamedClinics expands the configured clinics with the given names
func ExpandNamedClinics(cfg *config.Config, names []string, start, end time.Time) ([]SessionInput, error) {
	clinics := make([]config.ClinicConfig, 0, len(names))
	for _, name := range names {
		clinic, ok := cfg.Clinic(name)
		if !ok {
			return nil, fmt.Errorf("unknown clinic %q: %w", name, coverage.ErrInvalidRequest)
		}
		clinics = append(clinics, *clinic)
	}
	return ExpandClinicSessions(clinics, start, end)
}
