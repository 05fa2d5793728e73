package commands

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/internal/config"
	"github.com/jakechorley/clinic-cover/pkg/core/coverage"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/db"
	"github.com/jakechorley/clinic-cover/pkg/notify"
)

func newTestApp(t *testing.T) (*AppContext, *db.MemoryDB) {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemoryDB()

	for _, s := range []model.Supervisor{
		{ID: "alice", DisplayName: "Alice Smith", Email: "alice@example.com", Role: model.RoleUser, Active: true},
		{ID: "bob", DisplayName: "Bob Jones", Email: "bob@example.com", Role: model.RoleUser, Active: true},
		{ID: "dana", DisplayName: "Dana Admin", Email: "dana@example.com", Role: model.RoleAdmin, Active: true},
	} {
		s := s
		require.NoError(t, store.InsertSupervisor(ctx, &s))
	}

	logger := zap.NewNop()
	dispatcher := notify.NewOutbox(logger)
	cfg := &config.Config{
		Clinics: []config.ClinicConfig{
			{Name: "Eastside Clinic", RRule: "FREQ=WEEKLY;BYDAY=TU", StartTime: "09:00", EndTime: "13:00"},
		},
	}

	return &AppContext{
		Cfg:         cfg,
		Store:       store,
		Coordinator: coverage.NewCoordinator(store, dispatcher, logger, coverage.Options{}),
		Dispatcher:  dispatcher,
		Logger:      logger,
		Ctx:         ctx,
	}, store
}

// run executes cmd the way an interactive session does
func run(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	return runInSession(cmd, args)
}

func TestActor(t *testing.T) {
	app, _ := newTestApp(t)

	_, err := app.Actor()
	assert.ErrorContains(t, err, "--as")

	app.ActingID = "ghost"
	_, err = app.Actor()
	assert.ErrorContains(t, err, `unknown supervisor "ghost"`)

	app.ActingID = "dana"
	actor, err := app.Actor()
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, actor.Role)
}

func TestCreateRequestAndClaim(t *testing.T) {
	app, store := newTestApp(t)
	ctx := context.Background()

	app.ActingID = "alice"
	require.NoError(t, run(t, CreateRequestCmd(app), "2025-03-10", "2025-03-23", "--clinic", "Eastside Clinic"))

	requests, err := store.ListRequests(ctx, db.RequestFilter{SupervisorID: "alice"})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Len(t, requests[0].Sessions, 2)
	sessionID := requests[0].Sessions[0].ID

	err = run(t, ClaimCmd(app), sessionID)
	assert.ErrorIs(t, err, coverage.ErrSelfCoverage)

	app.ActingID = "bob"
	require.NoError(t, run(t, ClaimCmd(app), sessionID))

	session, err := store.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "bob", session.CoveringSupervisorID)

	app.ActingID = "alice"
	err = run(t, DeleteRequestCmd(app), requests[0].ID)
	assert.ErrorIs(t, err, coverage.ErrHasCoveredSessions)

	// Admin role comes from the stored supervisor
	app.ActingID = "dana"
	require.NoError(t, run(t, ReleaseCmd(app), sessionID))

	events, err := store.ListCoverageEvents(ctx, db.EventFilter{SessionID: sessionID})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestCreateRequest_FlagValidation(t *testing.T) {
	app, _ := newTestApp(t)
	app.ActingID = "alice"

	err := run(t, CreateRequestCmd(app), "2025-03-10", "2025-03-12",
		"--clinic", "Eastside Clinic",
		"--session", "Northgate,2025-03-11,09:00,12:00")
	assert.ErrorContains(t, err, "not both")

	err = run(t, CreateRequestCmd(app), "10/03/2025", "2025-03-12", "--clinic", "Eastside Clinic")
	assert.ErrorIs(t, err, coverage.ErrInvalidRequest)

	err = run(t, CreateRequestCmd(app), "2025-03-10", "2025-03-12")
	assert.ErrorIs(t, err, coverage.ErrInvalidRequest)
}

func TestParseSessionFlags(t *testing.T) {
	sessions, err := parseSessionFlags([]string{
		"Northgate Clinic, 2025-03-11, 14:00, 18:00",
		"Eastside Clinic,2025-03-12,09:00,13:00,Room 2, upstairs",
	})
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	day := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Northgate Clinic", sessions[0].ClinicName)
	assert.Equal(t, day, sessions[0].Date)
	assert.Equal(t, day.Add(14*time.Hour), sessions[0].StartTime)
	assert.Equal(t, day.Add(18*time.Hour), sessions[0].EndTime)
	assert.Equal(t, "Room 2, upstairs", sessions[1].Notes)

	_, err = parseSessionFlags([]string{"Northgate Clinic,2025-03-11"})
	assert.ErrorContains(t, err, "expected clinic,date,start,end")

	_, err = parseSessionFlags([]string{"Northgate Clinic,2025-03-11,2pm,18:00"})
	assert.ErrorIs(t, err, coverage.ErrInvalidRequest)
}

func TestParseCoverageFilter(t *testing.T) {
	tests := []struct {
		value string
		want  db.CoverageFilter
	}{
		{"", db.CoverageAny},
		{"any", db.CoverageAny},
		{"covered", db.CoverageCovered},
		{"uncovered", db.CoverageUncovered},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseCoverageFilter(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseCoverageFilter("partial")
	assert.Error(t, err)
}

func TestAddSupervisor_RequiresAdmin(t *testing.T) {
	app, store := newTestApp(t)

	app.ActingID = "bob"
	err := run(t, AddSupervisorCmd(app), "Erin Green", "erin@example.com")
	assert.ErrorContains(t, err, "only admins")

	app.ActingID = "dana"
	require.NoError(t, run(t, AddSupervisorCmd(app), "Erin Green", "erin@example.com", "--id", "erin", "--role", "admin"))

	erin, err := store.GetSupervisor(context.Background(), "erin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, erin.Role)
}

func TestAddSupervisor_FirstNeedsNoActor(t *testing.T) {
	app, _ := newTestApp(t)
	store := db.NewMemoryDB()
	app.Store = store

	require.NoError(t, run(t, AddSupervisorCmd(app), "Root Admin", "root@example.com", "--id", "root", "--role", "ADMIN"))

	// The store is no longer empty
	err := run(t, AddSupervisorCmd(app), "Erin Green", "erin@example.com")
	assert.ErrorContains(t, err, "--as")

	root, err := store.GetSupervisor(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, root.Role)
}

func TestRunInSession_ResetsLocalFlags(t *testing.T) {
	var seen []string
	var seenTag string

	root := &cobra.Command{Use: "root"}
	var acting string
	root.PersistentFlags().StringVar(&acting, "as", "", "")

	cmd := &cobra.Command{
		Use:  "probe",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seen, _ = cmd.Flags().GetStringArray("clinic")
			seenTag, _ = cmd.Flags().GetString("tag")
			return nil
		},
	}
	cmd.Flags().StringArray("clinic", nil, "")
	cmd.Flags().String("tag", "none", "")
	root.AddCommand(cmd)

	require.NoError(t, runInSession(cmd, []string{"--clinic", "a", "--clinic", "b", "--tag", "x", "--as", "bob"}))
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, "x", seenTag)
	assert.Equal(t, "bob", acting)

	require.NoError(t, runInSession(cmd, nil))
	assert.Empty(t, seen)
	assert.Equal(t, "none", seenTag)
	assert.Equal(t, "bob", acting)

	assert.Error(t, runInSession(cmd, []string{"extra"}))
}

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr bool
	}{
		{name: "plain", line: "claim s-1", want: []string{"claim", "s-1"}},
		{name: "double quotes", line: `createRequest 2025-03-10 2025-03-12 --clinic "Eastside Clinic"`, want: []string{"createRequest", "2025-03-10", "2025-03-12", "--clinic", "Eastside Clinic"}},
		{name: "single quotes", line: `clinics 'east side'`, want: []string{"clinics", "east side"}},
		{name: "extra spaces", line: "  uncovered   --limit  5 ", want: []string{"uncovered", "--limit", "5"}},
		{name: "unclosed", line: `clinics "east`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommandLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionCommands_SkipsServe(t *testing.T) {
	app, _ := newTestApp(t)
	root := &cobra.Command{Use: "root"}
	root.AddCommand(ClaimCmd(app), ServeCmd(app), InteractiveCmd(app))

	commands := sessionCommands(root)
	assert.Contains(t, commands, "claim")
	assert.NotContains(t, commands, "serve")
	assert.NotContains(t, commands, "interactive")
}
