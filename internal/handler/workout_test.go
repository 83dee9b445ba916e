package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/mapty/internal/domain"
	"github.com/pkordes/mapty/internal/handler"
	"github.com/pkordes/mapty/internal/repo"
	"github.com/pkordes/mapty/internal/service"
	"github.com/pkordes/mapty/internal/session"
	"github.com/pkordes/mapty/internal/ui"
)

// ---- POST /api/session/workouts ----------------------------------------------

func TestSubmitWorkout_201(t *testing.T) {
	fixture := runningFixture()
	var got session.FormValues
	svc := &mockSessionServicer{
		submit: func(_ context.Context, clientID string, values session.FormValues) (domain.Workout, []ui.Command, error) {
			require.Equal(t, testClientID, clientID)
			got = values
			return fixture, []ui.Command{{Op: ui.OpListAppend}, {Op: ui.OpMapMarker}, {Op: ui.OpFormHide}}, nil
		},
	}

	values := session.FormValues{Type: "running", Distance: "5", Duration: "25", Cadence: "170"}
	req := withClient(httptest.NewRequest(http.MethodPost, "/api/session/workouts", jsonBody(t, values)))
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, values, got)

	var body struct {
		Workout  domain.Record `json:"workout"`
		Commands []ui.Command  `json:"commands"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, fixture.ID, body.Workout.ID)
	assert.Equal(t, domain.KindRunning, body.Workout.Type)
	assert.Equal(t, "Running on October 18", body.Workout.Description)
	assert.InDelta(t, 5.0, float64(body.Workout.Pace), 1e-9)
	assert.Len(t, body.Commands, 3)
}

func TestSubmitWorkout_invalidInputReturns422WithAlert(t *testing.T) {
	svc := &mockSessionServicer{
		submit: func(_ context.Context, _ string, _ session.FormValues) (domain.Workout, []ui.Command, error) {
			return domain.Workout{},
				[]ui.Command{{Op: ui.OpAlert, Message: session.MsgInvalidInput}},
				fmt.Errorf("session.Controller.Submit: %w: inputs have to be positive numbers", domain.ErrValidation)
		},
	}

	values := session.FormValues{Type: "running", Distance: "-5", Duration: "25", Cadence: "170"}
	req := withClient(httptest.NewRequest(http.MethodPost, "/api/session/workouts", jsonBody(t, values)))
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, "inputs have to be positive numbers", body.Error.Message)
	require.Len(t, body.Commands, 1)
	assert.Equal(t, session.MsgInvalidInput, body.Commands[0].Message)
}

func TestSubmitWorkout_noPendingClickReturns409(t *testing.T) {
	svc := &mockSessionServicer{
		submit: func(_ context.Context, _ string, _ session.FormValues) (domain.Workout, []ui.Command, error) {
			return domain.Workout{}, []ui.Command{}, fmt.Errorf("session.Controller.Submit: %w", session.ErrNoPendingClick)
		},
	}

	req := withClient(httptest.NewRequest(http.MethodPost, "/api/session/workouts", jsonBody(t, session.FormValues{Type: "running"})))
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitWorkout_storageFailureReturns500WithCommands(t *testing.T) {
	svc := &mockSessionServicer{
		submit: func(_ context.Context, _ string, _ session.FormValues) (domain.Workout, []ui.Command, error) {
			return runningFixture(), []ui.Command{{Op: ui.OpListAppend}}, errors.New("connection refused")
		},
	}

	values := session.FormValues{Type: "running", Distance: "5", Duration: "25", Cadence: "170"}
	req := withClient(httptest.NewRequest(http.MethodPost, "/api/session/workouts", jsonBody(t, values)))
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "internal_error", body.Error.Code)
	require.Len(t, body.Commands, 1)
	assert.Equal(t, ui.OpListAppend, body.Commands[0].Op)
}

// ---- lenient mode through the real session service -----------------------------

// lenientAPI wires the router to a real lenient SessionService over kv and
// starts a session for testClientID with a pending map click.
func lenientAPI(t *testing.T, kv repo.KVStore) http.Handler {
	t.Helper()
	svc := service.NewSessionService(kv, service.SessionConfig{StorageKey: "workouts", Validation: domain.Lenient}, quietLogger())
	h := handler.NewServer(svc, service.NewExportService(kv, "workouts", domain.Lenient, quietLogger())).Routes()

	start := withClient(httptest.NewRequest(http.MethodPost, "/api/session", jsonBody(t, map[string]any{
		"position": map[string]float64{"lat": 39.5, "lng": -8.1},
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, start)
	require.Equal(t, http.StatusOK, rec.Code)

	click := withClient(httptest.NewRequest(http.MethodPost, "/api/session/click?lat=39.51&lng=-8.12", nil))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, click)
	require.Equal(t, http.StatusOK, rec.Code)
	return h
}

func submitValues(t *testing.T, h http.Handler, values session.FormValues) *httptest.ResponseRecorder {
	t.Helper()
	req := withClient(httptest.NewRequest(http.MethodPost, "/api/session/workouts", jsonBody(t, values)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func listWorkouts(t *testing.T, h http.Handler) []map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withClient(httptest.NewRequest(http.MethodGet, "/api/session/workouts", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Data
}

// An empty distance gives an infinite pace. Lenient mode records the workout
// anyway; the infinite pace travels as null in the response, the list and
// storage.
func TestSubmitWorkout_lenientNonFiniteNumbersEncodeAsNull(t *testing.T) {
	kv := repo.NewMemoryKVStore()
	h := lenientAPI(t, kv)

	rec := submitValues(t, h, session.FormValues{Type: "running", Distance: "", Duration: "25", Cadence: "170"})

	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		Workout  map[string]any `json:"workout"`
		Commands []ui.Command   `json:"commands"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Nil(t, body.Workout["pace"])
	assert.Equal(t, 0.0, body.Workout["distance"])
	require.NotEmpty(t, body.Commands)
	assert.Equal(t, ui.OpAlert, body.Commands[0].Op)
	assert.Contains(t, opsOfCommands(body.Commands), ui.OpListAppend)

	items := listWorkouts(t, h)
	require.Len(t, items, 1)
	assert.Contains(t, items[0], "pace")
	assert.Nil(t, items[0]["pace"])

	stored, err := kv.Get(context.Background(), "workouts:"+testClientID)
	require.NoError(t, err)
	assert.Contains(t, stored, `"distance":0`)
	assert.Contains(t, stored, `"pace":null`)
}

// A finite but invalid workout accepted in lenient mode is still listed
// after the page reloads, and the next submission keeps it in storage.
func TestSubmitWorkout_lenientInvalidWorkoutSurvivesReload(t *testing.T) {
	kv := repo.NewMemoryKVStore()
	h := lenientAPI(t, kv)

	rec := submitValues(t, h, session.FormValues{Type: "running", Distance: "-5", Duration: "25", Cadence: "170"})
	require.Equal(t, http.StatusCreated, rec.Code)

	reload := withClient(httptest.NewRequest(http.MethodPost, "/api/session", jsonBody(t, map[string]any{
		"position": map[string]float64{"lat": 39.5, "lng": -8.1},
	})))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, reload)
	require.Equal(t, http.StatusOK, rec.Code)

	items := listWorkouts(t, h)
	require.Len(t, items, 1)
	assert.Equal(t, -5.0, items[0]["distance"])

	click := withClient(httptest.NewRequest(http.MethodPost, "/api/session/click?lat=39.52&lng=-8.13", nil))
	h.ServeHTTP(httptest.NewRecorder(), click)
	rec = submitValues(t, h, session.FormValues{Type: "cycling", Distance: "20", Duration: "60", Elevation: "100"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, listWorkouts(t, h), 2)
}

// ---- POST /api/session/workouts/{id}/select -----------------------------------

func TestSelectWorkout_movesMap(t *testing.T) {
	var gotID string
	svc := &mockSessionServicer{
		selectFn: func(_ context.Context, _ string, workoutID string) (bool, []ui.Command, error) {
			gotID = workoutID
			return true, []ui.Command{{Op: ui.OpMapView}}, nil
		},
	}

	req := withClient(httptest.NewRequest(http.MethodPost, "/api/session/workouts/1234567890/select", nil))
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1234567890", gotID)

	var body struct {
		Moved    bool         `json:"moved"`
		Commands []ui.Command `json:"commands"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Moved)
	require.Len(t, body.Commands, 1)
	assert.Equal(t, ui.OpMapView, body.Commands[0].Op)
}

func TestSelectWorkout_unknownIDIsNotAnError(t *testing.T) {
	svc := &mockSessionServicer{
		selectFn: func(_ context.Context, _ string, _ string) (bool, []ui.Command, error) {
			return false, []ui.Command{}, nil
		},
	}

	req := withClient(httptest.NewRequest(http.MethodPost, "/api/session/workouts/nope/select", nil))
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"moved":false,"commands":[]}`, rec.Body.String())
}

// ---- GET /api/session/workouts -----------------------------------------------

func TestListWorkouts_200(t *testing.T) {
	fixture := runningFixture()
	svc := &mockSessionServicer{
		workouts: func(_ context.Context, _ string) ([]domain.Workout, error) {
			return []domain.Workout{fixture}, nil
		},
	}

	req := withClient(httptest.NewRequest(http.MethodGet, "/api/session/workouts", nil))
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []domain.Record `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, fixture.ID, body.Data[0].ID)
}

func TestListWorkouts_emptyListIsArray(t *testing.T) {
	svc := &mockSessionServicer{
		workouts: func(_ context.Context, _ string) ([]domain.Workout, error) {
			return []domain.Workout{}, nil
		},
	}

	req := withClient(httptest.NewRequest(http.MethodGet, "/api/session/workouts", nil))
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

// ---- GET /api/session/workouts/{id} ------------------------------------------

func TestGetWorkout_200(t *testing.T) {
	fixture := runningFixture()
	var gotID string
	svc := &mockSessionServicer{
		workout: func(_ context.Context, _ string, workoutID string) (domain.Workout, error) {
			gotID = workoutID
			return fixture, nil
		},
	}

	req := withClient(httptest.NewRequest(http.MethodGet, "/api/session/workouts/"+fixture.ID, nil))
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fixture.ID, gotID)
	var body domain.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, fixture.ID, body.ID)
	assert.Equal(t, domain.Number(170), body.Cadence)
}

func TestGetWorkout_unknownIDReturns404(t *testing.T) {
	svc := &mockSessionServicer{
		workout: func(_ context.Context, _ string, _ string) (domain.Workout, error) {
			return domain.Workout{}, fmt.Errorf("service.SessionService.Workout: session.Controller.Workout: workout %w", domain.ErrNotFound)
		},
	}

	req := withClient(httptest.NewRequest(http.MethodGet, "/api/session/workouts/nope", nil))
	rec := httptest.NewRecorder()
	newHTTPHandler(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "not_found", body.Error.Code)
	assert.Equal(t, "workout not found", body.Error.Message)
}
