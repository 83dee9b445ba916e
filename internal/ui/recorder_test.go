package ui_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/mapty/internal/domain"
	"github.com/pkordes/mapty/internal/session"
	"github.com/pkordes/mapty/internal/ui"
)

func TestRecorder_DrainReturnsCommandsInOrderAndEmpties(t *testing.T) {
	r := ui.NewRecorder()

	r.Load(domain.Coords{Lat: 1, Lng: 2}, 13)
	r.Show()
	r.Alert("hi")

	cmds := r.Drain()
	require.Len(t, cmds, 3)
	assert.Equal(t, ui.OpMapLoad, cmds[0].Op)
	assert.Equal(t, ui.OpFormShow, cmds[1].Op)
	assert.Equal(t, "hi", cmds[2].Message)

	empty := r.Drain()
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestRecorder_ClearKeepsType(t *testing.T) {
	r := ui.NewRecorder()
	r.SetValues(session.FormValues{Type: "cycling", Distance: "3", Elevation: "7"})

	r.Clear()

	assert.Equal(t, session.FormValues{Type: "cycling"}, r.Values())
}

func TestCommand_JSONOmitsUnusedFields(t *testing.T) {
	r := ui.NewRecorder()
	r.SetView(domain.Coords{Lat: 1, Lng: 2}, 13, session.PanOptions{Animate: true, PanDuration: 1})

	b, err := json.Marshal(r.Drain()[0])
	require.NoError(t, err)

	assert.JSONEq(t, `{"op":"map.view","center":[1,2],"zoom":13,"pan":{"animate":true,"panDuration":1}}`, string(b))
}

func TestPosition(t *testing.T) {
	c, err := ui.Position{Coords: &domain.Coords{Lat: 3, Lng: 4}}.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Coords{Lat: 3, Lng: 4}, c)

	_, err = ui.Position{Reason: "timeout"}.CurrentPosition(context.Background())
	assert.ErrorIs(t, err, ui.ErrGeolocationUnavailable)
	assert.ErrorContains(t, err, "timeout")
}
