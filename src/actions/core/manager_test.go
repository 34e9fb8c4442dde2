package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingModule struct {
	name    string
	failing bool
	log     *[]string
}

func (r *recordingModule) Name() string { return r.name }

func (r *recordingModule) Start(context.Context) error {
	if r.failing {
		return errors.New("boom")
	}
	*r.log = append(*r.log, "start "+r.name)
	return nil
}

func (r *recordingModule) Stop(context.Context) {
	*r.log = append(*r.log, "stop "+r.name)
}

func TestManagerStartsAndStopsInOrder(t *testing.T) {
	var log []string
	m := NewManager(nil, &recordingModule{name: "api", log: &log})
	require.NoError(t, m.Add(&recordingModule{name: "discord", log: &log}))
	assert.Equal(t, []string{"api", "discord"}, m.Names())

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Start(context.Background()))
	assert.Error(t, m.Add(&recordingModule{name: "late", log: &log}))

	m.Stop(context.Background())
	m.Stop(context.Background())
	assert.Equal(t, []string{"start api", "start discord", "stop discord", "stop api"}, log)
}

func TestManagerRollsBackOnFailure(t *testing.T) {
	var log []string
	m := NewManager(nil,
		&recordingModule{name: "api", log: &log},
		nil,
		&recordingModule{name: "discord", failing: true, log: &log},
	)
	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module discord failed")
	assert.Equal(t, []string{"start api", "stop api"}, log)
}
