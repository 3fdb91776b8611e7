package ptz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

func TestHandleMessage(t *testing.T) {
	link := &recordingLink{}
	q := NewQueue(link, Options{Workers: 1, Speed: 30})
	defer shutdown(t, q)

	q.HandleMessage([]byte(`{"action":"up","continuous":true}`))
	q.HandleMessage([]byte(`not json`))
	q.HandleMessage([]byte(`{"action":"sideways"}`))
	q.HandleMessage([]byte(`{"action":"stop"}`))

	require.Eventually(t, func() bool { return len(link.commands()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []Command{
		{Action: models.PTZUp, Step: StepContinuous, Speed: 30},
		{Action: models.PTZStop, Step: StepSingle, Speed: 30},
	}, link.commands())
	assert.Equal(t, int64(2), q.Stats().Enqueued)
}
