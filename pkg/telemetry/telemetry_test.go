package telemetry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funktionpi/pacs/pkg/state"
)

type fakeToken struct {
	done bool
	err  error
}

func (t *fakeToken) Wait() bool                     { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.done {
		close(ch)
	}
	return ch
}

type message struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	token        *fakeToken
	sent         []message
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, message{topic: topic, payload: payload.([]byte)})
	return c.token
}

func (c *fakeClient) Disconnect(uint) {
	c.disconnected = true
}

func TestPublisher_Publish(t *testing.T) {
	c := &fakeClient{token: &fakeToken{done: true}}
	p := New(c, "pacs/state", time.Second)

	s := state.Snapshot{
		Temperature:      45.5,
		TemperatureValid: true,
		FanRatio:         0.5,
		FanActivated:     true,
		FanDuty:          127,
		PowerWatts:       177,
		BlinkPhase:       true,
		UpdatedAt:        time.Unix(1000, 0).UTC(),
	}
	require.NoError(t, p.Publish(s))
	require.Len(t, c.sent, 1)
	assert.Equal(t, "pacs/state", c.sent[0].topic)

	var got map[string]any
	require.NoError(t, json.Unmarshal(c.sent[0].payload, &got))
	assert.InDelta(t, 45.5, got["temperature_c"], 1e-6)
	assert.Equal(t, true, got["fan_activated"])
	assert.InDelta(t, 127, got["fan_duty"], 0)
	assert.InDelta(t, 177, got["power_watts"], 1e-6)
	assert.NotContains(t, got, "BlinkPhase")
	assert.Equal(t, p.Session(), got["session"])
	assert.InDelta(t, 1, got["seq"], 0)

	require.NoError(t, p.Publish(s))
	var next Message
	require.NoError(t, json.Unmarshal(c.sent[1].payload, &next))
	assert.Equal(t, uint64(2), next.Seq)
	assert.Equal(t, p.Session(), next.Session)
	assert.InDelta(t, 45.5, next.Temperature, 1e-6)
}

func TestPublisher_SessionPerStart(t *testing.T) {
	c := &fakeClient{token: &fakeToken{done: true}}
	a, b := New(c, "pacs/state", 0), New(c, "pacs/state", 0)

	_, err := uuid.Parse(a.Session())
	require.NoError(t, err)
	assert.NotEqual(t, a.Session(), b.Session())
}

func TestPublisher_Errors(t *testing.T) {
	tests := []struct {
		name  string
		token *fakeToken
		want  string
	}{
		{name: "timeout", token: &fakeToken{done: false}, want: "timed out"},
		{name: "broker error", token: &fakeToken{done: true, err: errors.New("not authorized")}, want: "not authorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(&fakeClient{token: tt.token}, "pacs/state", 0)
			assert.Equal(t, DefaultTimeout, p.timeout)

			err := p.Publish(state.Snapshot{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPublisher_Close(t *testing.T) {
	c := &fakeClient{token: &fakeToken{done: true}}
	New(c, "pacs/state", time.Second).Close()
	assert.True(t, c.disconnected)
}
