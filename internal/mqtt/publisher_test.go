package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.acmcsuf.com/ledfx"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }

func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	paho.Client
	published chan published
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.published <- published{topic, qos, retained, payload.([]byte)}
	return doneToken{}
}

func TestPublish(t *testing.T) {
	client := &fakeClient{published: make(chan published, 1)}
	p := newPublisher(client, "LEDFX", slogt.New(t))

	state := ledfx.State{
		Effect:      "circle",
		Index:       1,
		Speed:       1.5,
		ColorSource: "mch",
	}
	p.Publish(state)

	msg := <-client.published
	assert.Equal(t, "LEDFX/STATE", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retained)

	var got ledfx.State
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, state, got)
}
