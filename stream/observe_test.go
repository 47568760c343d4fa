package stream

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/samber/ro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/go-eventstream/codec"
)

func TestObserve(t *testing.T) {
	ctx := context.Background()
	var wire bytes.Buffer

	pub := NewPublisher[Serializable](codec.JSON{}, &wire)
	require.NoError(t, pub.Send(ctx, &deltaEvent{Text: "first"}))
	require.NoError(t, pub.Send(ctx, &badRequestError{Message: "mid-stream"}))
	require.NoError(t, pub.Send(ctx, &deltaEvent{Text: "second"}))

	var results []mo.Result[Deserializable]
	done := make(chan struct{})

	Observe(ctx, newTestReceiver(&wire)).Subscribe(ro.NewObserver(
		func(r mo.Result[Deserializable]) { results = append(results, r) },
		func(err error) { t.Errorf("unexpected stream error: %v", err) },
		func() { close(done) },
	))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("observable did not complete")
	}

	require.Len(t, results, 3)

	first, err := results[0].Get()
	require.NoError(t, err)
	assert.Equal(t, "first", first.(*deltaEvent).Text)

	_, err = results[1].Get()
	var modeled *ModeledError
	require.ErrorAs(t, err, &modeled)
	assert.Equal(t, "badRequestError", modeled.Name)

	second, err := results[2].Get()
	require.NoError(t, err)
	assert.Equal(t, "second", second.(*deltaEvent).Text)
}
