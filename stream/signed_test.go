package stream

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/go-eventstream/codec"
	"github.com/omarluq/go-eventstream/eventstream"
	"github.com/omarluq/go-eventstream/sign"
)

var signingCreds = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
	return aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "wJalrXUtnFEMI"}, nil
})

func newFixedSigner() *sign.EventSigner {
	now := time.Date(2024, 5, 17, 8, 30, 12, 0, time.UTC)
	return sign.NewEventSigner("transcribe", "us-east-1", signingCreds, func(o *sign.EventSignerOptions) {
		o.Now = func() time.Time { return now }
	})
}

func TestSignedStream(t *testing.T) {
	ctx := context.Background()
	initialSignature := bytes.Repeat([]byte{0x5a}, 32)

	var wire bytes.Buffer
	pub := NewPublisher[Serializable](codec.JSON{}, &wire, func(o *PublisherOptions) {
		o.Signer = newFixedSigner()
		o.InitialSignature = initialSignature
	})

	require.NoError(t, pub.Send(ctx, &deltaEvent{Text: "one", Seq: 1}))
	require.NoError(t, pub.Send(ctx, &deltaEvent{Text: "two", Seq: 2}))
	require.NoError(t, pub.Close(ctx))

	reader := eventstream.NewReader(&wire)
	var outer []eventstream.Message
	for {
		msg, err := reader.ReadMessage()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		outer = append(outer, msg)
	}

	// Two events plus exactly one end-of-stream sentinel.
	require.Len(t, outer, 3)
	assert.Empty(t, outer[2].Payload, "the sentinel wraps an empty inner frame")

	// Each outer frame carries only the signing headers, and the chain
	// replays against an identical signer.
	verifier := newFixedSigner()
	prior := initialSignature
	for i, msg := range outer {
		assert.Equal(t, []string{":date", ":chunk-signature"}, msg.Headers.Names(), "frame %d", i)

		_, expected, err := verifier.SignEvent(ctx, msg.Payload, prior)
		require.NoError(t, err)

		chunkSig, ok := msg.Headers.Lookup(":chunk-signature").Get()
		require.True(t, ok, "frame %d", i)
		assert.Equal(t, eventstream.BytesValue(expected), chunkSig, "frame %d", i)
		prior = expected
	}

	// The inner frames are themselves valid event frames.
	for i, want := range []string{"one", "two"} {
		inner, err := eventstream.NewDecoder().Decode(bytes.NewReader(outer[i].Payload))
		require.NoError(t, err)

		eventType, ok := inner.Headers.GetString(":event-type")
		require.True(t, ok)
		assert.Equal(t, "delta", eventType)
		assert.Contains(t, string(inner.Payload), want)
	}
}

func TestSignedStream_SentinelOnlyOnce(t *testing.T) {
	ctx := context.Background()

	var wire bytes.Buffer
	pub := NewPublisher[Serializable](codec.JSON{}, &wire, func(o *PublisherOptions) {
		o.Signer = newFixedSigner()
		o.InitialSignature = make([]byte, 32)
	})

	require.NoError(t, pub.Close(ctx))
	require.NoError(t, pub.Close(ctx))

	reader := eventstream.NewReader(&wire)
	count := 0
	for {
		_, err := reader.ReadMessage()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 1, count)
}
