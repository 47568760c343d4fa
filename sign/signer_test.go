package sign

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/go-eventstream/eventstream"
)

var testCreds = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
	return aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "wJalrXUtnFEMI"}, nil
})

var testNow = time.Date(2024, 5, 17, 8, 30, 12, 0, time.UTC)

func newTestSigner() *EventSigner {
	return NewEventSigner("transcribe", "us-east-1", testCreds, func(o *EventSignerOptions) {
		o.Now = func() time.Time { return testNow }
	})
}

// referenceSignature is an independent rendering of the chunk signing
// algorithm, down to hand-assembled ":date" header bytes.
func referenceSignature(payload, prior []byte, now time.Time) []byte {
	hm := func(key, msg []byte) []byte {
		mac := hmac.New(sha256.New, key)
		mac.Write(msg)
		return mac.Sum(nil)
	}
	hexsum := func(data []byte) string {
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	}

	var dateHeader bytes.Buffer
	dateHeader.WriteByte(5)
	dateHeader.WriteString(":date")
	dateHeader.WriteByte(8)
	var millis [8]byte
	binary.BigEndian.PutUint64(millis[:], uint64(now.UnixMilli()))
	dateHeader.Write(millis[:])

	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256-PAYLOAD",
		now.Format("20060102T150405Z"),
		now.Format("20060102") + "/us-east-1/transcribe/aws4_request",
		hex.EncodeToString(prior),
		hexsum(dateHeader.Bytes()),
		hexsum(payload),
	}, "\n")

	key := hm([]byte("AWS4wJalrXUtnFEMI"), []byte(now.Format("20060102")))
	key = hm(key, []byte("us-east-1"))
	key = hm(key, []byte("transcribe"))
	key = hm(key, []byte("aws4_request"))
	return hm(key, []byte(stringToSign))
}

func TestSignEvent_MatchesReference(t *testing.T) {
	signer := newTestSigner()

	payload := []byte("inner frame bytes")
	prior := bytes.Repeat([]byte{0xab}, 32)

	headers, signature, err := signer.SignEvent(context.Background(), payload, prior)
	require.NoError(t, err)

	assert.Equal(t, referenceSignature(payload, prior, testNow), signature)

	date, ok := headers.Lookup(":date").Get()
	require.True(t, ok)
	assert.True(t, time.Time(date.(eventstream.TimestampValue)).Equal(testNow))

	chunk := headers.Get(":chunk-signature")
	require.NotNil(t, chunk)
	assert.Equal(t, signature, []byte(chunk.(eventstream.BytesValue)))
}

func TestSignEvent_ChainsSignatures(t *testing.T) {
	signer := newTestSigner()
	ctx := context.Background()

	prior := bytes.Repeat([]byte{0x01}, 32)
	_, first, err := signer.SignEvent(ctx, []byte("one"), prior)
	require.NoError(t, err)

	_, second, err := signer.SignEvent(ctx, []byte("two"), first)
	require.NoError(t, err)

	assert.Equal(t, referenceSignature([]byte("two"), first, testNow), second)
	assert.NotEqual(t, first, second)

	// The empty sentinel signs like any other payload.
	_, final, err := signer.SignEvent(ctx, nil, second)
	require.NoError(t, err)
	assert.Equal(t, referenceSignature(nil, second, testNow), final)
}

func TestPriorSignatureFromAuthorization(t *testing.T) {
	t.Run("extracts the hex signature", func(t *testing.T) {
		sig, err := PriorSignatureFromAuthorization(
			"AWS4-HMAC-SHA256 Credential=AKID/20240517/us-east-1/transcribe/aws4_request, " +
				"SignedHeaders=host;x-amz-date, Signature=deadbeef")
		require.NoError(t, err)
		assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, sig)
	})

	t.Run("missing signature component", func(t *testing.T) {
		_, err := PriorSignatureFromAuthorization("AWS4-HMAC-SHA256 Credential=AKID")
		assert.Error(t, err)
	})

	t.Run("malformed hex", func(t *testing.T) {
		_, err := PriorSignatureFromAuthorization("Signature=zzzz")
		assert.Error(t, err)
	})
}
