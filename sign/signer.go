// Package sign implements chunked SigV4 event signing for outbound event
// streams.
//
// After the initial HTTP request is signed, each event frame is wrapped in
// an outer frame carrying a ":date" header and a ":chunk-signature"
// header whose value chains off the previous frame's signature. The
// receiving service verifies the chain; this side never does.
package sign

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog"

	"github.com/omarluq/go-eventstream/eventstream"
)

const (
	algorithm       = "AWS4-HMAC-SHA256-PAYLOAD"
	timeFormat      = "20060102T150405Z"
	shortTimeFormat = "20060102"

	dateHeader      = ":date"
	signatureHeader = ":chunk-signature"
)

// EventSignerOptions configures an EventSigner.
type EventSignerOptions struct {
	// Now supplies the signing time; it defaults to time.Now. Override in
	// tests to produce a deterministic chain.
	Now func() time.Time

	Logger zerolog.Logger
}

// EventSigner computes chunk signatures for event frames using the SigV4
// signing-key derivation. It is created per stream; the signature chain
// itself is carried by the caller through SignEvent's priorSignature.
type EventSigner struct {
	service     string
	region      string
	credentials aws.CredentialsProvider
	now         func() time.Time
	logger      zerolog.Logger
}

// NewEventSigner returns an EventSigner for the given service and region
// drawing credentials from the provider.
func NewEventSigner(service, region string, credentials aws.CredentialsProvider, optFns ...func(*EventSignerOptions)) *EventSigner {
	options := EventSignerOptions{
		Now:    time.Now,
		Logger: zerolog.Nop(),
	}
	for _, fn := range optFns {
		fn(&options)
	}
	return &EventSigner{
		service:     service,
		region:      region,
		credentials: credentials,
		now:         options.Now,
		logger:      options.Logger,
	}
}

// NewEventSignerFromConfig returns an EventSigner using the AWS SDK
// default credential chain.
func NewEventSignerFromConfig(ctx context.Context, service, region string, optFns ...func(*EventSignerOptions)) (*EventSigner, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("sign: load AWS config: %w", err)
	}
	return NewEventSigner(service, region, cfg.Credentials, optFns...), nil
}

// SignEvent signs one event frame. payload is the fully encoded inner
// frame (empty for the end-of-stream sentinel); priorSignature is the
// previous chunk signature, or the initial HTTP request signature for the
// first event. It returns the headers for the outer frame and the new
// prior signature.
func (s *EventSigner) SignEvent(ctx context.Context, payload, priorSignature []byte) (eventstream.Headers, []byte, error) {
	creds, err := s.credentials.Retrieve(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("sign: retrieve credentials: %w", err)
	}

	now := s.now().UTC()
	headers := eventstream.Headers{
		{Name: dateHeader, Value: eventstream.TimestampValue(now)},
	}

	var headerBuf bytes.Buffer
	if err := eventstream.EncodeHeaders(&headerBuf, headers); err != nil {
		return nil, nil, err
	}

	timestamp := now.Format(timeFormat)
	stringToSign := strings.Join([]string{
		algorithm,
		timestamp,
		s.scope(now),
		hex.EncodeToString(priorSignature),
		hexSHA256(headerBuf.Bytes()),
		hexSHA256(payload),
	}, "\n")

	signature := hmacSHA256(s.signingKey(creds.SecretAccessKey, now), []byte(stringToSign))
	headers.Set(signatureHeader, eventstream.BytesValue(signature))

	s.logger.Debug().
		Str("scope", s.scope(now)).
		Str("signature", hex.EncodeToString(signature)).
		Msg("sign: signed event frame")

	return headers, signature, nil
}

func (s *EventSigner) scope(now time.Time) string {
	return strings.Join([]string{
		now.Format(shortTimeFormat),
		s.region,
		s.service,
		"aws4_request",
	}, "/")
}

func (s *EventSigner) signingKey(secret string, now time.Time) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), []byte(now.Format(shortTimeFormat)))
	kRegion := hmacSHA256(kDate, []byte(s.region))
	kService := hmacSHA256(kRegion, []byte(s.service))
	return hmacSHA256(kService, []byte("aws4_request"))
}

func hmacSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

func hexSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// PriorSignatureFromAuthorization extracts the hex signature from a SigV4
// Authorization header, for seeding the chunk signature chain from the
// signed initial request.
func PriorSignatureFromAuthorization(authorization string) ([]byte, error) {
	const marker = "Signature="
	idx := strings.LastIndex(authorization, marker)
	if idx < 0 {
		return nil, fmt.Errorf("sign: no Signature component in Authorization header")
	}
	raw := strings.TrimSpace(authorization[idx+len(marker):])
	if comma := strings.IndexByte(raw, ','); comma >= 0 {
		raw = raw[:comma]
	}
	signature, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("sign: malformed Signature component: %w", err)
	}
	return signature, nil
}
