package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/omarluq/go-eventstream/eventstream"
)

func runDump(_ *cobra.Command, args []string) error {
	source := io.Reader(os.Stdin)
	name := "stdin"

	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			log.Error().Err(err).Str("path", args[0]).Msg("failed to open input")
			return err
		}
		defer f.Close()
		source, name = f, args[0]
	}

	reader := eventstream.NewReader(source)
	count := 0

	for {
		msg, err := reader.ReadMessage()
		if errors.Is(err, io.EOF) {
			log.Info().Int("frames", count).Str("source", name).Msg("done")
			return nil
		}
		if err != nil {
			log.Error().Err(err).Int("frames", count).Msg("frame decode failed")
			return err
		}

		count++
		printFrame(count, msg)
	}
}

func printFrame(index int, msg eventstream.Message) {
	fmt.Printf("--- frame %d (%d header(s), %d payload byte(s))\n",
		index, len(msg.Headers), len(msg.Payload))

	width := lo.Max(lo.Map(msg.Headers, func(h eventstream.Header, _ int) int {
		return len(h.Name)
	}))
	for _, h := range msg.Headers {
		fmt.Printf("  %-*s  %s\n", width, h.Name, h.Value)
	}

	if !showPayload || len(msg.Payload) == 0 {
		return
	}
	if gjson.ValidBytes(msg.Payload) {
		fmt.Printf("  payload: %s\n", msg.Payload)
		return
	}
	fmt.Printf("  payload:\n%s", hex.Dump(msg.Payload))
}
