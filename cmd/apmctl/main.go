package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/apmwire/internal/codec"
	"github.com/danmuck/apmwire/internal/config"
	"github.com/danmuck/apmwire/internal/node"
	"github.com/danmuck/apmwire/internal/observability"
	"github.com/danmuck/apmwire/internal/protocol"
	"github.com/danmuck/apmwire/internal/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: apmctl <command> [flags]

commands:
  encode    build wire bytes from a TOML message file or JSON records
  decode    decode wire bytes into JSON or CBOR records
  template  write a config template (server|messages)
  validate  check a config file without using it
  serve     run the HTTP inspector
`

var errUsage = errors.New("invalid usage")

func main() {
	logger := observability.InitLogger("apmctl")
	if err := run(os.Args[1:], os.Stdin, os.Stdout, logger); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("apmctl failed")
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer, logger zerolog.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "encode":
		return runEncode(rest, stdin, stdout, logger)
	case "decode":
		return runDecode(rest, stdin, stdout, logger)
	case "template":
		return runTemplate(rest, logger)
	case "validate":
		return runValidate(rest, logger)
	case "serve":
		return runServe(rest)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func runEncode(args []string, stdin io.Reader, stdout io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	input := fs.String("input", "", "TOML message file or .json records (- for JSON on stdin)")
	format := fs.String("format", "hex", "output format: hex|raw")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *input == "" {
		return fmt.Errorf("encode requires -input: %w", errUsage)
	}

	msgs, err := loadMessages(*input, stdin)
	if err != nil {
		return err
	}
	wire, err := codec.New(logger).EncodeStream(msgs)
	if err != nil {
		return err
	}
	logger.Info().Int("messages", len(msgs)).Int("bytes", len(wire)).Msg("encoded")

	switch *format {
	case "hex":
		_, err = fmt.Fprintln(stdout, hex.EncodeToString(wire))
	case "raw":
		_, err = stdout.Write(wire)
	default:
		return fmt.Errorf("unknown encode format %q: %w", *format, errUsage)
	}
	return err
}

func runDecode(args []string, stdin io.Reader, stdout io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	input := fs.String("input", "-", "wire file (- for stdin)")
	from := fs.String("from", "raw", "input encoding: raw|hex")
	format := fs.String("format", "json", "output format: json|cbor")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	data, err := readInput(*input, stdin)
	if err != nil {
		return err
	}
	switch *from {
	case "raw":
	case "hex":
		data, err = hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return fmt.Errorf("decode hex input: %w", err)
		}
	default:
		return fmt.Errorf("unknown decode input %q: %w", *from, errUsage)
	}

	msgs, err := codec.New(logger).DecodeStream(data)
	if err != nil {
		var decErr protocol.DecodeError
		if errors.As(err, &decErr) {
			logger.Error().Str("field", decErr.Field).Int("bit_offset", decErr.Offset).Msg("decode rejected")
		}
		return err
	}
	records, err := codec.Views(msgs)
	if err != nil {
		return err
	}
	logger.Info().Int("messages", len(records)).Int("bytes", len(data)).Msg("decoded")

	switch *format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "cbor":
		out, err := codec.MarshalCBOR(records)
		if err != nil {
			return err
		}
		_, err = stdout.Write(out)
		return err
	default:
		return fmt.Errorf("unknown decode format %q: %w", *format, errUsage)
	}
}

func runTemplate(args []string, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("template", flag.ContinueOnError)
	kind := fs.String("kind", "server", "config kind: server|messages")
	output := fs.String("output", "", "output path (defaults to <kind>.toml)")
	force := fs.Bool("force", false, "overwrite existing file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	target := *output
	if target == "" {
		target = *kind + ".toml"
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		return err
	}
	logger.Info().Str("kind", *kind).Str("path", target).Msg("wrote config template")
	return nil
}

func runValidate(args []string, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	kind := fs.String("kind", "server", "config kind: server|messages")
	input := fs.String("input", "", "config path")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *input == "" {
		return fmt.Errorf("validate requires -input: %w", errUsage)
	}
	switch *kind {
	case "server":
		if _, err := config.LoadServerConfig(*input); err != nil {
			return err
		}
	case "messages":
		file, err := config.LoadMessageFile(*input)
		if err != nil {
			return err
		}
		if _, err := file.Build(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown config kind %q: %w", *kind, errUsage)
	}
	logger.Info().Str("kind", *kind).Str("path", *input).Msg("validated config")
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "server config (defaults apply when empty)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	cfg := config.DefaultServerConfig()
	if *configPath != "" {
		loaded, err := config.LoadServerConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		log.Info().Str("path", *configPath).Msg("loaded server config")
	}
	var n node.Node = server.Appear(cfg)
	log.Info().Str("id", n.NodeID()).Str("kind", n.Kind()).Msg("inspector started")
	return n.Serve()
}

// loadMessages reads a TOML message file, or JSON records when the path
// ends in .json or is "-".
func loadMessages(path string, stdin io.Reader) ([]protocol.Message, error) {
	if path != "-" && !strings.EqualFold(filepath.Ext(path), ".json") {
		file, err := config.LoadMessageFile(path)
		if err != nil {
			return nil, err
		}
		return file.Build()
	}

	data, err := readInput(path, stdin)
	if err != nil {
		return nil, err
	}
	var records []codec.Record
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	msgs := make([]protocol.Message, 0, len(records))
	for i, rec := range records {
		msg, err := rec.Message()
		if err != nil {
			return nil, fmt.Errorf("records[%d] invalid: %w", i, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
