package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/windowless/codec"
	"github.com/wippyai/windowless/value"
)

const cborUsage = `Usage: windowless cbor <diag|encode> [flags] [file]

  diag     print CBOR data items in diagnostic notation
  encode   encode a JSON, JSONC or YAML document as CBOR

Input is read from file, or from stdin when file is absent or "-".
`

func cborCommand(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, cborUsage)
		return fmt.Errorf("missing cbor command")
	}

	var useHex bool
	var format string
	fs := pflag.NewFlagSet("windowless cbor "+args[0], pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&useHex, "hex", false, "CBOR is hex text instead of raw bytes")
	if args[0] == "encode" {
		fs.StringVar(&format, "format", "json", "input format: json (comments allowed) or yaml")
	}
	fs.Usage = func() {
		fmt.Fprint(stderr, cborUsage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	var input string
	switch fs.NArg() {
	case 0:
	case 1:
		input = fs.Arg(0)
	default:
		return fmt.Errorf("expected at most one input")
	}

	switch args[0] {
	case "diag":
		data, err := readInput(input, stdin)
		if err != nil {
			return err
		}
		if useHex {
			if data, err = hex.DecodeString(strings.Join(strings.Fields(string(data)), "")); err != nil {
				return fmt.Errorf("hex input: %w", err)
			}
		}
		return diagnoseAll(data, stdout)
	case "encode":
		data, err := readInput(input, stdin)
		if err != nil {
			return err
		}
		out, err := encodeDocument(data, format)
		if err != nil {
			return err
		}
		if useHex {
			_, err = fmt.Fprintln(stdout, hex.EncodeToString(out))
			return err
		}
		_, err = stdout.Write(out)
		return err
	}
	fmt.Fprint(stderr, cborUsage)
	return fmt.Errorf("unknown cbor command %q", args[0])
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// diagnoseAll prints every data item in a CBOR sequence, one per line.
func diagnoseAll(data []byte, w io.Writer) error {
	if len(data) == 0 {
		return fmt.Errorf("no CBOR input")
	}
	for len(data) > 0 {
		s, rest, err := codec.DiagnoseFirst(data)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
		data = rest
	}
	return nil
}

// encodeDocument converts a JSON or YAML document to CBOR through the
// neutral value model, so the bytes are exactly what a host handler
// writing that value would produce.
func encodeDocument(data []byte, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json", "jsonc":
		data = jsonc.ToJSON(data)
	case "yaml", "yml":
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}
	v, err := value.FromGo(doc)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(v)
}
