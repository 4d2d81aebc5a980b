// Command mkhashset builds an hset file from a newline-delimited
// hash/size text stream: thin flag parsing and delegation into package
// encoder, per spec.md's scoping of the CLI binaries as out-of-scope for
// anything beyond their interface.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/strozfriedberg/hashset/chunk"
	"github.com/strozfriedberg/hashset/encoder"
	"github.com/strozfriedberg/hashset/hashkind"
)

func main() {
	app := &cli.App{
		Name:        "mkhashset",
		Description: "build an hset file from a newline-delimited hash[,size] text stream",
		ArgsUsage:   "--out=<path> [input-file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Required: true, Usage: "output hset file path"},
			&cli.StringFlag{Name: "name", Value: "hashset", Usage: "hashset name (FHDR.Name)"},
			&cli.StringFlag{Name: "description", Usage: "hashset description (FHDR.Description)"},
			&cli.StringFlag{Name: "kind", Value: "MD5", Usage: "hash kind of the input column (MD5, SHA1, SHA2-256, ...)"},
			&cli.BoolFlag{Name: "with-size", Usage: "each input line also carries a comma-separated decimal size"},
			&cli.BoolFlag{Name: "allow-duplicates", Usage: "permit duplicate hash values instead of failing the build"},
			&cli.BoolFlag{Name: "filter", Usage: "build an FLTR binary-fuse prefilter for the hash column"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		klog.Exit(err)
	}
}

func run(c *cli.Context) error {
	kind, ok := kindByName(c.String("kind"))
	if !ok {
		return fmt.Errorf("mkhashset: unrecognised hash kind %q", c.String("kind"))
	}
	width, ok := kind.Width()
	if !ok {
		return fmt.Errorf("mkhashset: hash kind %s has no fixed width", kind)
	}

	fields := []chunk.FieldDescriptor{{Kind: kind, Name: "hash", Width: uint64(width)}}
	withSize := c.Bool("with-size")
	if withSize {
		fields = append(fields, chunk.FieldDescriptor{Kind: hashkind.SIZE, Name: "size", Width: 8})
	}

	var opts []encoder.Option
	if c.Bool("allow-duplicates") {
		opts = append(opts, encoder.WithAllowDuplicateHashes())
	}
	if c.Bool("filter") {
		opts = append(opts, encoder.WithFilter(0))
	}

	b, err := encoder.NewBuilder(c.String("name"), c.String("description"), fields, opts...)
	if err != nil {
		return fmt.Errorf("mkhashset: %w", err)
	}

	in := os.Stdin
	if c.Args().Len() > 0 {
		f, err := os.Open(c.Args().First())
		if err != nil {
			return fmt.Errorf("mkhashset: open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	lineNo := 0
	recordCount := 0
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rec, err := parseLine(line, width, withSize)
		if err != nil {
			return fmt.Errorf("mkhashset: line %d: %w", lineNo, err)
		}
		if err := b.Insert(rec); err != nil {
			return fmt.Errorf("mkhashset: line %d: %w", lineNo, err)
		}
		recordCount++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("mkhashset: read input: %w", err)
	}

	out, err := os.Create(c.String("out"))
	if err != nil {
		return fmt.Errorf("mkhashset: create output: %w", err)
	}
	defer out.Close()
	if err := b.SealAndClose(context.Background(), out); err != nil {
		os.Remove(c.String("out"))
		return fmt.Errorf("mkhashset: %w", err)
	}
	klog.Infof("mkhashset: wrote %s (%s records)", c.String("out"), humanize.Comma(int64(recordCount)))
	return nil
}

func parseLine(line string, width int, withSize bool) (chunk.Record, error) {
	hashPart := line
	sizePart := ""
	if withSize {
		idx := strings.IndexByte(line, ',')
		if idx < 0 {
			return nil, fmt.Errorf("expected hash,size, got %q", line)
		}
		hashPart, sizePart = line[:idx], line[idx+1:]
	}

	hashBytes, err := hex.DecodeString(hashPart)
	if err != nil {
		return nil, fmt.Errorf("invalid hex hash %q: %w", hashPart, err)
	}
	if len(hashBytes) != width {
		return nil, fmt.Errorf("hash %q is %d bytes, want %d", hashPart, len(hashBytes), width)
	}

	rec := chunk.Record{{Present: true, Bytes: hashBytes}}
	if withSize {
		n, err := strconv.ParseUint(sizePart, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("size %q does not parse as unsigned decimal: %w", sizePart, err)
		}
		sizeBytes := make([]byte, 8)
		for i := 0; i < 8; i++ {
			sizeBytes[i] = byte(n >> (8 * i))
		}
		rec = append(rec, chunk.Field{Present: true, Bytes: sizeBytes})
	}
	return rec, nil
}

func kindByName(s string) (hashkind.Kind, bool) {
	switch strings.ToUpper(s) {
	case "MD5":
		return hashkind.MD5, true
	case "SHA1", "SHA-1":
		return hashkind.SHA1, true
	case "SHA2-224", "SHA224":
		return hashkind.SHA2_224, true
	case "SHA2-256", "SHA256":
		return hashkind.SHA2_256, true
	case "SHA2-384", "SHA384":
		return hashkind.SHA2_384, true
	case "SHA2-512", "SHA512":
		return hashkind.SHA2_512, true
	case "SHA3-224":
		return hashkind.SHA3_224, true
	case "SHA3-256":
		return hashkind.SHA3_256, true
	case "SHA3-384":
		return hashkind.SHA3_384, true
	case "SHA3-512":
		return hashkind.SHA3_512, true
	case "BLAKE3":
		return hashkind.BLAKE3, true
	case "QUICKMD5":
		return hashkind.QUICKMD5, true
	default:
		return 0, false
	}
}
