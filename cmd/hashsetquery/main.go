// Command hashsetquery opens an hset file and answers membership and
// set-algebra queries against it: thin flag parsing and delegation into
// packages hset and setalgebra.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/strozfriedberg/hashset/hset"
	"github.com/strozfriedberg/hashset/setalgebra"
)

func main() {
	app := &cli.App{
		Name:        "hashsetquery",
		Description: "query and combine hset files",
		Commands: []*cli.Command{
			containsCmd(),
			mergeCmd(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		klog.Exit(err)
	}
}

func containsCmd() *cli.Command {
	return &cli.Command{
		Name:      "contains",
		Usage:     "report whether a hex-encoded hash is present in a column",
		ArgsUsage: "<hset-file> <hex-hash>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "column", Usage: "column name (defaults to the first column)"},
			&cli.BoolFlag{Name: "mmap", Usage: "open with memory-mapped I/O instead of slurping"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 2 {
				return fmt.Errorf("hashsetquery contains: expected <hset-file> <hex-hash>")
			}
			path, hexHash := c.Args().Get(0), c.Args().Get(1)
			q, err := hex.DecodeString(hexHash)
			if err != nil {
				return fmt.Errorf("hashsetquery: invalid hex hash %q: %w", hexHash, err)
			}

			r, err := open(path, c.Bool("mmap"))
			if err != nil {
				return err
			}
			defer r.Close()

			colIdx, err := columnIndex(r, c.String("column"))
			if err != nil {
				return err
			}

			if r.Contains(colIdx, q) {
				fmt.Println("true")
				return nil
			}
			fmt.Println("false")
			return nil
		},
	}
}

func mergeCmd() *cli.Command {
	var op string
	return &cli.Command{
		Name:      "merge",
		Usage:     "union/intersect/difference two hset files into a third",
		ArgsUsage: "--op=union|intersect|difference --out=<path> <left-hset-file> <right-hset-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "op", Destination: &op, Required: true},
			&cli.StringFlag{Name: "out", Required: true},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 2 {
				return fmt.Errorf("hashsetquery merge: expected <left-hset-file> <right-hset-file>")
			}
			var o setalgebra.Op
			switch op {
			case "union":
				o = setalgebra.Union
			case "intersect":
				o = setalgebra.Intersect
			case "difference":
				o = setalgebra.Difference
			default:
				return fmt.Errorf("hashsetquery merge: unrecognised --op %q", op)
			}

			l, err := hset.Open(c.Args().Get(0))
			if err != nil {
				return err
			}
			defer l.Close()
			r, err := hset.Open(c.Args().Get(1))
			if err != nil {
				return err
			}
			defer r.Close()

			out, err := os.Create(c.String("out"))
			if err != nil {
				return fmt.Errorf("hashsetquery: create output: %w", err)
			}
			defer out.Close()

			if err := setalgebra.Merge(context.Background(), l, r, o, out); err != nil {
				os.Remove(c.String("out"))
				return err
			}
			klog.Infof("hashsetquery: merged %s records with %s records (%s) into %s",
				humanize.Comma(int64(l.RecordCount())), humanize.Comma(int64(r.RecordCount())), op, c.String("out"))
			return nil
		},
	}
}

func open(path string, mmap bool) (*hset.Reader, error) {
	if mmap {
		return hset.OpenMMAP(path)
	}
	return hset.Open(path)
}

func columnIndex(r *hset.Reader, name string) (int, error) {
	if name == "" {
		if r.ColumnCount() == 0 {
			return 0, fmt.Errorf("hashsetquery: file has no columns")
		}
		return 0, nil
	}
	idx, ok := r.ColumnIndex(name)
	if !ok {
		return 0, fmt.Errorf("hashsetquery: no column named %q", name)
	}
	return idx, nil
}
