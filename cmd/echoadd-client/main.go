// Kunhua Huang 2026

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ecstasoy/echoadd/pkg/client"
	"github.com/ecstasoy/echoadd/pkg/protocol"
)

const usage = `usage: echoadd-client [flags] echo <text>...
       echoadd-client [flags] add <a> <b>`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "echoadd-client:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("echoadd-client", flag.ContinueOnError)
	addr := fs.String("addr", "127.0.0.1:8080", "server address")
	codecName := fs.String("codec", "protobuf", "protobuf or json")
	compressName := fs.String("compress", "none", "none or gzip")
	framingName := fs.String("framing", "raw", "raw or length-prefixed")
	maxFrame := fs.Int("max-frame-size", 1024*1024, "largest accepted length-prefixed frame")
	timeout := fs.Duration("timeout", 5*time.Second, "dial and call timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	codecType, err := protocol.ParseCodecType(*codecName)
	if err != nil {
		return err
	}
	compressType, err := protocol.ParseCompressType(*compressName)
	if err != nil {
		return err
	}
	framing, err := protocol.ParseFramingType(*framingName)
	if err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New(usage)
	}

	call, err := command(rest[0], rest[1:])
	if err != nil {
		return err
	}

	c, err := client.Dial(ctx, *addr,
		client.WithCodec(codecType, compressType),
		client.WithFraming(framing, *maxFrame),
		client.WithDialTimeout(*timeout),
		client.WithTimeout(*timeout),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	result, err := call(ctx, c)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, result)
	return err
}

type callFunc func(context.Context, *client.Client) (string, error)

func command(name string, args []string) (callFunc, error) {
	switch name {
	case "echo":
		content := strings.Join(args, " ")
		return func(ctx context.Context, c *client.Client) (string, error) {
			return c.Echo(ctx, content)
		}, nil

	case "add":
		if len(args) != 2 {
			return nil, errors.New(usage)
		}
		a, err := parseInt32(args[0])
		if err != nil {
			return nil, err
		}
		b, err := parseInt32(args[1])
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, c *client.Client) (string, error) {
			sum, err := c.Add(ctx, a, b)
			if err != nil {
				return "", err
			}
			return strconv.FormatInt(int64(sum), 10), nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown command %q\n%s", name, usage)
	}
}

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid int32 %q: %w", s, err)
	}
	return int32(v), nil
}
