package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const SecretKeyBytesLen = 32

// Print freshly generated token signing secrets in '.env' format
func main() {
	if err := run(os.Stdout, rand.Reader, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secrets: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, random io.Reader, args []string) error {
	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	size := fs.IntP("bytes", "b", SecretKeyBytesLen, "Secret length in bytes before hex encoding")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *size < SecretKeyBytesLen {
		return fmt.Errorf("secret must be at least %d bytes", SecretKeyBytesLen)
	}

	for _, key := range []string{"JWT_ACCESS_SECRET", "JWT_REFRESH_SECRET"} {
		secret, err := generate(random, *size)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s=%s\n", key, secret); err != nil {
			return err
		}
	}

	return nil
}

func generate(random io.Reader, size int) (string, error) {
	b := make([]byte, size)
	if _, err := io.ReadFull(random, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
