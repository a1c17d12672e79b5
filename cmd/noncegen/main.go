// Command noncegen prints the frame nonce a remote user would present, for
// checking partner interop by hand.
//
//	noncegen -u 42 -a frame-7 [-b 1000] [-l 1440] [-g hmac-md5]
//
// The token secret is read from the terminal without echo, or from the
// first line of stdin when it is not a terminal.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/framegate/internal/common"
	"github.com/dmitrijs2005/framegate/internal/nonce"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdin *os.File, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("noncegen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	remoteID := fs.Int64("u", 0, "remote user id")
	action := fs.String("a", nonce.UnscopedAction, "nonce action")
	tick := fs.Int64("b", 0, "tick to generate for (0 = current)")
	lifetime := fs.Int("l", int(nonce.DefaultLifetime.Minutes()), "nonce lifetime (in minutes)")
	algorithm := fs.String("g", nonce.HashHMACMD5, "hash algorithm (hmac-md5, blake3)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *remoteID == 0 {
		return errors.New("remote user id (-u) is required")
	}

	hasher, err := nonce.HasherByName(*algorithm)
	if err != nil {
		return err
	}

	secret, err := readSecret(stdin, stderr)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	if *tick == 0 {
		*tick = nonce.Tick(time.Now(), time.Duration(*lifetime)*time.Minute)
	}

	fmt.Fprintf(stdout, "%s\ttick=%d\taction=%s\n", nonce.Compute(hasher, secret, *tick, *action, *remoteID), *tick, *action)
	return nil
}

func readSecret(stdin *os.File, stderr io.Writer) ([]byte, error) {
	fd := int(stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(stderr, "Token secret: ")
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(stderr)
		if err != nil {
			return nil, fmt.Errorf("read secret: %w", err)
		}
		return secret, nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read secret: %w", err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return nil, errors.New("empty secret")
	}
	return []byte(secret), nil
}
