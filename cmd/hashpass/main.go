// Command hashpass prints a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
//
//	echo -n 's3cret' | hashpass
//	hashpass -password 's3cret'
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ddiaz-itx/ai-interviewer/pkg"
)

var errEmptyPassword = errors.New("password must not be empty")

func main() {
	fs := flag.NewFlagSet("hashpass", flag.ExitOnError)
	password := fs.String("password", "", "password to hash (read from stdin when empty)")
	_ = fs.Parse(os.Args[1:])

	if err := run(*password, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "hashpass: %v\n", err)
		os.Exit(1)
	}
}

func run(password string, in io.Reader, out io.Writer) error {
	if password == "" {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read stdin: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return errEmptyPassword
	}
	hash, err := pkg.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}
