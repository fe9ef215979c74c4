// Package main prepares the TLS material for the account server: a CA,
// a server certificate and one client certificate per operator, written
// under the certs directory.
//
// Usage:
//
//	certgen -dir certs -hosts localhost,127.0.0.1 -operators alice,bob
//
// An existing CA in the directory is reused, so operators can be added later.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/GophAccounts/internal/certgen"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	dir := fs.String("dir", "certs", "output directory")
	hosts := fs.String("hosts", "localhost", "comma-separated server host names or IPs")
	operators := fs.String("operators", "", "comma-separated operator names to issue client certificates for")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ca, created, err := loadOrCreateCA(*dir)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "created CA in %s\n", *dir)
		certPEM, keyPEM, err := ca.IssueServer(splitList(*hosts))
		if err != nil {
			return err
		}
		if err := certgen.WritePair(*dir, "server", certPEM, keyPEM); err != nil {
			return err
		}
		fmt.Fprintf(out, "issued server certificate for %s\n", *hosts)
	}

	for _, name := range splitList(*operators) {
		certPEM, keyPEM, err := ca.IssueOperator(name)
		if err != nil {
			return err
		}
		if err := certgen.WritePair(*dir, name, certPEM, keyPEM); err != nil {
			return err
		}
		fmt.Fprintf(out, "issued operator certificate for %s\n", name)
	}
	return nil
}

func loadOrCreateCA(dir string) (*certgen.Authority, bool, error) {
	certPath := filepath.Join(dir, "ca.crt")
	keyPath := filepath.Join(dir, "ca.key")

	if _, err := os.Stat(certPath); err == nil {
		ca, err := certgen.LoadAuthority(certPath, keyPath)
		return ca, false, err
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}

	ca, err := certgen.NewAuthority("GophAccounts CA")
	if err != nil {
		return nil, false, err
	}
	certPEM, keyPEM, err := ca.PEM()
	if err != nil {
		return nil, false, err
	}
	if err := certgen.WritePair(dir, "ca", certPEM, keyPEM); err != nil {
		return nil, false, err
	}
	return ca, true, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
