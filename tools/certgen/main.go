// Package main writes the development certificates for the demo backend
// into a directory: ca.crt/ca.key, server.crt/server.key and, when a client
// name is given, client.crt/client.key. An existing CA in the directory is
// reused so clients that already trust it keep working.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/storefront/internal/certgen"
)

const (
	caTTL   = 10 * 365 * 24 * time.Hour
	certTTL = 365 * 24 * time.Hour
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma-separated server names")
	client := flag.String("client", "", "common name of a client certificate to issue")
	flag.Parse()

	if err := run(*dir, strings.Split(*hosts, ","), *client); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Certificates generated into %s\n", *dir)
}

func run(dir string, hosts []string, client string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	ca, err := loadOrCreateCA(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"))
	if err != nil {
		return err
	}

	for i := range hosts {
		hosts[i] = strings.TrimSpace(hosts[i])
	}
	if err := ca.IssueFiles(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"),
		hosts[0], hosts, certgen.UsageServer, certTTL); err != nil {
		return fmt.Errorf("server certificate: %w", err)
	}

	if client == "" {
		return nil
	}
	if err := ca.IssueFiles(filepath.Join(dir, "client.crt"), filepath.Join(dir, "client.key"),
		client, nil, certgen.UsageClient, certTTL); err != nil {
		return fmt.Errorf("client certificate: %w", err)
	}
	return nil
}

func loadOrCreateCA(certPath, keyPath string) (*certgen.CA, error) {
	ca, err := certgen.LoadCA(certPath, keyPath)
	if err == nil {
		return ca, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	ca, err = certgen.NewCA("Storefront Dev CA", caTTL)
	if err != nil {
		return nil, err
	}
	if err := ca.Write(certPath, keyPath); err != nil {
		return nil, err
	}
	return ca, nil
}
