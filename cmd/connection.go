// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Roverlab

package cmd

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/roverlab/dynctl/pkg/dxl"
	"github.com/roverlab/dynctl/pkg/transports"
)

// openBus opens a bus over serial or WebSocket based on the global flags.
// The returned description names the connection for status output.
func openBus() (*dxl.Bus, string, error) {
	transport, desc, err := openTransport()
	if err != nil {
		return nil, "", err
	}

	cfg := dxl.Config{
		Transport: transport,
		Timeout:   busTimeout,
	}
	if verbose {
		cfg.Observer = frameLogger{}
	}

	bus, err := dxl.New(cfg)
	if err != nil {
		transport.Close()
		return nil, "", err
	}
	return bus, desc, nil
}

func openTransport() (dxl.Transport, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			pw, err := getPassword()
			if err != nil {
				return nil, "", err
			}
			password = pw
		}

		t, err := transports.DialWS(transports.WSConfig{
			URL:           wsURL,
			Username:      wsUsername,
			Password:      password,
			SkipTLSVerify: wsNoSSLVerify,
		})
		if err != nil {
			return nil, "", err
		}
		return t, fmt.Sprintf("WebSocket %s", wsURL), nil
	}

	if portName == "" {
		return nil, "", fmt.Errorf("either --port or --url must be specified")
	}

	t, err := transports.OpenSerial(transports.SerialConfig{
		Port:     portName,
		BaudRate: baudRate,
		Timeout:  busTimeout,
	})
	if err != nil {
		return nil, "", err
	}
	return t, fmt.Sprintf("%s @ %d baud", portName, baudRate), nil
}

// getPassword retrieves the bridge password from the environment or
// prompts for it without echo.
func getPassword() (string, error) {
	if pw := os.Getenv("DYNCTL_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fall back to echoed input when not attached to a terminal.
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// frameLogger logs raw bus traffic, enabled with --verbose.
type frameLogger struct{}

func (frameLogger) InstructionSent(raw []byte) {
	log.Printf("TX % X", raw)
}

func (frameLogger) StatusReceived(raw []byte) {
	log.Printf("RX % X", raw)
}

func (frameLogger) NoiseDiscarded(raw []byte) {
	log.Printf("noise (%d bytes) % X", len(raw), raw)
}
