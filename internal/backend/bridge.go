package backend

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/enose-collector/internal/model"
)

// BridgeExeEnv names the environment variable that locates the bridge
// executable when no explicit path is configured.
const BridgeExeEnv = "BME69X_BRIDGE_EXE"

// requiredStatusBits must all be present for a bridge reading to be usable:
// new-data, gas-valid, heat-stable.
const requiredStatusBits = 0x80 | 0x20 | 0x10

// bridgeBackend talks to a native bridge process over newline-terminated
// ASCII commands on its standard streams.
//
// Protocol: "MEASURE <temp_c> <duration_ms>" and "EXIT" inbound;
// "READY", "DATA <ts> <temp> <pressure> <humidity> <gas> <status>",
// "ERR <message>" and "BYE" outbound.
type bridgeBackend struct {
	cmd *exec.Cmd
	in  io.WriteCloser
	out *bufio.Reader
}

// NewBridge launches the bridge executable and waits for its READY banner.
// The path argument wins over the BME69X_BRIDGE_EXE environment variable.
func NewBridge(exePath string) (Backend, error) {
	if exePath == "" {
		exePath = os.Getenv(BridgeExeEnv)
	}
	if exePath == "" {
		return nil, fmt.Errorf("bridge executable not configured; set -bridge-exe or %s", BridgeExeEnv)
	}

	cmd := exec.Command(exePath)
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge stdin pipe: %w", err)
	}
	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("bridge stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch bridge %q: %w", exePath, err)
	}

	b := &bridgeBackend{cmd: cmd, in: in, out: bufio.NewReader(outPipe)}
	if err := b.awaitReady(); err != nil {
		b.Close()
		return nil, err
	}
	log.Info().Str("exe", exePath).Msg("Bridge backend ready")
	return b, nil
}

// awaitReady consumes startup banners until READY. Informational lines
// (interface selection and the like) are skipped.
func (b *bridgeBackend) awaitReady() error {
	for {
		line, err := b.readLine()
		if err != nil {
			return err
		}
		if line == "READY" {
			return nil
		}
		if strings.HasPrefix(line, "ERR") {
			return &Error{Backend: "coines", Op: "init", Err: fmt.Errorf("bridge initialization failed: %q", line)}
		}
	}
}

func (b *bridgeBackend) ApplyAndReadStep(tempC, durationMS int) (*model.SensorReading, error) {
	if err := b.send(fmt.Sprintf("MEASURE %d %d", tempC, durationMS)); err != nil {
		return nil, err
	}
	line, err := b.readLine()
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(line, "DATA "):
		return parseDataLine(line)
	case strings.HasPrefix(line, "ERR "):
		log.Warn().
			Int("temp_c", tempC).
			Int("duration_ms", durationMS).
			Str("response", line).
			Msg("Bridge measurement error")
		return nil, fmt.Errorf("bridge measurement failed: %w", ErrNotReady)
	case strings.HasPrefix(line, "BYE"):
		return nil, &Error{Backend: "coines", Op: "measure", Err: fmt.Errorf("bridge terminated unexpectedly")}
	}
	log.Warn().Str("response", line).Msg("Unexpected bridge response")
	return nil, fmt.Errorf("unexpected bridge response %q: %w", line, ErrNotReady)
}

// parseDataLine decodes a DATA response. The payload has exactly 7
// space-separated tokens; anything else is a fatal protocol violation.
func parseDataLine(line string) (*model.SensorReading, error) {
	parts := strings.Fields(line)
	if len(parts) != 7 {
		return nil, &Error{Backend: "coines", Op: "measure", Err: fmt.Errorf("unexpected DATA payload: %q", line)}
	}

	temp, err1 := strconv.ParseFloat(parts[2], 64)
	pressure, err2 := strconv.ParseFloat(parts[3], 64)
	humidity, err3 := strconv.ParseFloat(parts[4], 64)
	gas, err4 := strconv.ParseFloat(parts[5], 64)
	status, err5 := strconv.ParseInt(parts[6], 0, 32)
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			return nil, &Error{Backend: "coines", Op: "measure", Err: fmt.Errorf("unable to parse bridge response %q: %w", line, err)}
		}
	}

	if status&requiredStatusBits != requiredStatusBits {
		log.Warn().Str("status", fmt.Sprintf("0x%02x", status)).Msg("Bridge reading missing required status bits")
		return nil, fmt.Errorf("reading status 0x%02x unusable: %w", status, ErrNotReady)
	}

	return &model.SensorReading{
		Temperature:   temp,
		Pressure:      pressure,
		Humidity:      humidity,
		GasResistance: gas,
		HeatStable:    status&0x10 != 0,
		Status:        int(status),
	}, nil
}

func (b *bridgeBackend) send(command string) error {
	if _, err := io.WriteString(b.in, command+"\n"); err != nil {
		return &Error{Backend: "coines", Op: "send", Err: err}
	}
	return nil
}

func (b *bridgeBackend) readLine() (string, error) {
	line, err := b.out.ReadString('\n')
	if err != nil && line == "" {
		code := -1
		if b.cmd != nil && b.cmd.ProcessState != nil {
			code = b.cmd.ProcessState.ExitCode()
		}
		return "", &Error{Backend: "coines", Op: "read", Err: fmt.Errorf("bridge process exited unexpectedly (code=%d): %w", code, err)}
	}
	return strings.TrimSpace(line), nil
}

// Close asks the bridge to exit and reaps the process, killing it if it
// does not leave within a second.
func (b *bridgeBackend) Close() error {
	if b.in != nil {
		_, _ = io.WriteString(b.in, "EXIT\n")
		_, _ = b.out.ReadString('\n') // BYE, best effort
		b.in.Close()
	}
	if b.cmd == nil || b.cmd.Process == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- b.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(time.Second):
		_ = b.cmd.Process.Kill()
		<-done
	}
	return nil
}
