package backend

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }

func newTestBridge(responses string) (*bridgeBackend, *bytes.Buffer) {
	sent := &bytes.Buffer{}
	return &bridgeBackend{
		in:  nopWriteCloser{sent},
		out: bufio.NewReader(strings.NewReader(responses)),
	}, sent
}

func TestParseDataLine(t *testing.T) {
	r, err := parseDataLine("DATA 1700000000.5 23.41 101325.0 45.2 812345.6 0xB0")
	require.NoError(t, err)
	assert.Equal(t, 23.41, r.Temperature)
	assert.Equal(t, 101325.0, r.Pressure)
	assert.Equal(t, 45.2, r.Humidity)
	assert.Equal(t, 812345.6, r.GasResistance)
	assert.True(t, r.HeatStable)
	assert.Equal(t, 0xB0, r.Status)
}

func TestParseDataLineDecimalStatus(t *testing.T) {
	r, err := parseDataLine("DATA 0 20 100000 40 500000 176")
	require.NoError(t, err)
	assert.Equal(t, 176, r.Status)
}

func TestParseDataLineWrongTokenCount(t *testing.T) {
	_, err := parseDataLine("DATA 1700000000.5 23.41 101325.0 45.2 812345.6")
	require.Error(t, err)

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "coines", be.Backend)
	assert.False(t, IsTransient(err))
}

func TestParseDataLineBadNumber(t *testing.T) {
	_, err := parseDataLine("DATA 0 nope 101325.0 45.2 812345.6 0xB0")
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestParseDataLineMissingStatusBits(t *testing.T) {
	// Gas-valid bit absent.
	_, err := parseDataLine("DATA 0 23.41 101325.0 45.2 812345.6 0x90")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotReady))
}

func TestAwaitReadySkipsBanners(t *testing.T) {
	b, _ := newTestBridge("coines bridge v1.2\ninterface: USB\nREADY\n")
	require.NoError(t, b.awaitReady())
}

func TestAwaitReadyErr(t *testing.T) {
	b, _ := newTestBridge("ERR no device found\n")
	err := b.awaitReady()
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestBridgeApplyAndReadStep(t *testing.T) {
	b, sent := newTestBridge("DATA 1700000000.5 23.41 101325.0 45.2 812345.6 0xB0\n")
	r, err := b.ApplyAndReadStep(320, 140)
	require.NoError(t, err)
	assert.Equal(t, "MEASURE 320 140\n", sent.String())
	assert.Equal(t, 23.41, r.Temperature)
}

func TestBridgeApplyAndReadStepErrResponse(t *testing.T) {
	b, _ := newTestBridge("ERR sensor timeout\n")
	_, err := b.ApplyAndReadStep(320, 140)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotReady))
}

func TestBridgeApplyAndReadStepBye(t *testing.T) {
	b, _ := newTestBridge("BYE\n")
	_, err := b.ApplyAndReadStep(320, 140)
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestBridgeReadLineEOF(t *testing.T) {
	b, _ := newTestBridge("")
	_, err := b.readLine()
	require.Error(t, err)

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "read", be.Op)
}
