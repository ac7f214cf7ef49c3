package hw

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IIOSampler reads the two analog channels from a sysfs Industrial I/O ADC
// (e.g. an MCP3008/ADS1015 hat exposed as iio:device0). Each channel is
// published as in_voltageN_raw plus a shared in_voltage_scale that converts
// raw counts to millivolts.
type IIOSampler struct {
	vrefPath   string
	signalPath string
	scale      float64
}

// NewIIOSampler opens the IIO device directory and resolves the raw-value
// paths for the vref and signal channels.
func NewIIOSampler(device string, chanVref, chanSignal int) (*IIOSampler, error) {
	return newIIOSamplerAt(filepath.Join("/sys/bus/iio/devices", device), chanVref, chanSignal)
}

func newIIOSamplerAt(dir string, chanVref, chanSignal int) (*IIOSampler, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("open iio device %s: %w", dir, err)
	}

	s := &IIOSampler{
		vrefPath:   filepath.Join(dir, fmt.Sprintf("in_voltage%d_raw", chanVref)),
		signalPath: filepath.Join(dir, fmt.Sprintf("in_voltage%d_raw", chanSignal)),
		scale:      1.0,
	}

	// Scale is optional; without it raw counts are taken as millivolts.
	if data, err := os.ReadFile(filepath.Join(dir, "in_voltage_scale")); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64); err == nil && v > 0 {
			s.scale = v
		}
	}

	return s, nil
}

// ReadMillivolts reads both channels. Each call performs exactly one read
// per channel.
func (s *IIOSampler) ReadMillivolts() (uint16, uint16, error) {
	vref, err := s.readChannel(s.vrefPath)
	if err != nil {
		return 0, 0, fmt.Errorf("read vref: %w", err)
	}
	signal, err := s.readChannel(s.signalPath)
	if err != nil {
		return 0, 0, fmt.Errorf("read signal: %w", err)
	}
	return vref, signal, nil
}

func (s *IIOSampler) readChannel(path string) (uint16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	raw, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	mv := raw * s.scale
	if mv < 0 {
		mv = 0
	}
	if mv > 65535 {
		mv = 65535
	}
	return uint16(mv), nil
}

// Close releases no resources; sysfs files are opened per read.
func (s *IIOSampler) Close() error {
	return nil
}
