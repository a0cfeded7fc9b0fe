package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/crypto/ssh/terminal"

	"github.com/xitonix/xmask/geometry"
	"github.com/xitonix/xmask/pixel"
	"github.com/xitonix/xmask/transform"
)

var errInvalidArgument = errors.New("invalid argument")

// AskForConfirmation asks the user for confirmation. The user must type in "yes" or "no" and
// then press enter. It has fuzzy matching, so "y", "Y", "yes", "YES", and "Yes" all count as
// confirmations. If the input is not recognized, it will ask again. The function does not return
// until it gets a valid response from the user.
func AskForConfirmation(s string) bool {
	return askForConfirmation(os.Stdin, os.Stdout, s)
}

func askForConfirmation(in io.Reader, out io.Writer, s string) bool {
	scanner := bufio.NewScanner(in)
	msg := fmt.Sprintf("%s [y/n]?: ", s)
	for fmt.Fprint(out, msg); scanner.Scan(); fmt.Fprint(out, msg) {
		response := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if response == "y" || response == "yes" {
			return true
		} else if response == "n" || response == "no" {
			return false
		}
	}
	return false
}

// readKey reads the key from the terminal without echoing it
func readKey(prompt string) (string, error) {
	fmt.Print(prompt)
	key, err := terminal.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(key) == 0 {
		return "", fmt.Errorf("%w: the key cannot be empty", errInvalidArgument)
	}
	return string(key), nil
}

// parseArea parses an "x,y,width,height" rectangle
func parseArea(s string) (geometry.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.Rect{}, fmt.Errorf("%w: area %q must be in x,y,width,height format", errInvalidArgument, s)
	}
	var values [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return geometry.Rect{}, fmt.Errorf("%w: area %q: %s is not a number", errInvalidArgument, s, p)
		}
		values[i] = v
	}
	r := geometry.R(values[0], values[1], values[2], values[3])
	if r.X < 0 || r.Y < 0 || r.Empty() {
		return geometry.Rect{}, fmt.Errorf("%w: area %q must have a non-negative origin and a positive size", errInvalidArgument, s)
	}
	return r, nil
}

func parseAreas(list []string) ([]geometry.Rect, error) {
	areas := make([]geometry.Rect, 0, len(list))
	for _, s := range list {
		r, err := parseArea(s)
		if err != nil {
			return nil, err
		}
		areas = append(areas, r)
	}
	return areas, nil
}

// parseColour parses a #rrggbb colour. The hash is optional.
func parseColour(s string) (pixel.Pixel, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return pixel.Pixel{}, fmt.Errorf("%w: colour %q must be in #rrggbb format", errInvalidArgument, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return pixel.Pixel{}, fmt.Errorf("%w: colour %q must be in #rrggbb format", errInvalidArgument, s)
	}
	return pixel.Pixel{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// parseShift parses a "contrast:#rrggbb" colour shift. An empty string disables the shift.
func parseShift(s string) (*transform.ColorShift, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: colour shift %q must be in contrast:#rrggbb format", errInvalidArgument, s)
	}
	contrast, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: colour shift contrast %q is not a number", errInvalidArgument, parts[0])
	}
	target, err := parseColour(parts[1])
	if err != nil {
		return nil, err
	}
	shift := &transform.ColorShift{Contrast: contrast, Target: target}
	if err := shift.Validate(); err != nil {
		return nil, err
	}
	return shift, nil
}
