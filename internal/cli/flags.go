package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/jess/internal/domain"
	"github.com/alexanderramin/jess/internal/export"
	"github.com/spf13/pflag"
)

var (
	_ pflag.Value = (*modeFlag)(nil)
	_ pflag.Value = (*formatFlag)(nil)
)

// modeFlag parses --mode into a ResponseMode.
type modeFlag struct {
	mode domain.ResponseMode
}

func (f *modeFlag) String() string { return string(f.mode) }
func (f *modeFlag) Type() string   { return "simple|dual" }

func (f *modeFlag) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	mode, ok := domain.ParseResponseMode(s)
	if !ok || s == "" {
		return fmt.Errorf("unknown response mode %q", s)
	}
	f.mode = mode
	return nil
}

// formatFlag parses --format into an export format.
type formatFlag struct {
	format export.Format
}

func (f *formatFlag) String() string { return string(f.format) }
func (f *formatFlag) Type() string   { return "md|rtf|html|txt" }

func (f *formatFlag) Set(s string) error {
	format, err := export.ParseFormat(s)
	if err != nil {
		return err
	}
	f.format = format
	return nil
}
