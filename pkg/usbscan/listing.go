package usbscan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// listingLexer tokenizes lsusb's default one-line-per-device format:
//
//	Bus 001 Device 004: ID 0d28:0204 ARM DAPLink CMSIS-DAP
//
// Everything after the ID pair is free text, so the lexer switches state
// there and captures the rest of the line whole.
var listingLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "EOL", Pattern: `\r?\n`},
		{Name: "Whitespace", Pattern: `[ \t]+`},
		{Name: "USBID", Pattern: `[0-9a-fA-F]{4}:[0-9a-fA-F]{4}`, Action: lexer.Push("Description")},
		{Name: "Number", Pattern: `[0-9]+`},
		{Name: "Colon", Pattern: `:`},
		{Name: "Word", Pattern: `[^\s]+`},
	},
	"Description": {
		{Name: "EOL", Pattern: `\r?\n`, Action: lexer.Pop()},
		{Name: "Whitespace", Pattern: `[ \t]+`},
		{Name: "Text", Pattern: `[^\n]+`},
	},
})

type listing struct {
	Lines []listingLine `parser:"( @@ | EOL )*"`
}

// Bus and address stay strings: lsusb zero-pads them ("008") and nothing
// downstream does arithmetic on either.
type listingLine struct {
	Bus     string `parser:"'Bus' @Number"`
	Address string `parser:"'Device' @Number ':'"`
	ID      string `parser:"'ID' @USBID"`
	Name    string `parser:"@Text? EOL?"`
}

var listingParser = participle.MustBuild[listing](
	participle.Lexer(listingLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// ParseListing converts lsusb output into devices. Lines are returned in
// listing order; bus and address are parsed but only identity survives,
// since presence matching never cares where a device is plugged in.
func ParseListing(text string) ([]Device, error) {
	lst, err := listingParser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	devs := make([]Device, 0, len(lst.Lines))
	for _, ln := range lst.Lines {
		vid, pid, err := splitID(ln.ID)
		if err != nil {
			return nil, err
		}
		devs = append(devs, Device{
			VendorID:    vid,
			ProductID:   pid,
			Description: strings.TrimSpace(ln.Name),
		})
	}
	return devs, nil
}

func splitID(id string) (uint16, uint16, error) {
	v, p, ok := strings.Cut(id, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed ID token %q", id)
	}
	vid, err := strconv.ParseUint(v, 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed vendor ID %q: %w", v, err)
	}
	pid, err := strconv.ParseUint(p, 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed product ID %q: %w", p, err)
	}
	return uint16(vid), uint16(pid), nil
}
