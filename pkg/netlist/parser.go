package netlist

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type NetlistData struct {
	Title    string
	Buses    []BusDef  // in file order
	Elements []Element // in file order
}

type BusDef struct {
	Name      string
	NominalKV float64
	Line      int
}

type Element struct {
	Type   string             // T, L, G or P
	Name   string             // Part name
	Nodes  []string           // Bus names
	Params map[string]float64 // keyword values, lower-case keys
	Line   int
}

// Param returns the keyword value or def when absent.
func (e Element) Param(key string, def float64) float64 {
	if v, ok := e.Params[key]; ok {
		return v
	}
	return def
}

var unitMap = map[string]float64{
	"T":   1e12,  // tera
	"G":   1e9,   // giga
	"meg": 1e6,   // mega
	"M":   1e6,   // mega, accepted for MW/MVAr values
	"K":   1e3,   // kilo
	"k":   1e3,   // kilo
	"m":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

// Allowed keywords per element type.
var elementParams = map[string][]string{
	"T": {"r", "x", "g", "b"},
	"L": {"r", "x", "g", "b"},
	"G": {"mw", "v"},
	"P": {"mw", "mvar"},
}

var (
	valueRe = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)(meg|[TGMKkmunpf])?$`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Parse reads a case file. The first line is the title.
//
//	.bus <name> <kV>
//	T<name> <bus1> <bus2> r=.. x=.. [g=..] [b=..]   transformer
//	L<name> <bus1> <bus2> r=.. x=.. [g=..] [b=..]   transmission line
//	G<name> <bus> [mw=..] [v=..]                    generator
//	P<name> <bus> [mw=..] [mvar=..]                 load
//
// '*' starts a comment, a leading '+' continues the previous line.
func Parse(input string) (*NetlistData, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	data := &NetlistData{}

	lineNo := 0
	if scanner.Scan() {
		lineNo++
		data.Title = strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "*"))
	}

	var current string
	currentLine := 0
	flush := func() error {
		if current == "" {
			return nil
		}
		err := parseLine(data, current, currentLine)
		current = ""
		return err
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if idx := strings.Index(line, "*"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "+") {
			if current == "" {
				return nil, fmt.Errorf("line %d: continuation without a statement", lineNo)
			}
			current += " " + strings.TrimSpace(line[1:])
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}
		if strings.EqualFold(line, ".end") {
			break
		}
		current = line
		currentLine = lineNo
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading netlist: %v", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return data, nil
}

func parseLine(data *NetlistData, line string, lineNo int) error {
	line = spaceRe.ReplaceAllString(line, " ")

	if strings.HasPrefix(line, ".") {
		return parseDotOperator(data, line, lineNo)
	}

	elem, err := parseElement(line, lineNo)
	if err != nil {
		return fmt.Errorf("line %d: %v", lineNo, err)
	}
	data.Elements = append(data.Elements, *elem)
	return nil
}

func parseDotOperator(data *NetlistData, line string, lineNo int) error {
	fields := strings.Fields(line)

	switch strings.ToLower(fields[0]) {
	case ".bus":
		if len(fields) != 3 {
			return fmt.Errorf("line %d: .bus needs a name and a nominal kV", lineNo)
		}
		kv, err := ParseValue(fields[2])
		if err != nil {
			return fmt.Errorf("line %d: invalid nominal kV: %v", lineNo, err)
		}
		data.Buses = append(data.Buses, BusDef{Name: fields[1], NominalKV: kv, Line: lineNo})

	case ".title":
		data.Title = strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	default:
		return fmt.Errorf("line %d: unsupported command: %s", lineNo, fields[0])
	}

	return nil
}

func parseElement(line string, lineNo int) (*Element, error) {
	fields := strings.Fields(line)
	elemType := strings.ToUpper(fields[0][:1])

	allowed, ok := elementParams[elemType]
	if !ok {
		return nil, fmt.Errorf("unknown element type %q in %s", elemType, fields[0])
	}

	nodeCount := 1
	if elemType == "T" || elemType == "L" {
		nodeCount = 2
	}
	if len(fields) < 1+nodeCount {
		return nil, fmt.Errorf("%s: expected %d bus names", fields[0], nodeCount)
	}
	for _, node := range fields[1 : 1+nodeCount] {
		if strings.Contains(node, "=") {
			return nil, fmt.Errorf("%s: expected %d bus names", fields[0], nodeCount)
		}
	}

	elem := &Element{
		Type:   elemType,
		Name:   fields[0],
		Nodes:  fields[1 : 1+nodeCount],
		Params: make(map[string]float64),
		Line:   lineNo,
	}

	for _, field := range fields[1+nodeCount:] {
		pair := strings.SplitN(field, "=", 2)
		if len(pair) != 2 {
			return nil, fmt.Errorf("%s: expected key=value, got %q", elem.Name, field)
		}
		key := strings.ToLower(pair[0])
		if !contains(allowed, key) {
			return nil, fmt.Errorf("%s: unknown parameter %q", elem.Name, key)
		}
		value, err := ParseValue(pair[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", elem.Name, err)
		}
		elem.Params[key] = value
	}

	return elem, nil
}

func ParseValue(val string) (float64, error) {
	matches := valueRe.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	if matches[2] != "" {
		num *= unitMap[matches[2]]
	}

	return num, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
