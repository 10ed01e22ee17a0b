package ptd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// Line categories of the PTD export format. One block per tendon:
//
//	Tendon No. 1
//	Length :  12.345m
//	End Point co-orinates, start: ( 100.0, 200.0 ) end: ( 300.0, 200.0 )
//	Type    : 1
//	Type of strands : 12.7
//	Number of strands : 3
//	No.,    L:5mm,    H:5mm,    Rs,    Rh
//	1,      0.000,    0.000,    0.000,  0.000
//	...
//
// Delimiter usage varies slightly between PTD versions, so we trim whitespace
// and rely on the sentinel headings only. First match wins, in declaration
// order.
var (
	reTendonNo    = regexp.MustCompile(`^Tendon No\.\s*(\d+)`)
	reLength      = regexp.MustCompile(`^Length\s*:\s*(\d+\.\d+)m`)
	reCoords      = regexp.MustCompile(`(?i)^End Point co-orinates.*start:\s*\(([^)]+)\)\s*end:\s*\(([^)]+)\)`)
	reTendonType  = regexp.MustCompile(`^Type\s*:\s*(\d+)`)
	reStrandType  = regexp.MustCompile(`^Type of strands\s*:\s*([\d.]+)`)
	reStrandCount = regexp.MustCompile(`^Number of strands\s*:\s*(\d+)`)
	reStartAnchor = regexp.MustCompile(`(?i)^Start\s*:\s*(Live End|Dead End)`)
	reEndAnchor   = regexp.MustCompile(`(?i)^End\s*:\s*(Live End|Dead End)`)
	reTableStart  = regexp.MustCompile(`(?i)No\.,`)
	reTableRow    = regexp.MustCompile(`^(\d+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+)`)
)

const mmPerM = 1000.0

// ParseFile reads and parses the export at path.
func ParseFile(path string, log *zap.Logger) (TendonSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("unable to read export: %w", err)}
	}
	defer f.Close()
	return Parse(f, log)
}

// Parse runs a single forward pass over the export. The parser keeps at most
// one open record: a "Tendon No." heading closes the previous record and
// opens the next, end of input closes the last one. Lines before the first
// heading are ignored.
func Parse(r io.Reader, log *zap.Logger) (TendonSet, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var (
		tendons TendonSet
		tendon  *Tendon
		inTable bool
		lineNo  int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if m := reTendonNo.FindStringSubmatch(line); m != nil {
			if tendon != nil {
				tendons = append(tendons, tendon)
			}
			id, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: err}
			}
			tendon = newTendon(id)
			inTable = false
			continue
		}
		if tendon == nil {
			continue
		}

		if m := reLength.FindStringSubmatch(line); m != nil {
			v, err := metresToMM(m[1])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: err}
			}
			tendon.Length = v
			continue
		}
		if m := reCoords.FindStringSubmatch(line); m != nil {
			start, err := coordPair(m[1])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: err}
			}
			end, err := coordPair(m[2])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: err}
			}
			tendon.Start, tendon.End = start, end
			continue
		}
		if m := reTendonType.FindStringSubmatch(line); m != nil {
			v, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: err}
			}
			tendon.Type = v
			continue
		}
		if m := reStrandType.FindStringSubmatch(line); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: err}
			}
			tendon.StrandType = v
			continue
		}
		if m := reStrandCount.FindStringSubmatch(line); m != nil {
			v, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: err}
			}
			tendon.StrandCount = v
			continue
		}
		if m := reStartAnchor.FindStringSubmatch(line); m != nil {
			tendon.StartAnchor = tendon.anchorFor(isLive(m[1]))
			continue
		}
		if m := reEndAnchor.FindStringSubmatch(line); m != nil {
			tendon.EndAnchor = tendon.anchorFor(isLive(m[1]))
			continue
		}
		if reTableStart.MatchString(line) {
			inTable = true
			continue
		}
		if inTable {
			m := reTableRow.FindStringSubmatch(line)
			if m == nil {
				// end of this record's profile table
				inTable = false
				continue
			}
			dist, err := metresToMM(m[2])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: err}
			}
			height, err := strconv.ParseFloat(m[3], 64)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: err}
			}
			tendon.Points = append(tendon.Points, ProfilePoint{
				Distance: dist,
				Height:   int(height * mmPerM),
			})
			continue
		}

		log.Debug("Ignoring unrecognized export line", zap.Int("line", lineNo))
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("unable to read export: %w", err)}
	}

	if tendon != nil {
		tendons = append(tendons, tendon)
	}

	log.Debug("Export parsed", zap.Int("tendons", len(tendons)))
	return tendons, nil
}

func isLive(marker string) bool {
	return strings.Contains(strings.ToLower(marker), "live")
}

func metresToMM(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return v * mmPerM, nil
}

func coordPair(raw string) (orb.Point, error) {
	xs, ys, ok := strings.Cut(raw, ",")
	if !ok {
		return orb.Point{}, fmt.Errorf("malformed coordinate pair %q", raw)
	}
	x, err := metresToMM(strings.TrimSpace(xs))
	if err != nil {
		return orb.Point{}, err
	}
	y, err := metresToMM(strings.TrimSpace(ys))
	if err != nil {
		return orb.Point{}, err
	}
	return orb.Point{x, y}, nil
}
