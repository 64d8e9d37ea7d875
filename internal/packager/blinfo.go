package packager

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// BLInfo is the subset of an add-on's bl_info dictionary shown in build
// summaries.
type BLInfo struct {
	Name    string
	Version []int
	Blender []int
}

var (
	blInfoBlock  = regexp.MustCompile(`(?s)bl_info\s*=\s*\{(.*?)\n\}`)
	blInfoString = regexp.MustCompile(`"(\w+)"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	blInfoTuple  = regexp.MustCompile(`"(\w+)"\s*:\s*\(([\d\s,]*)\)`)
)

// ReadBLInfo parses bl_info from the add-on's __init__.py.
func ReadBLInfo(path string) (BLInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BLInfo{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseBLInfo(string(data))
}

// ParseBLInfo extracts name, version and blender from Python source.
func ParseBLInfo(source string) (BLInfo, error) {
	block := blInfoBlock.FindStringSubmatch(source)
	if block == nil {
		return BLInfo{}, errors.New("bl_info dictionary not found")
	}
	var info BLInfo
	for _, m := range blInfoString.FindAllStringSubmatch(block[1], -1) {
		if m[1] == "name" {
			info.Name = m[2]
		}
	}
	for _, m := range blInfoTuple.FindAllStringSubmatch(block[1], -1) {
		values, err := parseTuple(m[2])
		if err != nil {
			return BLInfo{}, fmt.Errorf("bl_info %s: %w", m[1], err)
		}
		switch m[1] {
		case "version":
			info.Version = values
		case "blender":
			info.Blender = values
		}
	}
	if info.Name == "" {
		return BLInfo{}, errors.New("bl_info has no name")
	}
	return info, nil
}

func parseTuple(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// JoinVersion renders a version tuple as dotted text, e.g. (3, 0, 0) as "3.0.0".
func JoinVersion(parts []int) string {
	if len(parts) == 0 {
		return "unknown"
	}
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = strconv.Itoa(p)
	}
	return strings.Join(strs, ".")
}
