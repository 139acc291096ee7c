package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/retroenv/retrosvd/internal/svd"
)

// registerScope converts the registers of a peripheral or cluster.
type registerScope struct {
	path   string
	prefix string // name prefix of enclosing clusters
	offset uint64 // address offset of enclosing clusters
	width  uint32 // inherited register width in bits
}

func (s registerScope) convert(nodes []registerNode) ([]svd.Register, error) {
	var registers []svd.Register

	for i, node := range nodes {
		var (
			converted []svd.Register
			err       error
		)
		if node.register != nil {
			converted, err = s.convertRegister(i, node.register)
		} else {
			converted, err = s.convertCluster(i, node.cluster)
		}
		if err != nil {
			return nil, err
		}
		registers = append(registers, converted...)
	}
	return registers, nil
}

func (s registerScope) convertRegister(index int, xr *xmlRegister) ([]svd.Register, error) {
	path := fmt.Sprintf("%s register[%d]", s.path, index)

	name, err := required(path, "name", xr.Name)
	if err != nil {
		return nil, err
	}
	path = fmt.Sprintf("%s register %s", s.path, name)

	offsetText, err := required(path, "addressOffset", xr.AddressOffset)
	if err != nil {
		return nil, err
	}
	offset, err := number(path, "addressOffset", offsetText)
	if err != nil {
		return nil, err
	}

	width, err := optionalWidth(path, xr.Size)
	if err != nil {
		return nil, err
	}
	if width == 0 {
		width = s.width
	}

	instances, err := expandDim(path, name, offset, xr.xmlDim)
	if err != nil {
		return nil, err
	}

	registers := make([]svd.Register, 0, len(instances))
	for _, inst := range instances {
		address, err := addOffset(path, "addressOffset", s.offset, inst.offset)
		if err != nil {
			return nil, err
		}
		registers = append(registers, svd.Register{
			Name:        s.prefix + inst.name,
			Offset:      address,
			Description: optional(xr.Description),
			Width:       width,
		})
	}
	return registers, nil
}

func (s registerScope) convertCluster(index int, xc *xmlCluster) ([]svd.Register, error) {
	path := fmt.Sprintf("%s cluster[%d]", s.path, index)

	name, err := required(path, "name", xc.Name)
	if err != nil {
		return nil, err
	}
	path = fmt.Sprintf("%s cluster %s", s.path, name)

	offsetText, err := required(path, "addressOffset", xc.AddressOffset)
	if err != nil {
		return nil, err
	}
	offset, err := number(path, "addressOffset", offsetText)
	if err != nil {
		return nil, err
	}

	width, err := optionalWidth(path, xc.Size)
	if err != nil {
		return nil, err
	}
	if width == 0 {
		width = s.width
	}

	instances, err := expandDim(path, name, offset, xc.xmlDim)
	if err != nil {
		return nil, err
	}

	var registers []svd.Register
	for _, inst := range instances {
		address, err := addOffset(path, "addressOffset", s.offset, inst.offset)
		if err != nil {
			return nil, err
		}
		child := registerScope{
			path:   path,
			prefix: s.prefix + inst.name + "_",
			offset: address,
			width:  width,
		}
		converted, err := child.convert(xc.Children.nodes)
		if err != nil {
			return nil, err
		}
		registers = append(registers, converted...)
	}
	return registers, nil
}

type dimInstance struct {
	name   string
	offset uint64
}

// expandDim returns the instances of a register or cluster array. Elements
// without a dim value result in a single instance.
func expandDim(path, name string, offset uint64, dim xmlDim) ([]dimInstance, error) {
	if dim.Dim == nil {
		return []dimInstance{{name: name, offset: offset}}, nil
	}

	count, err := number(path, "dim", *dim.Dim)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, &ParseError{Path: path, Field: "dim", Err: fmt.Errorf("%w: dim of 0", ErrInvalidNumber)}
	}

	incrementText, err := required(path, "dimIncrement", dim.DimIncrement)
	if err != nil {
		return nil, err
	}
	increment, err := number(path, "dimIncrement", incrementText)
	if err != nil {
		return nil, err
	}

	indices, err := dimIndices(path, dim.DimIndex, count)
	if err != nil {
		return nil, err
	}

	if last := uint64(len(indices) - 1); last > 0 && increment > (math.MaxUint64-offset)/last {
		return nil, &ParseError{
			Path:  path,
			Field: "dimIncrement",
			Err:   fmt.Errorf("%w: %d elements of 0x%x bytes exceed the address space", ErrInvalidNumber, len(indices), increment),
		}
	}

	instances := make([]dimInstance, 0, len(indices))
	for i, index := range indices {
		instances = append(instances, dimInstance{
			name:   dimName(name, index),
			offset: offset + uint64(i)*increment,
		})
	}
	return instances, nil
}

// dimIndices returns the index names of an array. Supported are comma
// separated lists, numeric ranges like 0-3 and letter ranges like A-C, the
// default is 0..count-1.
func dimIndices(path string, value *string, count uint64) ([]string, error) {
	var indices []string

	switch {
	case value == nil || strings.TrimSpace(*value) == "":
		for i := range count {
			indices = append(indices, strconv.FormatUint(i, 10))
		}

	case strings.Contains(*value, ","):
		for _, part := range strings.Split(*value, ",") {
			indices = append(indices, strings.TrimSpace(part))
		}

	default:
		from, to, found := strings.Cut(strings.TrimSpace(*value), "-")
		if !found {
			indices = []string{strings.TrimSpace(*value)}
			break
		}

		var ok bool
		indices, ok = indexRange(strings.TrimSpace(from), strings.TrimSpace(to))
		if !ok {
			return nil, &ParseError{Path: path, Field: "dimIndex", Err: fmt.Errorf("%w: '%s'", ErrInvalidNumber, *value)}
		}
	}

	if uint64(len(indices)) != count {
		return nil, &ParseError{
			Path:  path,
			Field: "dimIndex",
			Err:   fmt.Errorf("%w: %d indices for dim of %d", ErrInvalidNumber, len(indices), count),
		}
	}
	return indices, nil
}

// indexRange expands an inclusive range of decimal numbers or of single
// letters of the same case.
func indexRange(from, to string) ([]string, bool) {
	if isLetter(from) && isLetter(to) {
		first, last := from[0], to[0]
		if last < first || isUpper(first) != isUpper(last) {
			return nil, false
		}
		indices := make([]string, 0, int(last-first)+1)
		for c := first; c <= last; c++ {
			indices = append(indices, string(c))
		}
		return indices, true
	}

	first, err := strconv.ParseUint(from, 10, 32)
	if err != nil {
		return nil, false
	}
	last, err := strconv.ParseUint(to, 10, 32)
	if err != nil || last < first {
		return nil, false
	}
	indices := make([]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		indices = append(indices, strconv.FormatUint(i, 10))
	}
	return indices, true
}

func isLetter(s string) bool {
	return len(s) == 1 && (isUpper(s[0]) || (s[0] >= 'a' && s[0] <= 'z'))
}

func isUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

func dimName(name, index string) string {
	if strings.Contains(name, "[%s]") {
		return strings.ReplaceAll(name, "[%s]", index)
	}
	return strings.ReplaceAll(name, "%s", index)
}
