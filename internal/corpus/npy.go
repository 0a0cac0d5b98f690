package corpus

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Minimal NPY codec for the embedding matrix artifact: 2-D little-endian
// float32/float64 arrays in C order, NPY format versions 1.x and 2.x.

const npyMagic = "\x93NUMPY"

// npyMaxElements caps the allocation implied by the header shape, so a
// corrupt artifact cannot make the loader over-allocate.
const npyMaxElements = 1 << 28

var (
	npyDescrRe   = regexp.MustCompile(`'descr':\s*'([^']+)'`)
	npyFortranRe = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	npyShapeRe   = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
)

// ReadMatrix decodes an NPY file into a row-major float32 matrix.
func ReadMatrix(r io.Reader) ([][]float32, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read npy preamble: %w", err)
	}
	if string(header[:6]) != npyMagic {
		return nil, fmt.Errorf("not an npy file: bad magic %q", header[:6])
	}
	major := header[6]

	var headerLen int
	switch major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("read npy header length: %w", err)
		}
		headerLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("read npy header length: %w", err)
		}
		headerLen = int(n)
	default:
		return nil, fmt.Errorf("unsupported npy version %d", major)
	}

	dict := make([]byte, headerLen)
	if _, err := io.ReadFull(r, dict); err != nil {
		return nil, fmt.Errorf("read npy header: %w", err)
	}

	descr, rows, cols, err := parseNpyHeader(string(dict))
	if err != nil {
		return nil, err
	}

	var itemSize int
	switch descr {
	case "<f4":
		itemSize = 4
	case "<f8":
		itemSize = 8
	default:
		return nil, fmt.Errorf("unsupported npy dtype %q (want <f4 or <f8)", descr)
	}

	data := make([]byte, rows*cols*itemSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read npy data (%d x %d %s): %w", rows, cols, descr, err)
	}

	out := make([][]float32, rows)
	for i := 0; i < rows; i++ {
		row := make([]float32, cols)
		for j := 0; j < cols; j++ {
			off := (i*cols + j) * itemSize
			if itemSize == 4 {
				row[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			} else {
				row[j] = float32(math.Float64frombits(binary.LittleEndian.Uint64(data[off:])))
			}
		}
		out[i] = row
	}
	return out, nil
}

func parseNpyHeader(dict string) (descr string, rows, cols int, err error) {
	m := npyDescrRe.FindStringSubmatch(dict)
	if m == nil {
		return "", 0, 0, fmt.Errorf("npy header missing descr: %q", dict)
	}
	descr = m[1]

	m = npyFortranRe.FindStringSubmatch(dict)
	if m == nil {
		return "", 0, 0, fmt.Errorf("npy header missing fortran_order: %q", dict)
	}
	if m[1] == "True" {
		return "", 0, 0, fmt.Errorf("fortran-ordered npy arrays are not supported")
	}

	m = npyShapeRe.FindStringSubmatch(dict)
	if m == nil {
		return "", 0, 0, fmt.Errorf("npy header missing shape: %q", dict)
	}
	dims := make([]int, 0, 2)
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, convErr := strconv.Atoi(part)
		if convErr != nil {
			return "", 0, 0, fmt.Errorf("npy shape %q: %w", m[1], convErr)
		}
		dims = append(dims, n)
	}
	if len(dims) != 2 {
		return "", 0, 0, fmt.Errorf("npy array must be 2-D, got shape %v", dims)
	}
	if dims[0] < 0 || dims[1] < 0 {
		return "", 0, 0, fmt.Errorf("npy shape (%d, %d) has a negative dimension", dims[0], dims[1])
	}
	if dims[0] > npyMaxElements || dims[1] > npyMaxElements ||
		int64(dims[0])*int64(dims[1]) > npyMaxElements {
		return "", 0, 0, fmt.Errorf("npy shape (%d, %d) exceeds %d elements", dims[0], dims[1], npyMaxElements)
	}
	return descr, dims[0], dims[1], nil
}

// WriteMatrix encodes a row-major float32 matrix as NPY v1 ('<f4', C order).
// Every row must have the same length.
func WriteMatrix(w io.Writer, m [][]float32) error {
	rows := len(m)
	cols := 0
	if rows > 0 {
		cols = len(m[0])
	}
	for i, row := range m {
		if len(row) != cols {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), cols)
		}
	}

	dict := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", rows, cols)
	// Pad so the full preamble is a multiple of 64 bytes, newline-terminated.
	preamble := len(npyMagic) + 2 + 2
	total := preamble + len(dict) + 1
	if pad := 64 - total%64; pad < 64 {
		dict += strings.Repeat(" ", pad)
	}
	dict += "\n"

	var buf bytes.Buffer
	buf.WriteString(npyMagic)
	buf.WriteByte(1)
	buf.WriteByte(0)
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(dict))); err != nil {
		return err
	}
	buf.WriteString(dict)
	for _, row := range m {
		for _, v := range row {
			if err := binary.Write(&buf, binary.LittleEndian, math.Float32bits(v)); err != nil {
				return err
			}
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}
