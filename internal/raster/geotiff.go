package raster

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/rotisserie/eris"
)

// TIFF tag IDs.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagColorMap        = 320
	tagTileWidth       = 322
	tagTileLength      = 323
	tagTileOffsets     = 324
	tagTileByteCounts  = 325
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
)

// TIFF compression codes we accept.
const (
	compressionNone       = 1
	compressionDeflate    = 8
	compressionOldDeflate = 32946
)

// Dataset is an open single-band 8-bit GeoTIFF.
type Dataset struct {
	f     *os.File
	order binary.ByteOrder

	width, height  int
	gt             GeoTransform
	palette        Palette
	compression    uint16
	tiled          bool
	blockW, blockH int
	blocksAcross   int
	blocksDown     int
	offsets        []uint64
	counts         []uint64

	// single-entry decode cache; sequential row reads hit the same
	// strip Width times in a row
	cacheIdx int
	cacheBuf []byte
}

// Open opens a GeoTIFF for reading and parses its first IFD.
func Open(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	d, err := parseDataset(f)
	if err != nil {
		f.Close()
		return nil, eris.Wrapf(err, "raster: parse %s", path)
	}
	return d, nil
}

// Close releases the underlying file handle.
func (d *Dataset) Close() error {
	return d.f.Close()
}

// Size returns the raster dimensions in pixels.
func (d *Dataset) Size() (width, height int) {
	return d.width, d.height
}

// GeoTransform returns the raster's affine pixel-to-geographic mapping.
func (d *Dataset) GeoTransform() GeoTransform {
	return d.gt
}

// BlockSize returns the raster's native block dimensions: tile size for
// tiled files, full-width strips otherwise. Reads aligned to these
// bounds decode each block exactly once.
func (d *Dataset) BlockSize() (width, height int) {
	return d.blockW, d.blockH
}

// ColorTable returns the embedded palette, or nil for greyscale rasters.
func (d *Dataset) ColorTable() Palette {
	return d.palette
}

// Coverage reports whether the window has any backing pixel data. A
// window whose intersecting strips/tiles all carry a zero byte count is
// a sparse hole and can be skipped without reading.
func (d *Dataset) Coverage(x, y, w, h int) CoverageStatus {
	for by := y / d.blockH; by <= (y+h-1)/d.blockH; by++ {
		for bx := x / d.blockW; bx <= (x+w-1)/d.blockW; bx++ {
			i := by*d.blocksAcross + bx
			if i < len(d.counts) && d.counts[i] > 0 {
				return CoverageData
			}
		}
	}
	return CoverageEmpty
}

// ReadRow reads one full row of pixels into buf, which must hold at
// least Width bytes.
func (d *Dataset) ReadRow(row int, buf []byte) error {
	return d.ReadBlock(0, row, d.width, 1, buf)
}

// ReadBlock reads a w×h pixel window at (x, y) into buf in row-major
// order. Sparse holes read as zero.
func (d *Dataset) ReadBlock(x, y, w, h int, buf []byte) error {
	if x < 0 || y < 0 || x+w > d.width || y+h > d.height {
		return eris.Errorf("raster: window %dx%d+%d+%d outside %dx%d raster",
			w, h, x, y, d.width, d.height)
	}
	if len(buf) < w*h {
		return eris.Errorf("raster: buffer %d too small for %dx%d window", len(buf), w, h)
	}
	for by := y / d.blockH; by <= (y+h-1)/d.blockH; by++ {
		for bx := x / d.blockW; bx <= (x+w-1)/d.blockW; bx++ {
			block, err := d.decodeBlock(by*d.blocksAcross + bx)
			if err != nil {
				return err
			}
			// intersection of the window and this block, raster coords
			x0 := max(x, bx*d.blockW)
			x1 := min(x+w, (bx+1)*d.blockW)
			y0 := max(y, by*d.blockH)
			y1 := min(y+h, (by+1)*d.blockH)
			for ry := y0; ry < y1; ry++ {
				src := (ry-by*d.blockH)*d.blockW + (x0 - bx*d.blockW)
				dst := (ry-y)*w + (x0 - x)
				copy(buf[dst:dst+(x1-x0)], block[src:src+(x1-x0)])
			}
		}
	}
	return nil
}

// decodeBlock returns the decompressed pixels of block i, padded to the
// full nominal block size.
func (d *Dataset) decodeBlock(i int) ([]byte, error) {
	if i == d.cacheIdx && d.cacheBuf != nil {
		return d.cacheBuf, nil
	}
	if i < 0 || i >= len(d.offsets) {
		return nil, eris.Errorf("raster: block %d out of range", i)
	}

	out := make([]byte, d.blockW*d.blockH)
	if d.counts[i] == 0 {
		// sparse hole
		d.cacheIdx, d.cacheBuf = i, out
		return out, nil
	}

	raw := make([]byte, d.counts[i])
	if _, err := d.f.ReadAt(raw, int64(d.offsets[i])); err != nil {
		return nil, eris.Wrapf(err, "raster: read block %d", i)
	}

	switch d.compression {
	case compressionNone:
		copy(out, raw)
	case compressionDeflate, compressionOldDeflate:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, eris.Wrapf(err, "raster: inflate block %d", i)
		}
		if _, err := io.ReadFull(zr, out[:d.blockBytes(i)]); err != nil && err != io.ErrUnexpectedEOF {
			zr.Close()
			return nil, eris.Wrapf(err, "raster: inflate block %d", i)
		}
		zr.Close()
	default:
		return nil, eris.Errorf("raster: unsupported compression %d", d.compression)
	}

	d.cacheIdx, d.cacheBuf = i, out
	return out, nil
}

// blockBytes returns the decoded byte length of block i. Tiles are
// always full size; the last strip may be short.
func (d *Dataset) blockBytes(i int) int {
	if d.tiled {
		return d.blockW * d.blockH
	}
	rows := d.blockH
	if last := d.height - (i/d.blocksAcross)*d.blockH; last < rows {
		rows = last
	}
	return d.blockW * rows
}

// tagValue holds one parsed IFD entry as both integer and float views.
type tagValue struct {
	ints   []uint64
	floats []float64
}

func parseDataset(f *os.File) (*Dataset, error) {
	var hdr [8]byte
	if _, err := f.ReadAt(hdr[:], 0); err != nil {
		return nil, eris.Wrap(err, "read header")
	}

	var order binary.ByteOrder
	switch {
	case hdr[0] == 'I' && hdr[1] == 'I':
		order = binary.LittleEndian
	case hdr[0] == 'M' && hdr[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, eris.New("not a TIFF file")
	}
	if order.Uint16(hdr[2:4]) != 42 {
		return nil, eris.New("unsupported TIFF variant")
	}

	tags, err := parseIFD(f, order, int64(order.Uint32(hdr[4:8])))
	if err != nil {
		return nil, err
	}

	d := &Dataset{f: f, order: order, compression: compressionNone, cacheIdx: -1}

	width, ok := tagInt(tags, tagImageWidth)
	if !ok {
		return nil, eris.New("missing ImageWidth")
	}
	height, ok := tagInt(tags, tagImageLength)
	if !ok {
		return nil, eris.New("missing ImageLength")
	}
	d.width, d.height = int(width), int(height)

	if bits, ok := tagInt(tags, tagBitsPerSample); ok && bits != 8 {
		return nil, eris.Errorf("unsupported BitsPerSample %d (need 8-bit classification raster)", bits)
	}
	if spp, ok := tagInt(tags, tagSamplesPerPixel); ok && spp != 1 {
		return nil, eris.Errorf("unsupported SamplesPerPixel %d (need single band)", spp)
	}
	if c, ok := tagInt(tags, tagCompression); ok {
		d.compression = uint16(c)
	}

	if tw, ok := tagInt(tags, tagTileWidth); ok {
		th, _ := tagInt(tags, tagTileLength)
		d.tiled = true
		d.blockW, d.blockH = int(tw), int(th)
		d.offsets = tags[tagTileOffsets].ints
		d.counts = tags[tagTileByteCounts].ints
	} else {
		rps := uint64(d.height)
		if r, ok := tagInt(tags, tagRowsPerStrip); ok && r < rps {
			rps = r
		}
		d.blockW, d.blockH = d.width, int(rps)
		d.offsets = tags[tagStripOffsets].ints
		d.counts = tags[tagStripByteCounts].ints
	}
	if d.blockW <= 0 || d.blockH <= 0 || len(d.offsets) == 0 || len(d.offsets) != len(d.counts) {
		return nil, eris.New("malformed block layout")
	}
	d.blocksAcross = (d.width + d.blockW - 1) / d.blockW
	d.blocksDown = (d.height + d.blockH - 1) / d.blockH
	if len(d.offsets) < d.blocksAcross*d.blocksDown {
		return nil, eris.New("block index shorter than raster extent")
	}

	// ModelPixelScale + ModelTiepoint define the linear geotransform.
	scale := tags[tagModelPixelScale].floats
	tie := tags[tagModelTiepoint].floats
	if len(scale) < 2 || len(tie) < 6 {
		return nil, eris.New("missing geotransform tags")
	}
	d.gt = GeoTransform{
		XOrigin: tie[3] - tie[0]*scale[0],
		XPixel:  scale[0],
		YOrigin: tie[4] + tie[1]*scale[1],
		YPixel:  -scale[1],
	}

	if cm := tags[tagColorMap].ints; len(cm) > 0 && len(cm)%3 == 0 {
		n := len(cm) / 3
		d.palette = make(Palette, n)
		for i := 0; i < n; i++ {
			d.palette[i] = RGB{
				R: uint8(cm[i] >> 8),
				G: uint8(cm[n+i] >> 8),
				B: uint8(cm[2*n+i] >> 8),
			}
		}
	}

	return d, nil
}

// TIFF field types.
const (
	typeByte     = 1
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
	typeDouble   = 12
)

var typeSize = map[uint16]int{
	typeByte: 1, typeASCII: 1, typeShort: 2, typeLong: 4,
	typeRational: 8, typeDouble: 8,
}

func parseIFD(f *os.File, order binary.ByteOrder, off int64) (map[uint16]tagValue, error) {
	var nb [2]byte
	if _, err := f.ReadAt(nb[:], off); err != nil {
		return nil, eris.Wrap(err, "read IFD count")
	}
	n := int(order.Uint16(nb[:]))

	entries := make([]byte, n*12)
	if _, err := f.ReadAt(entries, off+2); err != nil {
		return nil, eris.Wrap(err, "read IFD entries")
	}

	tags := make(map[uint16]tagValue, n)
	for i := 0; i < n; i++ {
		e := entries[i*12 : i*12+12]
		tag := order.Uint16(e[0:2])
		typ := order.Uint16(e[2:4])
		count := int(order.Uint32(e[4:8]))

		size, ok := typeSize[typ]
		if !ok {
			continue
		}
		total := size * count

		data := e[8:12]
		if total > 4 {
			data = make([]byte, total)
			if _, err := f.ReadAt(data, int64(order.Uint32(e[8:12]))); err != nil {
				return nil, eris.Wrapf(err, "read tag %d value", tag)
			}
		}

		v := tagValue{}
		for j := 0; j < count; j++ {
			switch typ {
			case typeByte, typeASCII:
				v.ints = append(v.ints, uint64(data[j]))
			case typeShort:
				v.ints = append(v.ints, uint64(order.Uint16(data[j*2:])))
			case typeLong:
				v.ints = append(v.ints, uint64(order.Uint32(data[j*4:])))
			case typeRational:
				num := order.Uint32(data[j*8:])
				den := order.Uint32(data[j*8+4:])
				if den != 0 {
					v.floats = append(v.floats, float64(num)/float64(den))
				}
			case typeDouble:
				v.floats = append(v.floats, bitsToFloat(order, data[j*8:]))
			}
		}
		tags[tag] = v
	}
	return tags, nil
}

func bitsToFloat(order binary.ByteOrder, b []byte) float64 {
	return math.Float64frombits(order.Uint64(b[:8]))
}

func tagInt(tags map[uint16]tagValue, tag uint16) (uint64, bool) {
	v, ok := tags[tag]
	if !ok || len(v.ints) == 0 {
		return 0, false
	}
	return v.ints[0], true
}
